package report

import (
	"encoding/json"
	"io"
	"time"

	"cancelbot/src/orchestrator"
)

type jsonCancellation struct {
	Repo        string `json:"repo"`
	BuildID     string `json:"build_id"`
	BuildNumber int64  `json:"build_number"`
	Status      string `json:"status"`
	Reason      string `json:"reason"`
	Job         string `json:"job,omitempty"`
	DryRun      bool   `json:"dry_run"`
	Error       string `json:"error,omitempty"`
}

type jsonError struct {
	Repo  string `json:"repo,omitempty"`
	Op    string `json:"op"`
	Error string `json:"error"`
}

type jsonBackend struct {
	Name          string             `json:"name"`
	Enabled       bool               `json:"enabled"`
	State         orchestrator.State `json:"state"`
	DurationMs    int64              `json:"duration_ms"`
	Cancellations []jsonCancellation `json:"cancellations"`
	Errors        []jsonError        `json:"errors"`
}

type jsonReport struct {
	RunID      string        `json:"run_id"`
	Branch     string        `json:"branch"`
	StartedAt  time.Time     `json:"started_at"`
	DurationMs int64         `json:"duration_ms"`
	TimedOut   bool          `json:"timed_out"`
	DryRun     bool          `json:"dry_run"`
	Backends   []jsonBackend `json:"backends"`
}

// JSON converts a report into its JSON document form.
func JSON(r *orchestrator.Report) any {
	out := jsonReport{
		RunID:      r.RunID,
		Branch:     r.Branch,
		StartedAt:  r.StartedAt.UTC(),
		DurationMs: r.Duration.Milliseconds(),
		TimedOut:   r.TimedOut,
		DryRun:     r.DryRun,
		Backends:   make([]jsonBackend, 0, len(r.Backends)),
	}

	for _, b := range r.Backends {
		jb := jsonBackend{
			Name:          b.Name,
			Enabled:       b.Enabled,
			State:         b.State,
			DurationMs:    b.Duration.Milliseconds(),
			Cancellations: []jsonCancellation{},
			Errors:        []jsonError{},
		}
		for _, c := range b.Cancellations {
			jc := jsonCancellation{
				Repo:        c.Repo.String(),
				BuildID:     c.Build.ID,
				BuildNumber: c.Build.Number,
				Status:      c.Build.RawStatus,
				Reason:      c.Reason,
				Job:         c.Job,
				DryRun:      c.DryRun,
			}
			if c.Err != nil {
				jc.Error = c.Err.Error()
			}
			jb.Cancellations = append(jb.Cancellations, jc)
		}
		for _, e := range b.Errors {
			je := jsonError{Op: e.Op, Error: e.Err.Error()}
			if e.Repo.Owner != "" {
				je.Repo = e.Repo.String()
			}
			jb.Errors = append(jb.Errors, je)
		}
		out.Backends = append(out.Backends, jb)
	}
	return out
}

// WriteJSON writes the report as an indented JSON document.
func WriteJSON(w io.Writer, r *orchestrator.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(JSON(r))
}
