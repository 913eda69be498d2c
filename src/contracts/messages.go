// Package contracts defines the events cancelbot publishes about its runs.
package contracts

// Topic names.
const (
	TopicCancellations = "cancelbot.cancellations"
	TopicRuns          = "cancelbot.runs"
)

// CancellationEvent records one cancel decision.
// Published to: cancelbot.cancellations
// Key: {backend}/{owner}/{repo}
type CancellationEvent struct {
	RunID string `json:"run_id"`
	// CI backend ("travis", "appveyor", "azure").
	Backend string `json:"backend"`
	// Repository as owner/name.
	Repo        string `json:"repo"`
	BuildID     string `json:"build_id"`
	BuildNumber int64  `json:"build_number"`
	// Why the build was cancelled: "stale" or "job-failed".
	Reason string `json:"reason"`
	// Failing job that triggered a job-failed cancel.
	Job    string `json:"job,omitempty"`
	DryRun bool   `json:"dry_run"`
	// Error of the cancel request, empty on success.
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"` // unix millis
}

// BackendSummary is the outcome of one backend within a run.
type BackendSummary struct {
	Name          string `json:"name"`
	Enabled       bool   `json:"enabled"`
	State         string `json:"state"`
	DurationMs    int64  `json:"duration_ms"`
	Cancellations int    `json:"cancellations"`
	Errors        int    `json:"errors"`
}

// RunSummary records one finished run.
// Published to: cancelbot.runs
// Key: {run_id}
type RunSummary struct {
	RunID         string           `json:"run_id"`
	Branch        string           `json:"branch"`
	StartedAt     int64            `json:"started_at"` // unix millis
	DurationMs    int64            `json:"duration_ms"`
	TimedOut      bool             `json:"timed_out"`
	DryRun        bool             `json:"dry_run"`
	Cancellations int              `json:"cancellations"`
	Errors        int              `json:"errors"`
	Backends      []BackendSummary `json:"backends"`
}

// CancellationKey is the partition key of a cancellation event.
func CancellationKey(backend, repo string) string {
	return backend + "/" + repo
}
