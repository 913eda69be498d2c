package orchestrator

import (
	"sort"
	"sync"
	"time"

	"cancelbot/src/provider"
)

// Operations a repository error can come from.
const (
	OpList    = "list"
	OpInspect = "inspect"
	OpRule    = "rule"
)

// Cancellation is one cancel decision and its outcome.
type Cancellation struct {
	Backend string
	Repo    provider.Repo
	Build   provider.Build
	Reason  string
	Job     string // failing job that triggered a job-failed cancel
	DryRun  bool
	Err     error
	At      time.Time
}

// Succeeded reports whether the cancel request went through (or was only planned).
func (c Cancellation) Succeeded() bool {
	return c.Err == nil
}

// RepoError is a failure confined to one repository of one backend.
type RepoError struct {
	Repo provider.Repo
	Op   string
	Err  error
}

// BackendReport is the outcome of one backend.
type BackendReport struct {
	Name          string
	Enabled       bool
	State         State
	Duration      time.Duration // zero if the backend had not finished
	Errors        []RepoError
	Cancellations []Cancellation
}

// Report is the outcome of a run. Backends are in registration order.
type Report struct {
	RunID     string
	Branch    string
	DryRun    bool
	StartedAt time.Time
	Duration  time.Duration
	TimedOut  bool
	Backends  []BackendReport
}

// Cancellations returns every cancellation of the run.
func (r *Report) Cancellations() []Cancellation {
	var out []Cancellation
	for _, b := range r.Backends {
		out = append(out, b.Cancellations...)
	}
	return out
}

// ErrorCount counts repository errors and failed cancel requests.
func (r *Report) ErrorCount() int {
	n := 0
	for _, b := range r.Backends {
		n += len(b.Errors)
		for _, c := range b.Cancellations {
			if c.Err != nil {
				n++
			}
		}
	}
	return n
}

// collector accumulates results under a mutex. Goroutines still running after
// the deadline keep writing to it; the report only sees what was collected
// when it was snapshotted.
type collector struct {
	mu      sync.Mutex
	results map[string]*backendResult
	claimed map[string]struct{}
	started time.Time
}

type backendResult struct {
	errors        []RepoError
	cancellations []Cancellation
	duration      time.Duration
}

func newCollector(started time.Time, backends []provider.Backend) *collector {
	c := &collector{
		results: make(map[string]*backendResult, len(backends)),
		claimed: make(map[string]struct{}),
		started: started,
	}
	for _, b := range backends {
		c.results[b.Name()] = &backendResult{}
	}
	return c
}

// claim returns true the first time a build is seen, so that each build gets
// at most one cancel request per run.
func (c *collector) claim(backend string, repo provider.Repo, id string) bool {
	key := backend + "/" + repo.String() + "#" + id

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.claimed[key]; ok {
		return false
	}
	c.claimed[key] = struct{}{}
	return true
}

func (c *collector) addError(backend string, e RepoError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[backend].errors = append(c.results[backend].errors, e)
}

func (c *collector) addCancellation(backend string, cancel Cancellation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[backend].cancellations = append(c.results[backend].cancellations, cancel)
}

func (c *collector) finish(backend string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[backend].duration = at.Sub(c.started)
}

func (c *collector) snapshot(backends []provider.Backend, states []*tracker) []BackendReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]BackendReport, 0, len(backends))
	for i, b := range backends {
		res := c.results[b.Name()]
		report := BackendReport{
			Name:          b.Name(),
			Enabled:       b.Enabled(),
			State:         states[i].load(),
			Duration:      res.duration,
			Errors:        append([]RepoError(nil), res.errors...),
			Cancellations: append([]Cancellation(nil), res.cancellations...),
		}
		sort.SliceStable(report.Cancellations, func(a, b int) bool {
			ca, cb := report.Cancellations[a], report.Cancellations[b]
			if ca.Repo != cb.Repo {
				return ca.Repo.String() < cb.Repo.String()
			}
			return ca.Build.Number < cb.Build.Number
		})
		sort.SliceStable(report.Errors, func(a, b int) bool {
			return report.Errors[a].Repo.String() < report.Errors[b].Repo.String()
		})
		out = append(out, report)
	}
	return out
}
