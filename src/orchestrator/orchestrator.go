// Package orchestrator runs one cancellation pass over every backend and
// repository, bounded by a global deadline.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"cancelbot/src/logger"
	"cancelbot/src/policy"
	"cancelbot/src/provider"
)

// DefaultTimeout bounds a whole run.
const DefaultTimeout = 30 * time.Second

const separator = "--------------------------------------------------------"

// Options configures a run.
type Options struct {
	Branch  string
	Timeout time.Duration
	DryRun  bool
	RunID   string // generated when empty
	Logger  logger.Logger
}

// Orchestrator fans a run out to all backends and folds their outcomes.
type Orchestrator struct {
	backends []provider.Backend
	repos    []provider.Repo
	opts     Options
	logger   logger.Logger
}

// New creates an orchestrator over backends and repos.
func New(backends []provider.Backend, repos []provider.Repo, opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Orchestrator{
		backends: backends,
		repos:    repos,
		opts:     opts,
		logger:   log,
	}
}

// Run performs one pass. It returns when every backend is done or the
// deadline expires, whichever comes first. Requests still in flight at the
// deadline are left to finish on their own; ctx is the only way to abort them.
// Hitting the deadline is reported, not returned as an error.
func (o *Orchestrator) Run(ctx context.Context) *Report {
	runID := o.opts.RunID
	if runID == "" {
		runID = newRunID()
	}
	started := time.Now()
	log := o.logger.With("run_id", runID)

	log.Info("%s", separator)
	log.Info("%s - starting check", started.Format(time.RFC822Z))

	col := newCollector(started, o.backends)
	states := make([]*tracker, len(o.backends))
	for i := range states {
		states[i] = &tracker{}
	}

	var wg sync.WaitGroup
	for i, b := range o.backends {
		wg.Add(1)
		go func(b provider.Backend, st *tracker) {
			defer wg.Done()
			o.runBackend(ctx, log.With("backend", b.Name()), b, st, col)
		}(b, states[i])
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(o.opts.Timeout)
	defer timer.Stop()

	timedOut := false
	select {
	case <-done:
	case <-timer.C:
		timedOut = true
		log.Info("timeout, canceling requests")
	case <-ctx.Done():
		timedOut = true
		log.Info("run interrupted: %v", ctx.Err())
	}

	report := &Report{
		RunID:     runID,
		Branch:    o.opts.Branch,
		DryRun:    o.opts.DryRun,
		StartedAt: started,
		Duration:  time.Since(started),
		TimedOut:  timedOut,
		Backends:  col.snapshot(o.backends, states),
	}

	for _, b := range report.Backends {
		log.Info("%s result: state=%s cancellations=%d errors=%d", b.Name, b.State, len(b.Cancellations), len(b.Errors))
	}

	return report
}

func (o *Orchestrator) runBackend(ctx context.Context, log logger.Logger, b provider.Backend, st *tracker, col *collector) {
	defer func() {
		st.advance(StateDone)
		col.finish(b.Name(), time.Now())
	}()

	if !b.Enabled() {
		log.Debug("no token configured, skipping")
		return
	}

	rule, err := policy.RuleFor(b.Name())
	if err != nil {
		log.Error("%v", err)
		col.addError(b.Name(), RepoError{Op: OpRule, Err: err})
		return
	}

	st.advance(StateFetching)

	var wg sync.WaitGroup
	for _, repo := range o.repos {
		wg.Add(1)
		go func(repo provider.Repo) {
			defer wg.Done()
			o.runRepo(ctx, log.With("repo", repo.String()), b, rule, repo, st, col)
		}(repo)
	}
	wg.Wait()
}

func (o *Orchestrator) runRepo(ctx context.Context, log logger.Logger, b provider.Backend, rule policy.JobRule,
	repo provider.Repo, st *tracker, col *collector) {
	builds, err := b.ListBuilds(ctx, repo)
	if err != nil {
		err = provider.WrapError(b.Name(), err)
		log.Error("failed to list builds: %v", err)
		col.addError(b.Name(), RepoError{Repo: repo, Op: OpList, Err: err})
		return
	}

	st.advance(StateDeciding)
	plan := policy.Select(builds)
	log.Debug("%d builds on branch, %d stale", len(builds), len(plan.Stale))

	var wg sync.WaitGroup
	for _, build := range plan.Stale {
		wg.Add(1)
		go func(build provider.Build) {
			defer wg.Done()
			log.Info("cancelling %d in %s as it's not the latest", build.Number, build.RawStatus)
			o.cancel(ctx, log, b, repo, build, policy.ReasonStale, "", st, col)
		}(build)
	}

	if plan.Latest != nil {
		wg.Add(1)
		go func(latest provider.Build) {
			defer wg.Done()
			o.inspectLatest(ctx, log, b, rule, repo, latest, st, col)
		}(*plan.Latest)
	}

	wg.Wait()
}

func (o *Orchestrator) inspectLatest(ctx context.Context, log logger.Logger, b provider.Backend, rule policy.JobRule,
	repo provider.Repo, latest provider.Build, st *tracker, col *collector) {
	inspection, err := b.Inspect(ctx, repo, latest)
	if err != nil {
		err = provider.WrapError(b.Name(), err)
		log.Error("failed to inspect build %d: %v", latest.Number, err)
		col.addError(b.Name(), RepoError{Repo: repo, Op: OpInspect, Err: err})
		return
	}

	job, ok := policy.ShouldCancelLatest(rule, inspection)
	if !ok {
		return
	}

	name := job.Name
	if name == "" {
		name = job.ID
	}
	log.Info("cancelling top build %d as job %s failed", inspection.Build.Number, name)
	o.cancel(ctx, log, b, repo, inspection.Build, policy.ReasonJobFailed, name, st, col)
}

func (o *Orchestrator) cancel(ctx context.Context, log logger.Logger, b provider.Backend, repo provider.Repo,
	build provider.Build, reason, job string, st *tracker, col *collector) {
	if !col.claim(b.Name(), repo, build.ID) {
		log.Debug("build %d already cancelled in this run", build.Number)
		return
	}

	st.advance(StateCancelling)

	c := Cancellation{
		Backend: b.Name(),
		Repo:    repo,
		Build:   build,
		Reason:  reason,
		Job:     job,
		DryRun:  o.opts.DryRun,
	}

	if o.opts.DryRun {
		log.Info("dry run, not cancelling build %d", build.Number)
	} else if err := b.CancelBuild(ctx, repo, build); err != nil {
		c.Err = provider.WrapError(b.Name(), err)
		log.Error("failed to cancel build %d: %v", build.Number, c.Err)
	}

	c.At = time.Now()
	col.addCancellation(b.Name(), c)
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
