package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"cancelbot/src/orchestrator"
	"cancelbot/src/provider"
)

func report(timedOut bool) *orchestrator.Report {
	repo := provider.Repo{Owner: "rust-lang", Name: "rust"}
	return &orchestrator.Report{
		RunID:     "run",
		StartedAt: time.Unix(1700000000, 0),
		Duration:  2 * time.Second,
		TimedOut:  timedOut,
		Backends: []orchestrator.BackendReport{
			{
				Name:     provider.Travis,
				Enabled:  true,
				State:    orchestrator.StateDone,
				Duration: time.Second,
				Errors:   []orchestrator.RepoError{{Repo: repo, Op: orchestrator.OpInspect, Err: errors.New("x")}},
				Cancellations: []orchestrator.Cancellation{
					{Backend: provider.Travis, Repo: repo, Reason: "stale"},
					{Backend: provider.Travis, Repo: repo, Reason: "stale", Err: errors.New("y")},
					{Backend: provider.Travis, Repo: repo, Reason: "job-failed", DryRun: true},
				},
			},
		},
	}
}

func TestObserve(t *testing.T) {
	m := New(false)
	m.Observe(report(false))
	m.Observe(report(true))

	if got := testutil.ToFloat64(m.runs.WithLabelValues("ok")); got != 1 {
		t.Errorf("runs{ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues("timeout")); got != 1 {
		t.Errorf("runs{timeout} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.cancellations.WithLabelValues("travis", "stale", OutcomeOK)); got != 2 {
		t.Errorf("cancellations{stale,ok} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cancellations.WithLabelValues("travis", "stale", OutcomeError)); got != 2 {
		t.Errorf("cancellations{stale,error} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cancellations.WithLabelValues("travis", "job-failed", OutcomeDryRun)); got != 2 {
		t.Errorf("cancellations{job-failed,dry_run} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.errors.WithLabelValues("travis", "inspect")); got != 2 {
		t.Errorf("repo_errors{inspect} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.lastRun); got != 1700000000 {
		t.Errorf("last_run = %v", got)
	}
}

func TestHandler(t *testing.T) {
	m := New(false)
	m.Observe(report(false))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cancelbot_runs_total") {
		t.Errorf("body missing cancelbot_runs_total:\n%s", rec.Body.String())
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New(false)
	m.Observe(report(false))

	path := filepath.Join(t.TempDir(), "cancelbot.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `cancelbot_cancellations_total{backend="travis",outcome="ok",reason="stale"} 1`) {
		t.Errorf("textfile missing cancellation counter:\n%s", data)
	}
}
