package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cancelbot/src/contracts"
	"cancelbot/src/orchestrator"
	"cancelbot/src/provider"
)

func testReport() *orchestrator.Report {
	at := time.UnixMilli(1700000000000)
	repo := provider.Repo{Owner: "rust-lang", Name: "rust"}
	return &orchestrator.Report{
		RunID:     "run-1",
		Branch:    "auto",
		StartedAt: at,
		Duration:  1500 * time.Millisecond,
		Backends: []orchestrator.BackendReport{
			{
				Name:    provider.Travis,
				Enabled: true,
				State:   orchestrator.StateDone,
				Cancellations: []orchestrator.Cancellation{
					{Backend: provider.Travis, Repo: repo, Build: provider.Build{ID: "100", Number: 10}, Reason: "stale", At: at},
					{Backend: provider.Travis, Repo: repo, Build: provider.Build{ID: "101", Number: 11}, Reason: "job-failed", Job: "2", At: at, Err: errors.New("boom")},
				},
			},
			{Name: provider.Azure, State: orchestrator.StateDone},
		},
	}
}

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(1 * time.Second):
		t.Fatal("Timeout waiting for message")
	}
	return Message{}
}

func TestPublisher_PublishReport(t *testing.T) {
	b := NewInMemoryBroker()
	defer b.Close()
	ctx := context.Background()

	cancellations, _ := b.Subscribe(ctx, contracts.TopicCancellations, "test")
	runs, _ := b.Subscribe(ctx, contracts.TopicRuns, "test")

	if err := NewPublisher(b, Topics{}).PublishReport(ctx, testReport()); err != nil {
		t.Fatalf("PublishReport failed: %v", err)
	}

	first := receive(t, cancellations)
	if first.Key != "travis/rust-lang/rust" {
		t.Errorf("Expected key travis/rust-lang/rust, got %s", first.Key)
	}
	var event contracts.CancellationEvent
	if err := json.Unmarshal(first.Value, &event); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if event.RunID != "run-1" || event.BuildNumber != 10 || event.Reason != "stale" || event.Error != "" {
		t.Errorf("Unexpected event: %+v", event)
	}

	second := receive(t, cancellations)
	if err := json.Unmarshal(second.Value, &event); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if event.Error != "boom" || event.Job != "2" {
		t.Errorf("Unexpected event: %+v", event)
	}

	run := receive(t, runs)
	if run.Key != "run-1" {
		t.Errorf("Expected key run-1, got %s", run.Key)
	}
	var summary contracts.RunSummary
	if err := json.Unmarshal(run.Value, &summary); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if summary.Cancellations != 2 || summary.Errors != 1 || summary.DurationMs != 1500 {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if len(summary.Backends) != 2 || summary.Backends[0].State != "done" {
		t.Errorf("Unexpected backends: %+v", summary.Backends)
	}
}

func TestPublisher_ClosedBroker(t *testing.T) {
	b := NewInMemoryBroker()
	b.Close()

	err := NewPublisher(b, DefaultTopics()).PublishReport(context.Background(), testReport())
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}
