package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"cancelbot/src/contracts"
	"cancelbot/src/orchestrator"
)

// Topics names the topics events are published to.
type Topics struct {
	Cancellations string
	Runs          string
}

// DefaultTopics returns the standard topic names.
func DefaultTopics() Topics {
	return Topics{Cancellations: contracts.TopicCancellations, Runs: contracts.TopicRuns}
}

// Publisher turns run reports into events.
type Publisher struct {
	broker Broker
	topics Topics
}

// NewPublisher creates a publisher. Empty topic names fall back to the defaults.
func NewPublisher(b Broker, topics Topics) *Publisher {
	def := DefaultTopics()
	if topics.Cancellations == "" {
		topics.Cancellations = def.Cancellations
	}
	if topics.Runs == "" {
		topics.Runs = def.Runs
	}
	return &Publisher{broker: b, topics: topics}
}

// PublishReport publishes one event per cancellation followed by the run
// summary, as a single batch. Events that cannot be encoded are skipped and
// reported with the publish failures.
func (p *Publisher) PublishReport(ctx context.Context, report *orchestrator.Report) error {
	var (
		records []Record
		errs    []error
	)
	add := func(topic, key string, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to marshal event for %s: %w", topic, err))
			return
		}
		records = append(records, Record{Topic: topic, Key: key, Value: data})
	}

	for _, c := range report.Cancellations() {
		event := CancellationEvent(report.RunID, c)
		add(p.topics.Cancellations, contracts.CancellationKey(event.Backend, event.Repo), event)
	}
	add(p.topics.Runs, report.RunID, RunSummary(report))

	if err := p.broker.PublishBatch(ctx, records); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// CancellationEvent converts a cancellation into its event.
func CancellationEvent(runID string, c orchestrator.Cancellation) contracts.CancellationEvent {
	event := contracts.CancellationEvent{
		RunID:       runID,
		Backend:     c.Backend,
		Repo:        c.Repo.String(),
		BuildID:     c.Build.ID,
		BuildNumber: c.Build.Number,
		Reason:      c.Reason,
		Job:         c.Job,
		DryRun:      c.DryRun,
		Timestamp:   c.At.UnixMilli(),
	}
	if c.Err != nil {
		event.Error = c.Err.Error()
	}
	return event
}

// RunSummary converts a report into its summary event.
func RunSummary(report *orchestrator.Report) contracts.RunSummary {
	summary := contracts.RunSummary{
		RunID:         report.RunID,
		Branch:        report.Branch,
		StartedAt:     report.StartedAt.UnixMilli(),
		DurationMs:    report.Duration.Milliseconds(),
		TimedOut:      report.TimedOut,
		DryRun:        report.DryRun,
		Cancellations: len(report.Cancellations()),
		Errors:        report.ErrorCount(),
	}
	for _, b := range report.Backends {
		summary.Backends = append(summary.Backends, contracts.BackendSummary{
			Name:          b.Name,
			Enabled:       b.Enabled,
			State:         b.State.String(),
			DurationMs:    b.Duration.Milliseconds(),
			Cancellations: len(b.Cancellations),
			Errors:        len(b.Errors),
		})
	}
	return summary
}
