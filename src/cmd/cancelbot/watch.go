package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"cancelbot/src/broker"
	"cancelbot/src/config"
	"cancelbot/src/contracts"
	"cancelbot/src/logger"
)

func newWatchCmd(f *cliFlags) *cobra.Command {
	var groupID string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print cancellation events as they are published",
		Long: `Consumes the cancellations topic from Redpanda and prints one line per
event, starting at the end of the topic. Requires --redpanda-brokers or
REDPANDA_BROKERS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f, nil)
			if err != nil {
				return err
			}
			if len(cfg.Redpanda.Brokers) == 0 {
				return &config.ConfigError{Field: "redpanda.brokers", Message: "watch needs --redpanda-brokers or REDPANDA_BROKERS"}
			}

			log := newLogger(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), true)
			b, err := broker.NewRedpandaBroker(cfg.Redpanda.Brokers, log)
			if err != nil {
				return errors.Wrap(err, "could not connect to redpanda")
			}
			defer b.Close() // nolint: errcheck

			msgs, err := b.Subscribe(cmd.Context(), cfg.Redpanda.CancellationsTopic, groupID)
			if err != nil {
				return errors.Wrapf(err, "could not subscribe to %s", cfg.Redpanda.CancellationsTopic)
			}
			log.Info("watching %s", cfg.Redpanda.CancellationsTopic)
			return printEvents(cmd.Context(), cmd.OutOrStdout(), msgs, log)
		},
	}

	cmd.Flags().StringVar(&groupID, "group", "cancelbot-watch", "Consumer group ID")
	return cmd
}

// printEvents writes one line per cancellation event until ctx is done or
// msgs is closed. Undecodable messages are logged and skipped.
func printEvents(ctx context.Context, w io.Writer, msgs <-chan broker.Message, log logger.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var ev contracts.CancellationEvent
			if err := json.Unmarshal(msg.Value, &ev); err != nil {
				log.Error("skipping malformed event at %s/%d offset %d: %v", msg.Topic, msg.Partition, msg.Offset, err)
				continue
			}
			if _, err := fmt.Fprintln(w, formatEvent(ev)); err != nil {
				return err
			}
		}
	}
}

func formatEvent(ev contracts.CancellationEvent) string {
	outcome := "cancelled"
	switch {
	case ev.Error != "":
		outcome = "error: " + ev.Error
	case ev.DryRun:
		outcome = "would cancel"
	}

	reason := ev.Reason
	if ev.Job != "" {
		reason += " (" + ev.Job + ")"
	}

	at := time.UnixMilli(ev.Timestamp).UTC().Format(time.RFC3339)
	return fmt.Sprintf("%s %s %s #%d %s: %s", at, ev.Backend, ev.Repo, ev.BuildNumber, reason, outcome)
}
