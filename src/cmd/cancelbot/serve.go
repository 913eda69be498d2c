package main

import (
	"context"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/oklog/oklog/pkg/group"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"cancelbot/src/config"
	"cancelbot/src/debug"
	"cancelbot/src/orchestrator"
	"cancelbot/src/report"
)

func newServeCmd(f *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [flags] owner/repo...",
		Short: "Run a pass every --interval and serve metrics",
		Long: `Runs a cancellation pass immediately and then every --interval until
interrupted. The debug server exposes /metrics, /health, /status (the
latest report as JSON) and /debug/pprof.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd, f, args)
		},
	}

	cmd.Flags().DurationVar(&f.interval, "interval", config.DefaultInterval, "Time between passes")
	cmd.Flags().StringVar(&f.debugAddr, "debug-addr", config.DefaultDebugAddr, "HTTP debug server listen address")
	return cmd
}

func serve(cmd *cobra.Command, f *cliFlags, args []string) error {
	cfg, err := loadConfig(cmd, f, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	repos, err := cfg.Repositories()
	if err != nil {
		return err
	}

	log := newLogger(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), false)
	r, err := newRunner(cfg, log, true)
	if err != nil {
		return err
	}
	defer r.Close() // nolint: errcheck

	var latest atomic.Pointer[orchestrator.Report]
	status := func() any {
		if rep := latest.Load(); rep != nil {
			return report.JSON(rep)
		}
		return nil
	}

	var g group.Group
	{
		// Run loop, ends on SIGINT or SIGTERM
		ctx, cancel := context.WithCancel(cmd.Context())
		g.Add(func() error {
			return every(ctx, cfg.Serve.Interval.Duration, func(ctx context.Context) {
				rep, err := r.run(ctx, cfg.Branch, repos, cfg.DryRun)
				if err != nil {
					log.Error("run failed: %v", err)
					return
				}
				latest.Store(rep)
			})
		}, func(err error) {
			cancel()
		})
	}
	{
		// HTTP debug server
		debugListener, err := net.Listen("tcp", cfg.Serve.DebugAddr)
		if err != nil {
			return errors.Wrap(err, "could not create listener")
		}

		g.Add(func() error {
			server := http.Server{
				Handler:      debug.New(r.metrics.Handler(), status),
				WriteTimeout: 10 * time.Second,
				ReadTimeout:  10 * time.Second,
			}
			log.Info("debug server listening on %s", debugListener.Addr())
			return server.Serve(debugListener)
		}, func(err error) {
			debugListener.Close() // nolint: errcheck, gas
		})
	}

	log.Info("checking %s every %s", cfg.Branch, cfg.Serve.Interval)
	return g.Run()
}

// every calls fn immediately and then on each tick until ctx is done.
// Ticks missed while fn runs are dropped.
func every(ctx context.Context, interval time.Duration, fn func(context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		fn(ctx)
		if ctx.Err() != nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
