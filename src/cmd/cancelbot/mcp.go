package main

import (
	"context"

	"github.com/spf13/cobra"

	"cancelbot/src/mcp"
	"cancelbot/src/orchestrator"
	"cancelbot/src/provider"
)

func newMCPCmd(f *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp [flags] [owner/repo...]",
		Short: "Serve cancellation tools over MCP stdio",
		Long: `Starts an MCP server on stdin/stdout exposing plan_cancellations,
cancel_stale_builds and get_run. The configured branch and repositories are
the defaults of each tool call. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f, args)
			if err != nil {
				return err
			}
			if err := cfg.ValidateSettings(); err != nil {
				return err
			}
			repos, err := cfg.Repositories()
			if err != nil {
				return err
			}

			log := newLogger(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), true)
			r, err := newRunner(cfg, log, false)
			if err != nil {
				return err
			}
			defer r.Close() // nolint: errcheck

			return mcp.NewServer(version, r.toolRun(repos)).Run()
		},
	}
}

// toolRun applies a tool call's overrides on top of the configured defaults.
// A configured dry run cannot be lifted by a tool call.
func (r *runner) toolRun(defaults []provider.Repo) mcp.RunFunc {
	return func(ctx context.Context, req mcp.RunRequest) (*orchestrator.Report, error) {
		branch := req.Branch
		if branch == "" {
			branch = r.cfg.Branch
		}
		repos := defaults
		if len(req.Repos) > 0 {
			repos = req.Repos
		}
		return r.run(ctx, branch, repos, req.DryRun || r.cfg.DryRun)
	}
}
