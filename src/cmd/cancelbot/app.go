package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"cancelbot/src/appveyor"
	"cancelbot/src/azure"
	"cancelbot/src/broker"
	"cancelbot/src/config"
	"cancelbot/src/logger"
	"cancelbot/src/metrics"
	"cancelbot/src/orchestrator"
	"cancelbot/src/provider"
	"cancelbot/src/report"
	"cancelbot/src/travis"
)

// publishTimeout bounds event publishing after a run.
const publishTimeout = 10 * time.Second

// cliFlags holds the flags shared by every command. They only override the
// configuration when set explicitly.
type cliFlags struct {
	configPath      string
	branch          string
	travisToken     string
	appveyorToken   string
	appveyorAccount string
	azureToken      string
	azureOrg        string
	timeout         time.Duration
	dryRun          bool
	jsonLogs        bool
	verbose         bool
	color           bool
	brokers         []string
	metricsFile     string
	format          string

	// serve only
	interval  time.Duration
	debugAddr string
}

func newRootCmd() *cobra.Command {
	f := &cliFlags{}

	// cmd performs a single cancellation pass when called without a subcommand
	cmd := &cobra.Command{
		Use:   "cancelbot [flags] owner/repo...",
		Short: "Cancel stale and failing CI builds on a merge branch",
		Long: `cancelbot checks Travis CI, AppVeyor and Azure Pipelines for builds of a
branch (typically the merge queue branch, such as "auto").

For each repository and enabled backend it:
- cancels every running build older than the latest one
- cancels the latest build when one of its required jobs already failed

A backend is enabled by providing its token. All backends run concurrently,
bounded by --timeout.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, f, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "cancelbot.toml", "Path to a TOML or YAML config file")
	pf.StringVarP(&f.branch, "branch", "b", "", "Branch to check (env CANCELBOT_BRANCH)")
	pf.StringVarP(&f.travisToken, "travis", "t", "", "Travis CI API token (env TRAVIS_TOKEN)")
	pf.StringVarP(&f.appveyorToken, "appveyor", "a", "", "AppVeyor API token (env APPVEYOR_TOKEN)")
	pf.StringVar(&f.appveyorAccount, "appveyor-account", "", "AppVeyor account name (default: the repository name)")
	pf.StringVar(&f.azureToken, "azure-pipelines-token", "", "Azure Pipelines token (env AZURE_PIPELINES_TOKEN)")
	pf.StringVar(&f.azureOrg, "azure-pipelines-org", "", "Azure DevOps organization (default: the repository owner)")
	pf.DurationVar(&f.timeout, "timeout", config.DefaultTimeout, "Deadline for a whole run")
	pf.BoolVar(&f.dryRun, "dry-run", false, "Report what would be cancelled without cancelling")
	pf.BoolVar(&f.jsonLogs, "json-logs", false, "Log as JSON to stderr")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Log every request")
	pf.BoolVar(&f.color, "color", false, "Colorize the text report")
	pf.StringSliceVar(&f.brokers, "redpanda-brokers", nil, "Redpanda brokers to publish events to (env REDPANDA_BROKERS)")
	pf.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after each run")
	pf.StringVar(&f.format, "format", "text", "Report format: text or json")

	cmd.AddCommand(newServeCmd(f), newMCPCmd(f), newWatchCmd(f))
	return cmd
}

// loadConfig layers explicitly set flags and positional repositories over
// the config file and environment.
func loadConfig(cmd *cobra.Command, f *cliFlags, args []string) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	fs := cmd.Flags()
	str := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	str("branch", &cfg.Branch, f.branch)
	str("travis", &cfg.Travis.Token, f.travisToken)
	str("appveyor", &cfg.AppVeyor.Token, f.appveyorToken)
	str("appveyor-account", &cfg.AppVeyor.Account, f.appveyorAccount)
	str("azure-pipelines-token", &cfg.Azure.Token, f.azureToken)
	str("azure-pipelines-org", &cfg.Azure.Organization, f.azureOrg)
	str("metrics-file", &cfg.MetricsFile, f.metricsFile)
	str("format", &cfg.Format, f.format)
	str("debug-addr", &cfg.Serve.DebugAddr, f.debugAddr)

	if fs.Changed("timeout") {
		cfg.Timeout = config.Duration{Duration: f.timeout}
	}
	if fs.Changed("interval") {
		cfg.Serve.Interval = config.Duration{Duration: f.interval}
	}
	if fs.Changed("dry-run") {
		cfg.DryRun = f.dryRun
	}
	if fs.Changed("json-logs") {
		cfg.JSONLogs = f.jsonLogs
	}
	if fs.Changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if fs.Changed("redpanda-brokers") {
		cfg.Redpanda.Brokers = f.brokers
	}
	if len(args) > 0 {
		cfg.Repos = args
	}
	return cfg, nil
}

// newLogger picks the log sink. JSON logs and runs whose stdout carries
// data (a JSON report, the MCP protocol) log to stderr through logrus.
func newLogger(cfg *config.Config, stdout, stderr io.Writer, stdoutReserved bool) logger.Logger {
	if cfg.JSONLogs || stdoutReserved {
		return logger.NewLogrusLogger(stderr, cfg.JSONLogs, cfg.Verbose)
	}
	return logger.NewConsoleLoggerTo(stdout, stderr, cfg.Verbose)
}

// runner performs orchestrator runs and handles their side effects:
// metrics, the textfile and published events.
type runner struct {
	cfg        *config.Config
	log        logger.Logger
	httpClient *http.Client
	metrics    *metrics.Metrics
	broker     broker.Broker
	publisher  *broker.Publisher
}

func newRunner(cfg *config.Config, log logger.Logger, withRuntime bool) (*runner, error) {
	r := &runner{
		cfg:        cfg,
		log:        log,
		httpClient: &http.Client{},
		metrics:    metrics.New(withRuntime),
	}

	if len(cfg.Redpanda.Brokers) > 0 {
		b, err := broker.NewRedpandaBroker(cfg.Redpanda.Brokers, log)
		if err != nil {
			return nil, errors.Wrap(err, "could not create the event publisher")
		}
		r.broker = b
		r.publisher = broker.NewPublisher(b, broker.Topics{
			Cancellations: cfg.Redpanda.CancellationsTopic,
			Runs:          cfg.Redpanda.RunsTopic,
		})
		log.Debug("publishing events to %v", cfg.Redpanda.Brokers)
	}
	return r, nil
}

// backends builds one adapter per CI service. Adapters without a token
// report themselves disabled.
func (r *runner) backends(branch string) []provider.Backend {
	cfg := r.cfg
	return []provider.Backend{
		travis.NewBackend(travis.Options{
			Token:      cfg.Travis.Token,
			Branch:     branch,
			BaseURL:    cfg.Travis.BaseURL,
			HTTPClient: r.httpClient,
			Logger:     r.log,
		}),
		appveyor.NewBackend(appveyor.Options{
			Token:       cfg.AppVeyor.Token,
			Branch:      branch,
			Account:     cfg.AppVeyor.Account,
			HistorySize: cfg.AppVeyor.HistorySize,
			BaseURL:     cfg.AppVeyor.BaseURL,
			HTTPClient:  r.httpClient,
			Logger:      r.log,
		}),
		azure.NewBackend(azure.Options{
			Token:        cfg.Azure.Token,
			Branch:       branch,
			Organization: cfg.Azure.Organization,
			BaseURL:      cfg.Azure.BaseURL,
			HTTPClient:   r.httpClient,
			Logger:       r.log,
		}),
	}
}

// run performs one pass. Failures of the side effects are logged, never
// returned, so that a broken metrics file or broker does not fail the run.
func (r *runner) run(ctx context.Context, branch string, repos []provider.Repo, dryRun bool) (*orchestrator.Report, error) {
	if branch == "" {
		return nil, &config.ConfigError{Field: "branch", Message: "a branch is required"}
	}
	if len(repos) == 0 {
		return nil, &config.ConfigError{Field: "repos", Message: "at least one owner/repo is required"}
	}

	o := orchestrator.New(r.backends(branch), repos, orchestrator.Options{
		Branch:  branch,
		Timeout: r.cfg.Timeout.Duration,
		DryRun:  dryRun,
		Logger:  r.log,
	})
	rep := o.Run(ctx)

	r.metrics.Observe(rep)
	if r.cfg.MetricsFile != "" {
		if err := r.metrics.WriteTextfile(r.cfg.MetricsFile); err != nil {
			r.log.Error("failed to write metrics to %s: %v", r.cfg.MetricsFile, err)
		}
	}

	if r.publisher != nil {
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if err := r.publisher.PublishReport(pubCtx, rep); err != nil {
			r.log.Error("failed to publish events for run %s: %v", rep.RunID, err)
		}
	}
	return rep, nil
}

func (r *runner) Close() error {
	if r.broker == nil {
		return nil
	}
	return r.broker.Close()
}

// runOnce is the root command: one pass, report on stdout, exit 0 unless
// the configuration is invalid.
func runOnce(cmd *cobra.Command, f *cliFlags, args []string) error {
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

	// Backend goroutines still running after a timeout may log while the
	// report is written.
	stdout := logger.SyncWriter(cmd.OutOrStdout())
	log := newLogger(cfg, stdout, cmd.ErrOrStderr(), cfg.Format == "json")
	r, err := newRunner(cfg, log, false)
	if err != nil {
		return err
	}
	defer r.Close() // nolint: errcheck

	rep, err := r.run(cmd.Context(), cfg.Branch, repos, cfg.DryRun)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, rep, cfg.Format, report.Options{Color: f.color}); err != nil {
		return err
	}
	_, err = stdout.Write(buf.Bytes())
	return err
}
