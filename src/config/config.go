// Package config provides configuration management for cancelbot.
//
// Values come from an optional TOML or YAML file, then environment
// variables, then command-line flags, each overriding the previous.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"cancelbot/src/provider"
)

// Defaults.
const (
	DefaultTimeout            = 30 * time.Second
	DefaultInterval           = time.Minute
	DefaultHistorySize        = 10
	DefaultDebugAddr          = ":9001"
	DefaultCancellationsTopic = "cancelbot.cancellations"
	DefaultRunsTopic          = "cancelbot.runs"
)

// Duration is a time.Duration read from strings such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML and YAML.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// TravisConfig holds Travis CI settings.
type TravisConfig struct {
	Token   string `toml:"token" yaml:"token"`
	BaseURL string `toml:"base_url" yaml:"base_url"`
}

// AppVeyorConfig holds AppVeyor settings. An empty Account means the
// repository name is used as the account.
type AppVeyorConfig struct {
	Token       string `toml:"token" yaml:"token"`
	Account     string `toml:"account" yaml:"account"`
	HistorySize int    `toml:"history_size" yaml:"history_size"`
	BaseURL     string `toml:"base_url" yaml:"base_url"`
}

// AzureConfig holds Azure Pipelines settings. An empty Organization means
// the repository owner is used.
type AzureConfig struct {
	Token        string `toml:"token" yaml:"token"`
	Organization string `toml:"organization" yaml:"organization"`
	BaseURL      string `toml:"base_url" yaml:"base_url"`
}

// RedpandaConfig configures event publishing. No brokers means events are not published.
type RedpandaConfig struct {
	Brokers            []string `toml:"brokers" yaml:"brokers"`
	CancellationsTopic string   `toml:"cancellations_topic" yaml:"cancellations_topic"`
	RunsTopic          string   `toml:"runs_topic" yaml:"runs_topic"`
}

// ServeConfig configures periodic runs.
type ServeConfig struct {
	Interval  Duration `toml:"interval" yaml:"interval"`
	DebugAddr string   `toml:"debug_addr" yaml:"debug_addr"`
}

// Config holds the application configuration.
type Config struct {
	Branch      string         `toml:"branch" yaml:"branch"`
	Repos       []string       `toml:"repos" yaml:"repos"`
	Timeout     Duration       `toml:"timeout" yaml:"timeout"`
	DryRun      bool           `toml:"dry_run" yaml:"dry_run"`
	JSONLogs    bool           `toml:"json_logs" yaml:"json_logs"`
	Verbose     bool           `toml:"verbose" yaml:"verbose"`
	Format      string         `toml:"format" yaml:"format"`
	MetricsFile string         `toml:"metrics_file" yaml:"metrics_file"`
	Travis      TravisConfig   `toml:"travis" yaml:"travis"`
	AppVeyor    AppVeyorConfig `toml:"appveyor" yaml:"appveyor"`
	Azure       AzureConfig    `toml:"azure" yaml:"azure"`
	Redpanda    RedpandaConfig `toml:"redpanda" yaml:"redpanda"`
	Serve       ServeConfig    `toml:"serve" yaml:"serve"`
}

// ConfigError reports an invalid or missing setting. It is fatal at startup.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Timeout: Duration{DefaultTimeout},
		Format:  "text",
		AppVeyor: AppVeyorConfig{
			HistorySize: DefaultHistorySize,
		},
		Redpanda: RedpandaConfig{
			CancellationsTopic: DefaultCancellationsTopic,
			RunsTopic:          DefaultRunsTopic,
		},
		Serve: ServeConfig{
			Interval:  Duration{DefaultInterval},
			DebugAddr: DefaultDebugAddr,
		},
	}
}

// Load reads the file at path on top of the defaults and applies environment
// overrides. An empty path or a missing file is not an error. The format is
// chosen by extension: .toml, .yaml or .yml.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return &ConfigError{Field: "config", Message: "cannot read " + path, Err: err}
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return &ConfigError{Field: "config", Message: fmt.Sprintf("unknown config format %q", ext)}
	}
	if err != nil {
		return &ConfigError{Field: "config", Message: "cannot parse " + path, Err: err}
	}
	return nil
}

// applyEnv overrides file values with the environment:
//   - TRAVIS_TOKEN, APPVEYOR_TOKEN, AZURE_PIPELINES_TOKEN
//   - APPVEYOR_ACCOUNT, AZURE_PIPELINES_ORG
//   - CANCELBOT_BRANCH, CANCELBOT_TIMEOUT
//   - REDPANDA_BROKERS (comma separated)
func (c *Config) applyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Travis.Token, "TRAVIS_TOKEN")
	set(&c.AppVeyor.Token, "APPVEYOR_TOKEN")
	set(&c.AppVeyor.Account, "APPVEYOR_ACCOUNT")
	set(&c.Azure.Token, "AZURE_PIPELINES_TOKEN")
	set(&c.Azure.Organization, "AZURE_PIPELINES_ORG")
	set(&c.Branch, "CANCELBOT_BRANCH")

	if v := getenv("CANCELBOT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &ConfigError{Field: "CANCELBOT_TIMEOUT", Message: "not a duration", Err: err}
		}
		c.Timeout = Duration{d}
	}
	if v := getenv("REDPANDA_BROKERS"); v != "" {
		c.Redpanda.Brokers = SplitList(v)
	}
	return nil
}

// SplitList splits a comma separated list, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the configuration before any request is made.
func (c *Config) Validate() error {
	if c.Branch == "" {
		return &ConfigError{Field: "branch", Message: "a branch is required (-b or CANCELBOT_BRANCH)"}
	}
	if len(c.Repos) == 0 {
		return &ConfigError{Field: "repos", Message: "at least one owner/repo is required"}
	}
	return c.ValidateSettings()
}

// ValidateSettings checks everything but the branch and repositories, which
// MCP tool calls may supply per run.
func (c *Config) ValidateSettings() error {
	if _, err := c.Repositories(); err != nil {
		return err
	}
	if c.Timeout.Duration <= 0 {
		return &ConfigError{Field: "timeout", Message: fmt.Sprintf("must be positive, got %s", c.Timeout)}
	}
	if c.Serve.Interval.Duration <= 0 {
		return &ConfigError{Field: "serve.interval", Message: fmt.Sprintf("must be positive, got %s", c.Serve.Interval)}
	}
	if c.AppVeyor.HistorySize <= 0 {
		return &ConfigError{Field: "appveyor.history_size", Message: "must be positive"}
	}
	switch c.Format {
	case "text", "json":
	default:
		return &ConfigError{Field: "format", Message: fmt.Sprintf("unknown output format %q", c.Format)}
	}
	return nil
}

// Repositories parses the configured owner/name pairs.
func (c *Config) Repositories() ([]provider.Repo, error) {
	repos := make([]provider.Repo, 0, len(c.Repos))
	for _, s := range c.Repos {
		repo, err := provider.ParseRepo(s)
		if err != nil {
			return nil, &ConfigError{Field: "repos", Message: "invalid repository", Err: err}
		}
		repos = append(repos, repo)
	}
	return repos, nil
}

// Enabled lists the backends that have a token.
func (c *Config) Enabled() []string {
	var names []string
	if c.Travis.Token != "" {
		names = append(names, provider.Travis)
	}
	if c.AppVeyor.Token != "" {
		names = append(names, provider.AppVeyor)
	}
	if c.Azure.Token != "" {
		names = append(names, provider.Azure)
	}
	return names
}
