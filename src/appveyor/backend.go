package appveyor

import (
	"context"
	"net/http"
	"strconv"

	"cancelbot/src/logger"
	"cancelbot/src/provider"
)

// Options configures the AppVeyor backend.
type Options struct {
	Token       string
	Branch      string
	Account     string // defaults to the repository name
	HistorySize int
	BaseURL     string
	HTTPClient  *http.Client
	Logger      logger.Logger
}

// Backend implements provider.Backend for AppVeyor
type Backend struct {
	client      *Client
	token       string
	branch      string
	account     string
	historySize int
}

// NewBackend creates an AppVeyor backend. It is disabled when no token is set.
func NewBackend(opts Options) *Backend {
	size := opts.HistorySize
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &Backend{
		client:      NewClient(opts.Token, opts.BaseURL, opts.HTTPClient, opts.Logger),
		token:       opts.Token,
		branch:      opts.Branch,
		account:     opts.Account,
		historySize: size,
	}
}

func (b *Backend) Name() string {
	return provider.AppVeyor
}

func (b *Backend) Enabled() bool {
	return b.token != ""
}

// accountFor returns the configured account, falling back to the repository name.
func (b *Backend) accountFor(repo provider.Repo) string {
	if b.account != "" {
		return b.account
	}
	return repo.Name
}

// ListBuilds returns the branch history. Filtering happens server-side.
func (b *Backend) ListBuilds(ctx context.Context, repo provider.Repo) ([]provider.Build, error) {
	history, err := b.client.GetHistory(ctx, b.accountFor(repo), repo.Name, b.branch, b.historySize)
	if err != nil {
		return nil, err
	}

	builds := make([]provider.Build, 0, len(history.Builds))
	for _, ab := range history.Builds {
		builds = append(builds, toBuild(ab))
	}
	return builds, nil
}

// Inspect fetches the branch tip build. The returned build may be newer than
// latest if a build started after the history was listed.
func (b *Backend) Inspect(ctx context.Context, repo provider.Repo, _ provider.Build) (*provider.Inspection, error) {
	last, err := b.client.GetBranchBuild(ctx, b.accountFor(repo), repo.Name, b.branch)
	if err != nil {
		return nil, err
	}

	jobs := make([]provider.Job, 0, len(last.Build.Jobs))
	for _, j := range last.Build.Jobs {
		jobs = append(jobs, provider.Job{ID: j.JobID, Name: j.Name, State: j.Status})
	}

	return &provider.Inspection{Build: toBuild(last.Build), Jobs: jobs}, nil
}

// CancelBuild deletes the build addressed by its version.
func (b *Backend) CancelBuild(ctx context.Context, repo provider.Repo, build provider.Build) error {
	return b.client.CancelBuild(ctx, b.accountFor(repo), repo.Name, build.Version)
}

func toBuild(ab Build) provider.Build {
	return provider.Build{
		ID:        strconv.FormatInt(ab.BuildID, 10),
		Number:    ab.BuildNumber,
		Version:   ab.Version,
		Status:    mapStatus(ab.Status),
		RawStatus: ab.Status,
	}
}

// mapStatus maps an AppVeyor build status. Only success, failed and cancelled are terminal.
func mapStatus(status string) provider.Status {
	switch status {
	case "success":
		return provider.StatusSucceeded
	case "failed":
		return provider.StatusFailed
	case "cancelled":
		return provider.StatusCancelled
	case "queued":
		return provider.StatusQueued
	}
	return provider.StatusRunning
}
