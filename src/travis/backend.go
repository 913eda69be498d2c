package travis

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"cancelbot/src/httpclient"
	"cancelbot/src/logger"
	"cancelbot/src/provider"
)

// Options configures the Travis backend.
type Options struct {
	Token      string
	Branch     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     logger.Logger
}

// Backend implements provider.Backend for Travis CI
type Backend struct {
	client *Client
	token  string
	branch string
}

// NewBackend creates a Travis backend. It is disabled when no token is set.
func NewBackend(opts Options) *Backend {
	return &Backend{
		client: NewClient(opts.Token, opts.BaseURL, opts.HTTPClient, opts.Logger),
		token:  opts.Token,
		branch: opts.Branch,
	}
}

// Name returns "travis"
func (b *Backend) Name() string {
	return provider.Travis
}

func (b *Backend) Enabled() bool {
	return b.token != ""
}

// ListBuilds returns the builds whose commit belongs to the run's branch.
// Builds referencing a commit missing from the response are dropped.
func (b *Backend) ListBuilds(ctx context.Context, repo provider.Repo) ([]provider.Build, error) {
	list, err := b.client.GetBuilds(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, err
	}

	branches := make(map[int64]string, len(list.Commits))
	for _, c := range list.Commits {
		branches[c.ID] = c.Branch
	}

	builds := make([]provider.Build, 0, len(list.Builds))
	for _, tb := range list.Builds {
		branch, ok := branches[tb.CommitID]
		if !ok || branch != b.branch {
			continue
		}
		build, err := toBuild(tb)
		if err != nil {
			return nil, &httpclient.DecodeError{
				URL:  b.client.http.URL(fmt.Sprintf("/repos/%s/%s/builds", repo.Owner, repo.Name)),
				Body: tb.Number,
				Err:  err,
			}
		}
		builds = append(builds, build)
	}

	return builds, nil
}

// Inspect fetches the latest build again together with its jobs.
func (b *Backend) Inspect(ctx context.Context, repo provider.Repo, latest provider.Build) (*provider.Inspection, error) {
	id, err := strconv.ParseInt(latest.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid travis build id %q: %w", latest.ID, err)
	}

	detail, err := b.client.GetBuild(ctx, id)
	if err != nil {
		return nil, err
	}

	build, err := toBuild(detail.Build)
	if err != nil {
		return nil, &httpclient.DecodeError{URL: b.client.http.URL(fmt.Sprintf("/builds/%d", id)), Body: detail.Build.Number, Err: err}
	}

	jobs := make([]provider.Job, 0, len(detail.Jobs))
	for _, j := range detail.Jobs {
		jobs = append(jobs, provider.Job{
			ID:    strconv.FormatInt(j.ID, 10),
			State: j.State,
		})
	}

	return &provider.Inspection{Build: build, Jobs: jobs}, nil
}

// CancelBuild posts to the build's cancel endpoint.
func (b *Backend) CancelBuild(ctx context.Context, repo provider.Repo, build provider.Build) error {
	id, err := strconv.ParseInt(build.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid travis build id %q: %w", build.ID, err)
	}
	return b.client.CancelBuild(ctx, id)
}

func toBuild(tb Build) (provider.Build, error) {
	number, err := strconv.ParseInt(tb.Number, 10, 64)
	if err != nil {
		return provider.Build{}, fmt.Errorf("invalid build number %q: %w", tb.Number, err)
	}
	return provider.Build{
		ID:        strconv.FormatInt(tb.ID, 10),
		Number:    number,
		Status:    mapTravisState(tb.State),
		RawStatus: tb.State,
	}, nil
}

// mapTravisState maps a Travis build state to the normalized status.
// Only passed, failed, errored and canceled are terminal.
func mapTravisState(state string) provider.Status {
	switch state {
	case "passed":
		return provider.StatusSucceeded
	case "failed", "errored":
		return provider.StatusFailed
	case "canceled":
		return provider.StatusCancelled
	case "created", "queued", "received":
		return provider.StatusQueued
	}
	return provider.StatusRunning
}
