package azure

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"cancelbot/src/logger"
	"cancelbot/src/provider"
)

// Options configures the Azure Pipelines backend.
type Options struct {
	Token        string
	Branch       string
	Organization string // defaults to the repository owner
	BaseURL      string
	HTTPClient   *http.Client
	Logger       logger.Logger
}

// Backend implements provider.Backend for Azure Pipelines.
// Build ids double as the ordering key.
type Backend struct {
	client *Client
	token  string
	branch string
	org    string
}

// NewBackend creates an Azure Pipelines backend. It is disabled when no token is set.
func NewBackend(opts Options) *Backend {
	return &Backend{
		client: NewClient(opts.Token, opts.BaseURL, opts.HTTPClient, opts.Logger),
		token:  opts.Token,
		branch: opts.Branch,
		org:    opts.Organization,
	}
}

func (b *Backend) Name() string {
	return provider.Azure
}

func (b *Backend) Enabled() bool {
	return b.token != ""
}

func (b *Backend) orgFor(repo provider.Repo) string {
	if b.org != "" {
		return b.org
	}
	return repo.Owner
}

// ListBuilds returns the builds of the branch. The API lists newest first
// but nothing here relies on that order.
func (b *Backend) ListBuilds(ctx context.Context, repo provider.Repo) ([]provider.Build, error) {
	list, err := b.client.ListBuilds(ctx, b.orgFor(repo), repo.Name, repo.String(), b.branch)
	if err != nil {
		return nil, err
	}

	builds := make([]provider.Build, 0, len(list.Value))
	for _, ab := range list.Value {
		builds = append(builds, provider.Build{
			ID:          strconv.FormatInt(ab.ID, 10),
			Number:      ab.ID,
			Version:     ab.BuildNumber,
			Status:      mapStatus(ab.Status, ab.Result),
			RawStatus:   ab.Status,
			TimelineURL: ab.Links.Timeline.Href,
		})
	}
	return builds, nil
}

// Inspect fetches the timeline records of the latest build.
func (b *Backend) Inspect(ctx context.Context, repo provider.Repo, latest provider.Build) (*provider.Inspection, error) {
	href := latest.TimelineURL
	if href == "" {
		id, err := parseID(latest.ID)
		if err != nil {
			return nil, err
		}
		href = TimelinePath(b.orgFor(repo), repo.Name, id)
	}

	timeline, err := b.client.GetTimeline(ctx, href)
	if err != nil {
		return nil, err
	}

	jobs := make([]provider.Job, 0, len(timeline.Records))
	for _, r := range timeline.Records {
		jobs = append(jobs, provider.Job{
			ID:     r.ID,
			Name:   r.Name,
			Kind:   r.Type,
			State:  r.State,
			Result: r.Result,
		})
	}

	return &provider.Inspection{Build: latest, Jobs: jobs}, nil
}

// CancelBuild patches the build status to Cancelling.
func (b *Backend) CancelBuild(ctx context.Context, repo provider.Repo, build provider.Build) error {
	id, err := parseID(build.ID)
	if err != nil {
		return err
	}
	return b.client.CancelBuild(ctx, b.orgFor(repo), repo.Name, id)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid azure build id %q: %w", s, err)
	}
	return id, nil
}

// mapStatus maps an Azure build status and result. Only cancelling and
// completed builds are terminal.
func mapStatus(status, result string) provider.Status {
	switch status {
	case "completed":
		switch result {
		case "failed":
			return provider.StatusFailed
		case "canceled":
			return provider.StatusCancelled
		}
		return provider.StatusSucceeded
	case "cancelling":
		return provider.StatusCancelled
	case "notStarted", "postponed":
		return provider.StatusQueued
	}
	return provider.StatusRunning
}
