// Package provider defines the contract shared by all CI backend adapters.
package provider

import (
	"context"
	"errors"
)

var (
	ErrInvalidRepo    = errors.New("invalid repository, expected owner/name")
	ErrBackendUnknown = errors.New("unknown CI backend")
)

// Backend names.
const (
	Travis   = "travis"
	AppVeyor = "appveyor"
	Azure    = "azure"
)

// Backend translates orchestration intents into one CI system's API.
type Backend interface {
	// Name returns the backend name (e.g., "travis", "appveyor")
	Name() string

	// Enabled reports whether a token was configured; disabled backends are never called
	Enabled() bool

	// ListBuilds returns the builds of repo that belong to the run's branch
	ListBuilds(ctx context.Context, repo Repo) ([]Build, error)

	// Inspect fetches the jobs of the latest build
	Inspect(ctx context.Context, repo Repo, latest Build) (*Inspection, error)

	// CancelBuild requests cancellation of build
	CancelBuild(ctx context.Context, repo Repo, build Build) error
}
