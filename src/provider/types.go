package provider

import (
	"fmt"
	"strings"
)

// Repo identifies a tracked repository.
type Repo struct {
	Owner string
	Name  string
}

// ParseRepo parses an "owner/name" pair.
func ParseRepo(s string) (Repo, error) {
	owner, name, ok := strings.Cut(s, "/")
	if !ok || owner == "" || name == "" {
		return Repo{}, fmt.Errorf("%w: %q", ErrInvalidRepo, s)
	}
	return Repo{Owner: owner, Name: name}, nil
}

func (r Repo) String() string {
	return r.Owner + "/" + r.Name
}

// Status is a build state normalized across backends.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transition can happen.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Build is a snapshot of one CI build, fetched fresh every run.
type Build struct {
	ID          string // backend identifier used to address the build
	Number      int64  // ordering key, increasing per repo
	Version     string // AppVeyor build version, used in its cancel URL
	Status      Status
	RawStatus   string // status exactly as the backend reported it
	TimelineURL string // Azure timeline link, empty elsewhere
}

func (b Build) String() string {
	return fmt.Sprintf("#%d (%s)", b.Number, b.RawStatus)
}

// Job is a sub-unit of a build: a Travis job, an AppVeyor job or an Azure timeline record.
type Job struct {
	ID     string
	Name   string
	Kind   string // Azure record type ("Job", "Stage", "Task"...)
	State  string // Travis state / AppVeyor status
	Result string // Azure result, empty while running
}

// Inspection is the job-level detail of a repository's latest build.
// Build is the build the jobs belong to, which may be fresher than the listed one.
type Inspection struct {
	Build Build
	Jobs  []Job
}
