package policy

import (
	"fmt"

	"cancelbot/src/provider"
)

// JobRule reports whether a job of the latest build has already failed.
type JobRule func(job provider.Job) bool

// TravisJobFailed matches jobs that failed, errored or were cancelled.
func TravisJobFailed(job provider.Job) bool {
	switch job.State {
	case "failed", "errored", "canceled":
		return true
	}
	return false
}

// AppVeyorJobFailed matches any job that is not succeeding or still on its way.
func AppVeyorJobFailed(job provider.Job) bool {
	switch job.State {
	case "success", "queued", "starting", "running":
		return false
	}
	return true
}

// AzureRecordFailed matches timeline records of type Job whose result is failed.
func AzureRecordFailed(job provider.Job) bool {
	return job.Kind == "Job" && job.Result == "failed"
}

// RuleFor returns the job rule used by the named backend.
func RuleFor(backend string) (JobRule, error) {
	switch backend {
	case provider.Travis:
		return TravisJobFailed, nil
	case provider.AppVeyor:
		return AppVeyorJobFailed, nil
	case provider.Azure:
		return AzureRecordFailed, nil
	}
	return nil, fmt.Errorf("%w: %s", provider.ErrBackendUnknown, backend)
}

// FirstFailed returns the first job matching rule.
func FirstFailed(rule JobRule, jobs []provider.Job) (provider.Job, bool) {
	for _, job := range jobs {
		if rule(job) {
			return job, true
		}
	}
	return provider.Job{}, false
}

// ShouldCancelLatest decides whether the inspected latest build must be cancelled.
// A build that became terminal in the meantime is never cancelled.
func ShouldCancelLatest(rule JobRule, inspection *provider.Inspection) (provider.Job, bool) {
	if inspection == nil || inspection.Build.Status.Terminal() {
		return provider.Job{}, false
	}
	return FirstFailed(rule, inspection.Jobs)
}
