// Package policy decides which in-flight builds of a repository to cancel.
//
// Every function here is pure: the same snapshot always yields the same plan.
package policy

import (
	"strconv"

	"cancelbot/src/provider"
)

// Reasons attached to a cancellation.
const (
	ReasonStale     = "stale"
	ReasonJobFailed = "job-failed"
)

// Plan is the outcome of Select for one repository on one backend.
type Plan struct {
	// Stale builds are superseded by a newer build on the branch and are cancelled unconditionally.
	Stale []provider.Build
	// Latest is the newest build when it is still in flight; its jobs decide its fate.
	Latest *provider.Build
}

// Empty reports whether the plan asks for no work at all.
func (p Plan) Empty() bool {
	return len(p.Stale) == 0 && p.Latest == nil
}

// Select builds a plan from the branch-filtered builds of one repository.
//
// The latest build is the one with the highest ordering key, terminal or not.
// When several builds share that key the one with the smallest id is latest and
// the remaining tied builds are left alone.
func Select(builds []provider.Build) Plan {
	var plan Plan
	if len(builds) == 0 {
		return plan
	}

	latest := 0
	for i := 1; i < len(builds); i++ {
		b, cur := builds[i], builds[latest]
		if b.Number > cur.Number || (b.Number == cur.Number && lessID(b.ID, cur.ID)) {
			latest = i
		}
	}
	max := builds[latest].Number

	for _, b := range builds {
		if b.Status.Terminal() {
			continue
		}
		if b.Number < max {
			plan.Stale = append(plan.Stale, b)
		}
	}

	if !builds[latest].Status.Terminal() {
		b := builds[latest]
		plan.Latest = &b
	}

	return plan
}

// lessID orders build ids numerically when both are numbers, lexically otherwise.
func lessID(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
