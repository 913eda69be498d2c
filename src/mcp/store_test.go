package mcp

import (
	"strconv"
	"testing"

	"cancelbot/src/orchestrator"
)

func TestRunStore(t *testing.T) {
	store := NewRunStore(2)

	if _, found := store.Latest(); found {
		t.Error("Latest() on empty store should not find anything")
	}

	for i := 1; i <= 3; i++ {
		store.Store(&orchestrator.Report{RunID: "run-" + strconv.Itoa(i)})
	}

	// Oldest run evicted
	if _, found := store.Get("run-1"); found {
		t.Error("Get() expected run-1 to be evicted")
	}
	if r, found := store.Get("run-2"); !found || r.RunID != "run-2" {
		t.Errorf("Get(run-2) = %v, %v", r, found)
	}

	latest, found := store.Latest()
	if !found || latest.RunID != "run-3" {
		t.Errorf("Latest() = %v, %v, want run-3", latest, found)
	}
}

func TestRunStore_ReplaceKeepsOrder(t *testing.T) {
	store := NewRunStore(2)
	store.Store(&orchestrator.Report{RunID: "a"})
	store.Store(&orchestrator.Report{RunID: "b"})
	store.Store(&orchestrator.Report{RunID: "a", Branch: "auto"})

	if r, _ := store.Get("a"); r.Branch != "auto" {
		t.Errorf("Get(a).Branch = %q, want replaced report", r.Branch)
	}
	if _, found := store.Get("b"); !found {
		t.Error("replacing a report should not evict others")
	}
	if latest, _ := store.Latest(); latest.RunID != "b" {
		t.Errorf("Latest() = %s, want b", latest.RunID)
	}
}
