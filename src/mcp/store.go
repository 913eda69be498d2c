package mcp

import (
	"sync"

	"cancelbot/src/orchestrator"
)

// DefaultStoreSize is the number of runs kept for get_run.
const DefaultStoreSize = 20

// RunStore keeps the most recent reports in memory, oldest evicted first.
type RunStore struct {
	mu    sync.RWMutex
	size  int
	order []string
	runs  map[string]*orchestrator.Report
}

// NewRunStore creates a store holding up to size runs.
func NewRunStore(size int) *RunStore {
	if size <= 0 {
		size = DefaultStoreSize
	}
	return &RunStore{
		size: size,
		runs: make(map[string]*orchestrator.Report),
	}
}

// Store saves a report under its run ID.
func (s *RunStore) Store(report *orchestrator.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[report.RunID]; !ok {
		s.order = append(s.order, report.RunID)
	}
	s.runs[report.RunID] = report

	for len(s.order) > s.size {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

// Get returns the report of runID.
func (s *RunStore) Get(runID string) (*orchestrator.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[runID]
	return r, ok
}

// Latest returns the most recently stored report.
func (s *RunStore) Latest() (*orchestrator.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return nil, false
	}
	return s.runs[s.order[len(s.order)-1]], true
}
