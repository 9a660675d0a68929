// Package memory is an in-process report store, used for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"salaryreport/internal/core"
)

type Store struct {
	mu    sync.RWMutex
	items []core.StoredReport
	byID  map[string]int
	now   func() time.Time
}

func New() *Store {
	return &Store{byID: make(map[string]int), now: time.Now}
}

// Insert appends the report under a fresh id.
func (s *Store) Insert(_ context.Context, report core.SalaryReport, input core.SalaryInput, sourceAddress string) (core.StoredReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := core.StoredReport{
		ID:            core.NewReportID(),
		CreatedAt:     s.now().UTC(),
		SalaryReport:  report,
		Input:         input,
		SourceAddress: sourceAddress,
	}
	s.byID[rec.ID] = len(s.items)
	s.items = append(s.items, rec)
	return rec, nil
}

// ListRecent walks the slice backwards; insertion order breaks created_at ties.
func (s *Store) ListRecent(_ context.Context, limit int) ([]core.StoredReport, error) {
	limit = core.ClampLimit(limit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := make([]int, len(s.items))
	for i := range idx {
		idx[i] = len(s.items) - 1 - i
	}
	// Clocks can step backwards; created_at ordering wins over insertion order.
	sort.SliceStable(idx, func(a, b int) bool {
		return s.items[idx[a]].CreatedAt.After(s.items[idx[b]].CreatedAt)
	})

	if len(idx) > limit {
		idx = idx[:limit]
	}
	out := make([]core.StoredReport, len(idx))
	for i, j := range idx {
		out[i] = s.items[j]
	}
	return out, nil
}

func (s *Store) GetByID(_ context.Context, id string) (core.StoredReport, error) {
	key, err := core.CanonicalReportID(id)
	if err != nil {
		return core.StoredReport{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[key]
	if !ok {
		return core.StoredReport{}, core.NotFound(key)
	}
	return s.items[i], nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Len returns the number of stored reports.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
