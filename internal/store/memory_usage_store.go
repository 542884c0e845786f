package store

import (
	"context"
	"errors"
	"sync"

	"github.com/dunamismax/pixelconvert/internal/domain"
)

var ErrMissingUsageID = errors.New("usage id is required")

// MemoryUsageStore keeps running totals plus the most recent logs, bounded
// by limit.
type MemoryUsageStore struct {
	mu     sync.RWMutex
	limit  int
	recent []domain.UsageLog
	totals domain.UsageTotals
}

func NewMemoryUsageStore(limit int) *MemoryUsageStore {
	if limit <= 0 {
		limit = 1000
	}
	return &MemoryUsageStore{limit: limit}
}

func (s *MemoryUsageStore) Record(_ context.Context, usage domain.UsageLog) error {
	if usage.ID == "" {
		return ErrMissingUsageID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.totals.Add(usage)
	s.recent = append(s.recent, usage)
	if len(s.recent) > s.limit {
		s.recent = append(s.recent[:0:0], s.recent[len(s.recent)-s.limit:]...)
	}
	return nil
}

func (s *MemoryUsageStore) Totals(_ context.Context) (domain.UsageTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals, nil
}

// Recent returns a copy of the retained logs, oldest first.
func (s *MemoryUsageStore) Recent() []domain.UsageLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.UsageLog(nil), s.recent...)
}
