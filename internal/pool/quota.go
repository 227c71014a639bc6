package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
)

// QuotaStore tracks per-account daily usage. Increment is only called after
// a confirmed successful send, so the quota ceiling holds as long as the
// selector admits only accounts with remaining capacity. ResetAll is invoked
// by the daily reset loop at local midnight; a reset racing an in-flight
// increment may miscount by at most one message.
type QuotaStore interface {
	Increment(ctx context.Context, address string) error
	SentToday(ctx context.Context, address string) (int, error)
	Remaining(ctx context.Context, address string) (int, error)
	ResetAll(ctx context.Context) error
}

// MemoryQuotaStore is the in-process QuotaStore. Counters are guarded by a
// mutex shared across all dispatch paths; there is no external writer.
type MemoryQuotaStore struct {
	mu     sync.Mutex
	quotas map[string]int
	sent   map[string]int
}

func NewMemoryQuotaStore(accounts []domain.SendingAccount) *MemoryQuotaStore {
	s := &MemoryQuotaStore{
		quotas: make(map[string]int, len(accounts)),
		sent:   make(map[string]int, len(accounts)),
	}
	for _, account := range accounts {
		s.quotas[account.Address] = account.DailyQuota
	}
	return s
}

func (s *MemoryQuotaStore) Increment(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quotas[address]; !ok {
		return fmt.Errorf("%w: unknown account %q", domain.ErrNotFound, address)
	}

	s.sent[address]++
	return nil
}

func (s *MemoryQuotaStore) SentToday(_ context.Context, address string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quotas[address]; !ok {
		return 0, fmt.Errorf("%w: unknown account %q", domain.ErrNotFound, address)
	}
	return s.sent[address], nil
}

func (s *MemoryQuotaStore) Remaining(_ context.Context, address string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quota, ok := s.quotas[address]
	if !ok {
		return 0, fmt.Errorf("%w: unknown account %q", domain.ErrNotFound, address)
	}

	remaining := quota - s.sent[address]
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// ResetAll zeroes every counter. Idempotent; last writer wins against
// concurrent increments.
func (s *MemoryQuotaStore) ResetAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for address := range s.sent {
		delete(s.sent, address)
	}
	return nil
}
