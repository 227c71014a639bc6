package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
)

// Selector hands out the next eligible sending account in round-robin order.
// The cursor always advances past the returned account so consecutive sends
// fan out across the pool instead of draining one account to its limit, and
// so a failing account is not retried on the very next call.
type Selector struct {
	accounts AccountLister
	quota    QuotaStore

	mu     sync.Mutex
	cursor int
}

func NewSelector(accounts AccountLister, quota QuotaStore) (*Selector, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account lister is required")
	}
	if quota == nil {
		return nil, fmt.Errorf("quota store is required")
	}

	return &Selector{
		accounts: accounts,
		quota:    quota,
	}, nil
}

// Next returns the first account at or after the cursor with remaining quota
// and advances the cursor to the position after it. A full cycle without an
// eligible account reports domain.ErrPoolExhausted, as does an empty pool.
// An account one message under quota is exactly as eligible as an untouched
// one; this is fairness-oriented rotation, not priority.
func (s *Selector) Next(ctx context.Context) (domain.SendingAccount, error) {
	accounts := s.accounts.Accounts()
	size := len(accounts)
	if size == 0 {
		return domain.SendingAccount{}, domain.ErrPoolExhausted
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < size; i++ {
		idx := (s.cursor + i) % size
		account := accounts[idx]

		remaining, err := s.quota.Remaining(ctx, account.Address)
		if err != nil {
			return domain.SendingAccount{}, fmt.Errorf("failed to read remaining quota for %s: %w", account.Address, err)
		}
		if remaining > 0 {
			s.cursor = (idx + 1) % size
			return account, nil
		}
	}

	return domain.SendingAccount{}, domain.ErrPoolExhausted
}
