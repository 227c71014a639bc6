package dispatch

import (
	"context"
	"fmt"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
)

// Stats returns a point-in-time capacity snapshot across the pool and relay.
func (e *Engine) Stats(ctx context.Context) (*domain.DispatchStats, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	accounts := e.pool.Accounts()
	stats := &domain.DispatchStats{
		Accounts:       make([]domain.AccountUsage, 0, len(accounts)),
		RelayAvailable: e.RelayAvailable(),
	}

	totalCapacity := 0
	for _, account := range accounts {
		sent, err := e.quota.SentToday(ctx, account.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to read usage for %s: %w", account.Address, err)
		}
		remaining, err := e.quota.Remaining(ctx, account.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to read remaining quota for %s: %w", account.Address, err)
		}

		stats.Accounts = append(stats.Accounts, domain.AccountUsage{
			Address:    account.Address,
			Class:      account.Class,
			DailyQuota: account.DailyQuota,
			SentToday:  sent,
			Remaining:  remaining,
		})
		stats.TotalSentToday += sent
		totalCapacity += account.DailyQuota
	}

	stats.TotalCapacity = totalCapacity
	if stats.RelayAvailable {
		stats.TotalCapacity = domain.UnlimitedQuota
	}

	return stats, nil
}
