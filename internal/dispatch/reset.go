package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/BoweryJG/BoweryCreative-backend/internal/pool"
	"go.uber.org/zap"
)

// ResetLoop zeroes every quota counter at local midnight. The reset is
// idempotent and safe to run against in-flight increments; a racing send may
// be miscounted by at most one message, which is accepted.
type ResetLoop struct {
	quota  pool.QuotaStore
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
	after  func(d time.Duration) <-chan time.Time
}

func NewResetLoop(quota pool.QuotaStore, loc *time.Location, logger *zap.Logger) (*ResetLoop, error) {
	if quota == nil {
		return nil, fmt.Errorf("quota store is required")
	}
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ResetLoop{
		quota:  quota,
		loc:    loc,
		logger: logger,
		now:    time.Now,
		after:  time.After,
	}, nil
}

// Start sleeps until each upcoming midnight boundary and resets all
// counters, until context cancellation.
func (l *ResetLoop) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		wait := l.untilNextReset()
		select {
		case <-ctx.Done():
			return nil
		case <-l.after(wait):
			if err := l.quota.ResetAll(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				l.logger.Error("daily quota reset failed", zap.Error(err))
				continue
			}
			l.logger.Info("daily quota counters reset")
		}
	}
}

func (l *ResetLoop) untilNextReset() time.Duration {
	now := l.now().In(l.loc)
	year, month, day := now.Date()
	next := time.Date(year, month, day+1, 0, 0, 0, 0, l.loc)
	return next.Sub(now)
}
