package dispatch

import (
	"context"
	"time"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
	"go.uber.org/zap"
)

// DefaultBulkDelay is the inter-message pause used when the caller does not
// supply one. It keeps sending patterns smooth enough to stay off
// provider-side abuse radars.
const DefaultBulkDelay = 5 * time.Second

// BulkItemOutcome is the per-request result of a bulk send, positioned by
// the originating index in the input slice.
type BulkItemOutcome struct {
	Index  int
	Result *domain.SendResult
	Err    error
}

// SendBulk sends an ordered sequence of independent requests with a fixed
// delay between items (skipped after the last one). One item's failure is
// recorded and the sequencer moves on; partial success is the expected
// outcome, reported item by item.
//
// Sends are deliberately sequential. Parallel sends would defeat the
// round-robin fairness of the selector cursor and could trip provider abuse
// detection.
func (e *Engine) SendBulk(ctx context.Context, requests []domain.SendRequest, delay time.Duration) []BulkItemOutcome {
	if ctx == nil {
		ctx = context.Background()
	}
	if delay < 0 {
		delay = e.defaultBulkDelay()
	}

	outcomes := make([]BulkItemOutcome, 0, len(requests))
	for i := range requests {
		result, err := e.Dispatch(ctx, &requests[i])
		outcomes = append(outcomes, BulkItemOutcome{
			Index:  i,
			Result: result,
			Err:    err,
		})
		if err != nil {
			e.logger.Warn("bulk item failed",
				zap.Int("index", i),
				zap.Error(err),
			)
		}
		if e.metrics != nil {
			outcome := "success"
			if err != nil {
				outcome = "failure"
			}
			e.metrics.IncBulkItem(outcome)
		}

		if i < len(requests)-1 && delay > 0 {
			// A canceled context cuts the pause short; the remaining items
			// still run and fail fast on their own transport calls.
			_ = e.sleep(ctx, delay)
		}
	}

	return outcomes
}

func (e *Engine) defaultBulkDelay() time.Duration {
	if e.bulkDelay > 0 {
		return e.bulkDelay
	}
	return DefaultBulkDelay
}
