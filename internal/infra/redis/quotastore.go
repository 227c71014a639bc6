package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
	"github.com/BoweryJG/BoweryCreative-backend/internal/pool"
	goredis "github.com/redis/go-redis/v9"
)

// incrScript bumps the daily counter and pins its expiry to the reset
// boundary on first use.
var incrScript = goredis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIREAT", KEYS[1], ARGV[1])
end
return current
`)

var _ pool.QuotaStore = (*RedisQuotaStore)(nil)

// RedisQuotaStore is a QuotaStore whose counters live in Redis under
// per-account daily keys, so multiple orchestrator replicas share one quota
// budget. Keys expire at local midnight, which doubles as a safety net if
// the reset loop misses a boundary.
type RedisQuotaStore struct {
	client *goredis.Client
	quotas map[string]int
	now    func() time.Time
	loc    *time.Location
}

func NewRedisQuotaStore(client *goredis.Client, accounts []domain.SendingAccount, loc *time.Location) (*RedisQuotaStore, error) {
	return newRedisQuotaStore(client, accounts, time.Now, loc)
}

func newRedisQuotaStore(
	client *goredis.Client,
	accounts []domain.SendingAccount,
	nowFn func() time.Time,
	loc *time.Location,
) (*RedisQuotaStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if loc == nil {
		loc = time.Local
	}

	quotas := make(map[string]int, len(accounts))
	for _, account := range accounts {
		quotas[account.Address] = account.DailyQuota
	}

	return &RedisQuotaStore{
		client: client,
		quotas: quotas,
		now:    nowFn,
		loc:    loc,
	}, nil
}

func (s *RedisQuotaStore) Increment(ctx context.Context, address string) error {
	if err := s.check(address); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	expireAt := nextMidnight(s.now().In(s.loc)).Unix()
	if err := incrScript.Run(ctx, s.client, []string{s.key(address)}, expireAt).Err(); err != nil {
		return fmt.Errorf("failed to increment quota counter: %w", err)
	}
	return nil
}

func (s *RedisQuotaStore) SentToday(ctx context.Context, address string) (int, error) {
	if err := s.check(address); err != nil {
		return 0, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sent, err := s.client.Get(ctx, s.key(address)).Int()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read quota counter: %w", err)
	}
	return sent, nil
}

func (s *RedisQuotaStore) Remaining(ctx context.Context, address string) (int, error) {
	sent, err := s.SentToday(ctx, address)
	if err != nil {
		return 0, err
	}

	remaining := s.quotas[address] - sent
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *RedisQuotaStore) ResetAll(ctx context.Context) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("quota store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	keys := make([]string, 0, len(s.quotas))
	for address := range s.quotas {
		keys = append(keys, s.key(address))
	}
	if len(keys) == 0 {
		return nil
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset quota counters: %w", err)
	}
	return nil
}

func (s *RedisQuotaStore) check(address string) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("quota store is not initialized")
	}
	if _, ok := s.quotas[address]; !ok {
		return fmt.Errorf("%w: unknown account %q", domain.ErrNotFound, address)
	}
	return nil
}

func (s *RedisQuotaStore) key(address string) string {
	day := s.now().In(s.loc).Format("2006-01-02")
	return fmt.Sprintf("quota:sent:%s:%s", address, day)
}

func nextMidnight(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day+1, 0, 0, 0, 0, t.Location())
}
