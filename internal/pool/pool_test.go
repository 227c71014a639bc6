package pool

import (
	"errors"
	"testing"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
	"go.uber.org/zap"
)

func validConfig(address string) AccountConfig {
	return AccountConfig{
		Address:  address,
		Host:     "smtp.agency.test",
		Port:     587,
		Password: "secret",
	}
}

func TestNewAccountPoolClassifiesByWorkspaceDomain(t *testing.T) {
	t.Parallel()

	policy := QuotaPolicy{WorkspaceDomain: "agency.test"}
	pool, err := NewAccountPool([]AccountConfig{
		validConfig("inhouse@agency.test"),
		validConfig("freelance@partner.test"),
	}, policy, zap.NewNop())
	if err != nil {
		t.Fatalf("NewAccountPool() error = %v", err)
	}

	accounts := pool.Accounts()
	if len(accounts) != 2 {
		t.Fatalf("pool size = %d, want 2", len(accounts))
	}
	if accounts[0].Class != domain.ClassHighVolume {
		t.Fatalf("workspace account class = %s, want HIGH_VOLUME", accounts[0].Class)
	}
	if accounts[0].DailyQuota != defaultHighVolumeQuota {
		t.Fatalf("workspace quota = %d, want %d", accounts[0].DailyQuota, defaultHighVolumeQuota)
	}
	if accounts[1].Class != domain.ClassStandard {
		t.Fatalf("external account class = %s, want STANDARD", accounts[1].Class)
	}
	if accounts[1].DailyQuota != defaultStandardQuota {
		t.Fatalf("external quota = %d, want %d", accounts[1].DailyQuota, defaultStandardQuota)
	}
}

func TestNewAccountPoolHonorsOverrides(t *testing.T) {
	t.Parallel()

	cfg := validConfig("vip@partner.test")
	cfg.Class = "high_volume"
	cfg.DailyQuota = 42

	pool, err := NewAccountPool([]AccountConfig{cfg}, QuotaPolicy{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewAccountPool() error = %v", err)
	}

	account := pool.Accounts()[0]
	if account.Class != domain.ClassHighVolume {
		t.Fatalf("class = %s, want HIGH_VOLUME", account.Class)
	}
	if account.DailyQuota != 42 {
		t.Fatalf("quota = %d, want 42", account.DailyQuota)
	}
}

func TestNewAccountPoolSkipsMalformedAndDuplicateEntries(t *testing.T) {
	t.Parallel()

	missingHost := AccountConfig{Address: "nohost@agency.test", Password: "secret"}
	pool, err := NewAccountPool([]AccountConfig{
		validConfig("a@agency.test"),
		missingHost,
		validConfig("a@agency.test"),
	}, QuotaPolicy{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewAccountPool() error = %v", err)
	}

	if pool.Size() != 1 {
		t.Fatalf("pool size = %d, want 1", pool.Size())
	}
}

func TestNewAccountPoolEmpty(t *testing.T) {
	t.Parallel()

	pool, err := NewAccountPool(nil, QuotaPolicy{}, zap.NewNop())
	if !errors.Is(err, domain.ErrNoAccountsConfigured) {
		t.Fatalf("NewAccountPool() error = %v, want ErrNoAccountsConfigured", err)
	}
	if pool == nil {
		t.Fatal("expected a usable pool even when empty")
	}
	if pool.Size() != 0 {
		t.Fatalf("pool size = %d, want 0", pool.Size())
	}
}

func TestAccountPoolTransportLookup(t *testing.T) {
	t.Parallel()

	pool, err := NewAccountPool([]AccountConfig{validConfig("a@agency.test")}, QuotaPolicy{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewAccountPool() error = %v", err)
	}

	if _, ok := pool.Transport("a@agency.test"); !ok {
		t.Fatal("expected transport for configured account")
	}
	if _, ok := pool.Transport("ghost@agency.test"); ok {
		t.Fatal("unexpected transport for unknown account")
	}
}
