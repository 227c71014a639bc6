package pool

import (
	"strings"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
	"github.com/BoweryJG/BoweryCreative-backend/internal/mailer"
	"go.uber.org/zap"
)

const (
	defaultStandardQuota   = 500
	defaultHighVolumeQuota = 2000
)

// AccountConfig is one sending identity as supplied by configuration.
type AccountConfig struct {
	Address  string `json:"address"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
	// Class overrides the workspace-domain classification ("standard" or
	// "high_volume"). Empty means classify by address domain.
	Class string `json:"class,omitempty"`
	// DailyQuota overrides the class default when positive.
	DailyQuota int    `json:"dailyQuota,omitempty"`
	TLSMode    string `json:"tlsMode,omitempty"`
}

// QuotaPolicy assigns daily quotas to accounts at load time. Accounts whose
// address belongs to the workspace domain get the high-volume quota; everyone
// else gets the standard quota. Both are overridable per account.
type QuotaPolicy struct {
	WorkspaceDomain string
	StandardQuota   int
	HighVolumeQuota int
}

func (p QuotaPolicy) withDefaults() QuotaPolicy {
	if p.StandardQuota <= 0 {
		p.StandardQuota = defaultStandardQuota
	}
	if p.HighVolumeQuota <= 0 {
		p.HighVolumeQuota = defaultHighVolumeQuota
	}
	p.WorkspaceDomain = strings.ToLower(strings.TrimSpace(p.WorkspaceDomain))
	return p
}

// AccountLister exposes the stable, ordered account list. The order
// determines round-robin sequencing for the lifetime of the process.
type AccountLister interface {
	Accounts() []domain.SendingAccount
}

// AccountPool holds the configured sending accounts and owns their SMTP
// transports.
type AccountPool struct {
	accounts   []domain.SendingAccount
	transports map[string]mailer.Transport
}

// NewAccountPool builds the pool from configuration. Malformed entries are
// skipped; if nothing usable remains the pool is still returned alongside
// domain.ErrNoAccountsConfigured so the orchestrator can degrade to
// relay-only operation.
func NewAccountPool(configs []AccountConfig, policy QuotaPolicy, logger *zap.Logger) (*AccountPool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	policy = policy.withDefaults()

	p := &AccountPool{
		transports: make(map[string]mailer.Transport, len(configs)),
	}

	for i, cfg := range configs {
		account, transport, err := buildAccount(cfg, policy)
		if err != nil {
			logger.Warn("skipping misconfigured sending account",
				zap.Int("index", i),
				zap.String("address", cfg.Address),
				zap.Error(err),
			)
			continue
		}

		if _, exists := p.transports[account.Address]; exists {
			logger.Warn("skipping duplicate sending account",
				zap.String("address", account.Address),
			)
			continue
		}

		p.accounts = append(p.accounts, account)
		p.transports[account.Address] = transport
	}

	if len(p.accounts) == 0 {
		return p, domain.ErrNoAccountsConfigured
	}

	return p, nil
}

func buildAccount(cfg AccountConfig, policy QuotaPolicy) (domain.SendingAccount, mailer.Transport, error) {
	class := domain.ClassStandard
	if strings.TrimSpace(cfg.Class) != "" {
		parsed, err := domain.ParseAccountClassFromString(cfg.Class)
		if err != nil {
			return domain.SendingAccount{}, nil, err
		}
		class = parsed
	} else if accountDomain(cfg.Address) == policy.WorkspaceDomain && policy.WorkspaceDomain != "" {
		class = domain.ClassHighVolume
	}

	quota := cfg.DailyQuota
	if quota <= 0 {
		quota = policy.StandardQuota
		if class == domain.ClassHighVolume {
			quota = policy.HighVolumeQuota
		}
	}

	account := domain.SendingAccount{
		Address:    strings.TrimSpace(cfg.Address),
		Class:      class,
		DailyQuota: quota,
	}
	if err := account.Validate(); err != nil {
		return domain.SendingAccount{}, nil, err
	}

	username := cfg.Username
	if strings.TrimSpace(username) == "" {
		username = account.Address
	}

	transport, err := mailer.NewSMTPTransport(mailer.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: username,
		Password: cfg.Password,
		TLSMode:  cfg.TLSMode,
	})
	if err != nil {
		return domain.SendingAccount{}, nil, err
	}

	return account, transport, nil
}

// Accounts returns the ordered account list. Callers must not mutate it.
func (p *AccountPool) Accounts() []domain.SendingAccount {
	if p == nil {
		return nil
	}
	return p.accounts
}

// Transport returns the transport owned by the pool for an account address.
func (p *AccountPool) Transport(address string) (mailer.Transport, bool) {
	if p == nil {
		return nil, false
	}
	t, ok := p.transports[address]
	return t, ok
}

func (p *AccountPool) Size() int {
	if p == nil {
		return 0
	}
	return len(p.accounts)
}

func accountDomain(address string) string {
	idx := strings.LastIndex(address, "@")
	if idx < 0 || idx == len(address)-1 {
		return ""
	}
	return strings.ToLower(address[idx+1:])
}
