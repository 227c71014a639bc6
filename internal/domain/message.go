package domain

import (
	"fmt"
	"strings"
)

// UnlimitedQuota is the remaining-quota sentinel for transports without a
// daily ceiling (the relay).
const UnlimitedQuota = -1

// TransportKind identifies which delivery path carried a message.
type TransportKind string

const (
	TransportAccount TransportKind = "ACCOUNT"
	TransportRelay   TransportKind = "RELAY"
)

func (k TransportKind) String() string { return string(k) }

func (k TransportKind) IsValid() bool {
	switch k {
	case TransportAccount, TransportRelay:
		return true
	}
	return false
}

// Attachment is a file carried inline with a send request.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// SendRequest describes one logical outbound email. It is transient:
// constructed per call and never persisted.
type SendRequest struct {
	// From overrides the visible sender. Empty means the chosen account's
	// own address.
	From string
	// ReplyTo overrides the reply-to header. Empty falls back to From.
	ReplyTo string
	To      []string
	Subject string
	HTML    string
	// Text is the plain-text alternative. Empty means it is derived from
	// HTML by stripping markup.
	Text        string
	Headers     map[string]string
	Attachments []Attachment
	// ForceRelay routes through the relay without consulting the pool.
	ForceRelay bool
}

func (r SendRequest) Validate() error {
	if len(r.To) == 0 {
		return fmt.Errorf("%w: at least one recipient is required", ErrValidation)
	}
	for _, to := range r.To {
		if strings.TrimSpace(to) == "" {
			return fmt.Errorf("%w: recipient address must not be empty", ErrValidation)
		}
	}
	if strings.TrimSpace(r.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrValidation)
	}
	if strings.TrimSpace(r.HTML) == "" && strings.TrimSpace(r.Text) == "" {
		return fmt.Errorf("%w: message body is required", ErrValidation)
	}
	return nil
}

// SendResult reports the outcome of a dispatched message.
type SendResult struct {
	ProviderMessageID string
	Transport         TransportKind
	// Account is the address of the sending account, empty for relay sends.
	Account string
	// RemainingQuota is the transport's remaining daily capacity after this
	// send, or UnlimitedQuota for the relay.
	RemainingQuota int
}

// AccountUsage is one row of the orchestrator stats snapshot.
type AccountUsage struct {
	Address    string
	Class      AccountClass
	DailyQuota int
	SentToday  int
	Remaining  int
}

// DispatchStats is a point-in-time view of pool capacity.
type DispatchStats struct {
	Accounts       []AccountUsage
	RelayAvailable bool
	TotalSentToday int
	// TotalCapacity is the summed pool quota, or UnlimitedQuota when a relay
	// is configured.
	TotalCapacity int
}
