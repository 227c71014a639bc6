package domain

import (
	"fmt"
	"strings"
)

// AccountClass represents the capability tier of a sending account.
type AccountClass string

const (
	ClassStandard   AccountClass = "STANDARD"
	ClassHighVolume AccountClass = "HIGH_VOLUME"
)

func (c AccountClass) String() string { return string(c) }

func (c AccountClass) IsValid() bool {
	switch c {
	case ClassStandard, ClassHighVolume:
		return true
	}
	return false
}

func ParseAccountClassFromString(s string) (AccountClass, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	c := AccountClass(normalized)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: invalid account class %q", ErrValidation, s)
	}
	return c, nil
}

// SendingAccount is a configured sending identity with a fixed daily quota.
// Accounts are created at process start from configuration and are immutable
// for the lifetime of the process.
type SendingAccount struct {
	Address    string
	Class      AccountClass
	DailyQuota int
}

func (a SendingAccount) Validate() error {
	if strings.TrimSpace(a.Address) == "" {
		return fmt.Errorf("%w: account address is required", ErrValidation)
	}
	if !strings.Contains(a.Address, "@") {
		return fmt.Errorf("%w: account address %q is not an email address", ErrValidation, a.Address)
	}
	if !a.Class.IsValid() {
		return fmt.Errorf("%w: invalid account class %q", ErrValidation, a.Class)
	}
	if a.DailyQuota <= 0 {
		return fmt.Errorf("%w: daily quota must be positive (got %d)", ErrValidation, a.DailyQuota)
	}
	return nil
}

// Domain returns the part of the account address after the last @.
func (a SendingAccount) Domain() string {
	idx := strings.LastIndex(a.Address, "@")
	if idx < 0 || idx == len(a.Address)-1 {
		return ""
	}
	return strings.ToLower(a.Address[idx+1:])
}
