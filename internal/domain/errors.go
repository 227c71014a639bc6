package domain

import "errors"

var (
	// ErrValidation marks caller input problems; handlers map it to 400.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks missing entities; handlers map it to 404.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks state transitions that are no longer legal.
	ErrConflict = errors.New("conflict")

	// ErrNoAccountsConfigured is reported by the account pool when zero usable
	// accounts survive configuration loading. Non-fatal: the orchestrator can
	// still operate relay-only.
	ErrNoAccountsConfigured = errors.New("no sending accounts configured")

	// ErrPoolExhausted is the internal signal that a full round-robin cycle
	// found no account with remaining quota. It triggers relay escalation and
	// is never returned to callers directly.
	ErrPoolExhausted = errors.New("account pool exhausted")

	// ErrAllCapacityExhausted is the terminal per-dispatch failure: the pool is
	// exhausted and no relay is configured. No automatic retry.
	ErrAllCapacityExhausted = errors.New("all sending capacity exhausted")
)
