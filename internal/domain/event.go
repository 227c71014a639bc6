package domain

import "time"

// DispatchEvent is the audit record written to the log sink for every
// dispatch outcome, success or failure. Sink failures never propagate to the
// send path.
type DispatchEvent struct {
	ID                string
	CorrelationID     string
	Transport         TransportKind
	Account           string
	Recipients        []string
	Subject           string
	Success           bool
	ProviderMessageID string
	Error             string
	CreatedAt         time.Time
}
