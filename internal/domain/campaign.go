package domain

import (
	"fmt"
	"strings"
	"time"
)

// CampaignStatus represents the lifecycle state of a campaign.
type CampaignStatus string

// Campaigns are born SCHEDULED (or COMPLETED when every wave is already
// past due) and finish COMPLETED once their last wave has run.
const (
	CampaignStatusScheduled CampaignStatus = "SCHEDULED"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
)

func (s CampaignStatus) String() string { return string(s) }

func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignStatusScheduled, CampaignStatusCompleted:
		return true
	}
	return false
}

func ParseCampaignStatusFromString(s string) (CampaignStatus, error) {
	st := CampaignStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid campaign status %q", ErrValidation, s)
	}
	return st, nil
}

// WaveStatus represents the state of a single scheduled send wave.
type WaveStatus string

const (
	WaveStatusScheduled WaveStatus = "SCHEDULED"
	WaveStatusExecuting WaveStatus = "EXECUTING"
	WaveStatusCompleted WaveStatus = "COMPLETED"
	// WaveStatusSkipped marks waves whose timestamp was already in the past
	// at campaign creation. They are never executed.
	WaveStatusSkipped WaveStatus = "SKIPPED"
)

func (s WaveStatus) String() string { return string(s) }

func (s WaveStatus) IsValid() bool {
	switch s {
	case WaveStatusScheduled, WaveStatusExecuting, WaveStatusCompleted, WaveStatusSkipped:
		return true
	}
	return false
}

// Recipient is an arbitrary key/value record used for template substitution.
// The "email" key carries the delivery address.
type Recipient map[string]string

// Email returns the recipient delivery address, if present.
func (r Recipient) Email() string {
	return strings.TrimSpace(r["email"])
}

// Wave is one scheduled send event within a campaign.
type Wave struct {
	ID          string
	CampaignID  string
	Seq         int
	ScheduledAt time.Time
	Status      WaveStatus
	ExecutedAt  *time.Time
}

// WaveRecipientResult records the outcome of one recipient within a wave.
type WaveRecipientResult struct {
	Email             string `json:"email"`
	Success           bool   `json:"success"`
	Transport         string `json:"transport,omitempty"`
	ProviderMessageID string `json:"providerMessageId,omitempty"`
	Error             string `json:"error,omitempty"`
}

// Campaign is a multi-wave, templated, future-dated send definition.
type Campaign struct {
	ID              string
	Name            string
	Recipients      []Recipient
	SubjectTemplate string
	HTMLTemplate    string
	Status          CampaignStatus
	Waves           []Wave
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (c *Campaign) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: campaign name is required", ErrValidation)
	}
	if len(c.Recipients) == 0 {
		return fmt.Errorf("%w: campaign requires at least one recipient", ErrValidation)
	}
	for i, r := range c.Recipients {
		if r.Email() == "" {
			return fmt.Errorf("%w: recipient %d is missing an email field", ErrValidation, i)
		}
	}
	if strings.TrimSpace(c.SubjectTemplate) == "" {
		return fmt.Errorf("%w: subject template is required", ErrValidation)
	}
	if strings.TrimSpace(c.HTMLTemplate) == "" {
		return fmt.Errorf("%w: html template is required", ErrValidation)
	}
	if len(c.Waves) == 0 {
		return fmt.Errorf("%w: campaign requires at least one wave", ErrValidation)
	}
	return nil
}
