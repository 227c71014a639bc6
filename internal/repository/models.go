package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
)

// CampaignModel is the persistence model for the campaigns table. Recipients
// are stored as a JSON document; they are opaque key/value records and never
// queried individually.
type CampaignModel struct {
	ID              string                `gorm:"type:uuid;primaryKey"`
	Name            string                `gorm:"type:varchar(255);not null"`
	Recipients      string                `gorm:"type:jsonb;not null"`
	SubjectTemplate string                `gorm:"type:text;not null"`
	HTMLTemplate    string                `gorm:"type:text;not null"`
	Status          domain.CampaignStatus `gorm:"type:varchar(20);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (CampaignModel) TableName() string {
	return "campaigns"
}

// WaveModel is the persistence model for campaign_waves.
type WaveModel struct {
	ID          string            `gorm:"type:uuid;primaryKey"`
	CampaignID  string            `gorm:"type:uuid;not null;index"`
	Seq         int               `gorm:"not null"`
	ScheduledAt time.Time         `gorm:"type:timestamptz;not null"`
	Status      domain.WaveStatus `gorm:"type:varchar(20);not null"`
	Results     *string           `gorm:"type:jsonb"`
	ExecutedAt  *time.Time        `gorm:"type:timestamptz"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (WaveModel) TableName() string {
	return "campaign_waves"
}

// DispatchEventModel is the persistence model for dispatch_events, the audit
// log of every dispatch outcome.
type DispatchEventModel struct {
	ID                string               `gorm:"type:uuid;primaryKey"`
	CorrelationID     string               `gorm:"type:varchar(36)"`
	Transport         domain.TransportKind `gorm:"type:varchar(10)"`
	Account           string               `gorm:"type:varchar(255)"`
	Recipients        string               `gorm:"type:jsonb;not null"`
	Subject           string               `gorm:"type:text;not null"`
	Success           bool                 `gorm:"not null"`
	ProviderMessageID string               `gorm:"type:varchar(255)"`
	Error             *string              `gorm:"type:text"`
	CreatedAt         time.Time
}

func (DispatchEventModel) TableName() string {
	return "dispatch_events"
}

func campaignModelFromDomain(c *domain.Campaign) (*CampaignModel, error) {
	if c == nil {
		return nil, nil
	}

	recipients, err := json.Marshal(c.Recipients)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recipients: %w", err)
	}

	return &CampaignModel{
		ID:              c.ID,
		Name:            c.Name,
		Recipients:      string(recipients),
		SubjectTemplate: c.SubjectTemplate,
		HTMLTemplate:    c.HTMLTemplate,
		Status:          c.Status,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}, nil
}

func campaignModelToDomain(m *CampaignModel, waves []WaveModel) (*domain.Campaign, error) {
	if m == nil {
		return nil, nil
	}

	var recipients []domain.Recipient
	if m.Recipients != "" {
		if err := json.Unmarshal([]byte(m.Recipients), &recipients); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recipients: %w", err)
		}
	}

	campaign := &domain.Campaign{
		ID:              m.ID,
		Name:            m.Name,
		Recipients:      recipients,
		SubjectTemplate: m.SubjectTemplate,
		HTMLTemplate:    m.HTMLTemplate,
		Status:          m.Status,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	for i := range waves {
		campaign.Waves = append(campaign.Waves, waveModelToDomain(&waves[i]))
	}

	return campaign, nil
}

func waveModelFromDomain(w *domain.Wave) *WaveModel {
	if w == nil {
		return nil
	}

	return &WaveModel{
		ID:          w.ID,
		CampaignID:  w.CampaignID,
		Seq:         w.Seq,
		ScheduledAt: w.ScheduledAt,
		Status:      w.Status,
		ExecutedAt:  w.ExecutedAt,
	}
}

func waveModelToDomain(m *WaveModel) domain.Wave {
	return domain.Wave{
		ID:          m.ID,
		CampaignID:  m.CampaignID,
		Seq:         m.Seq,
		ScheduledAt: m.ScheduledAt,
		Status:      m.Status,
		ExecutedAt:  m.ExecutedAt,
	}
}

func eventModelFromDomain(e *domain.DispatchEvent) (*DispatchEventModel, error) {
	if e == nil {
		return nil, nil
	}

	recipients, err := json.Marshal(e.Recipients)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recipients: %w", err)
	}

	model := &DispatchEventModel{
		ID:                e.ID,
		CorrelationID:     e.CorrelationID,
		Transport:         e.Transport,
		Account:           e.Account,
		Recipients:        string(recipients),
		Subject:           e.Subject,
		Success:           e.Success,
		ProviderMessageID: e.ProviderMessageID,
		CreatedAt:         e.CreatedAt,
	}
	if e.Error != "" {
		value := e.Error
		model.Error = &value
	}

	return model, nil
}
