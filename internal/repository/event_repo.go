package repository

import (
	"context"
	"encoding/json"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
	"gorm.io/gorm"
)

// EventRepository is the dispatch log sink. Callers treat Record as
// fire-and-forget; the dispatch engine swallows any error it returns.
type EventRepository interface {
	Record(ctx context.Context, event *domain.DispatchEvent) error
	ListRecent(ctx context.Context, limit int) ([]domain.DispatchEvent, error)
}

type GormEventRepo struct {
	db *gorm.DB
}

func NewGormEventRepo(db *gorm.DB) *GormEventRepo {
	return &GormEventRepo{db: db}
}

func (r *GormEventRepo) Record(ctx context.Context, event *domain.DispatchEvent) error {
	model, err := eventModelFromDomain(event)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(model).Error
}

func (r *GormEventRepo) ListRecent(ctx context.Context, limit int) ([]domain.DispatchEvent, error) {
	if limit < 1 {
		limit = 50
	}

	var models []DispatchEventModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	events := make([]domain.DispatchEvent, 0, len(models))
	for i := range models {
		m := &models[i]
		event := domain.DispatchEvent{
			ID:                m.ID,
			CorrelationID:     m.CorrelationID,
			Transport:         m.Transport,
			Account:           m.Account,
			Subject:           m.Subject,
			Success:           m.Success,
			ProviderMessageID: m.ProviderMessageID,
			CreatedAt:         m.CreatedAt,
		}
		if m.Error != nil {
			event.Error = *m.Error
		}
		if m.Recipients != "" {
			// Best effort; a malformed row should not break the listing.
			_ = json.Unmarshal([]byte(m.Recipients), &event.Recipients)
		}
		events = append(events, event)
	}

	return events, nil
}
