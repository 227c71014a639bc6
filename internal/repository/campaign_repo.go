package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
	"gorm.io/gorm"
)

type CampaignRepository interface {
	Create(ctx context.Context, c *domain.Campaign) error
	GetByID(ctx context.Context, id string) (*domain.Campaign, error)
	List(ctx context.Context, page, pageSize int) ([]domain.Campaign, int64, error)
	GetDueWaves(ctx context.Context, now time.Time, limit int) ([]domain.Wave, error)
	MarkWaveExecutingIfScheduled(ctx context.Context, waveID string) (bool, error)
	CompleteWave(ctx context.Context, waveID string, executedAt time.Time, results []domain.WaveRecipientResult) error
	MarkCampaignCompletedIfDone(ctx context.Context, campaignID string) (bool, error)
}

type GormCampaignRepo struct {
	db *gorm.DB
}

func NewGormCampaignRepo(db *gorm.DB) *GormCampaignRepo {
	return &GormCampaignRepo{db: db}
}

func (r *GormCampaignRepo) Create(ctx context.Context, c *domain.Campaign) error {
	model, err := campaignModelFromDomain(c)
	if err != nil {
		return err
	}

	waves := make([]WaveModel, 0, len(c.Waves))
	for i := range c.Waves {
		waves = append(waves, *waveModelFromDomain(&c.Waves[i]))
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		if len(waves) == 0 {
			return nil
		}
		return tx.Create(&waves).Error
	})
	if err != nil {
		return err
	}

	c.CreatedAt = model.CreatedAt
	c.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormCampaignRepo) GetByID(ctx context.Context, id string) (*domain.Campaign, error) {
	var model CampaignModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var waves []WaveModel
	err = r.db.WithContext(ctx).
		Where("campaign_id = ?", id).
		Order("seq ASC").
		Find(&waves).Error
	if err != nil {
		return nil, err
	}

	return campaignModelToDomain(&model, waves)
}

func (r *GormCampaignRepo) List(ctx context.Context, page, pageSize int) ([]domain.Campaign, int64, error) {
	query := r.db.WithContext(ctx).Model(&CampaignModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page = max(page, 1)
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []CampaignModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	campaigns := make([]domain.Campaign, 0, len(models))
	for i := range models {
		campaign, err := campaignModelToDomain(&models[i], nil)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, *campaign)
	}

	return campaigns, total, nil
}

func (r *GormCampaignRepo) GetDueWaves(ctx context.Context, now time.Time, limit int) ([]domain.Wave, error) {
	var models []WaveModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", domain.WaveStatusScheduled, now).
		Order("scheduled_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	waves := make([]domain.Wave, 0, len(models))
	for i := range models {
		waves = append(waves, waveModelToDomain(&models[i]))
	}

	return waves, nil
}

// MarkWaveExecutingIfScheduled claims a due wave through a conditional
// update. It reports false when another scan already claimed the wave.
func (r *GormCampaignRepo) MarkWaveExecutingIfScheduled(ctx context.Context, waveID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&WaveModel{}).
		Where("id = ? AND status = ?", waveID, domain.WaveStatusScheduled).
		Update("status", domain.WaveStatusExecuting)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormCampaignRepo) CompleteWave(
	ctx context.Context,
	waveID string,
	executedAt time.Time,
	results []domain.WaveRecipientResult,
) error {
	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal wave results: %w", err)
	}
	resultsJSON := string(payload)

	result := r.db.WithContext(ctx).
		Model(&WaveModel{}).
		Where("id = ?", waveID).
		Updates(map[string]any{
			"status":      domain.WaveStatusCompleted,
			"executed_at": executedAt,
			"results":     resultsJSON,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkCampaignCompletedIfDone flips a campaign to COMPLETED once no wave is
// left in a pending state. It reports whether the transition happened.
func (r *GormCampaignRepo) MarkCampaignCompletedIfDone(ctx context.Context, campaignID string) (bool, error) {
	var pending int64
	err := r.db.WithContext(ctx).
		Model(&WaveModel{}).
		Where("campaign_id = ? AND status IN ?", campaignID, []domain.WaveStatus{
			domain.WaveStatusScheduled,
			domain.WaveStatusExecuting,
		}).
		Count(&pending).Error
	if err != nil {
		return false, err
	}
	if pending > 0 {
		return false, nil
	}

	result := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ? AND status <> ?", campaignID, domain.CampaignStatusCompleted).
		Update("status", domain.CampaignStatusCompleted)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
