package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
	"github.com/BoweryJG/BoweryCreative-backend/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service manages campaign definitions. Waves whose timestamp is already in
// the past at creation time are persisted as skipped and never execute;
// there is no retroactive catch-up.
type Service struct {
	campaigns repository.CampaignRepository
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(campaigns repository.CampaignRepository, logger *zap.Logger) (*Service, error) {
	if campaigns == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		campaigns: campaigns,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (s *Service) Create(
	ctx context.Context,
	name string,
	recipients []domain.Recipient,
	subjectTemplate string,
	htmlTemplate string,
	waveTimes []time.Time,
) (*domain.Campaign, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	now := s.now()
	campaignID := uuid.NewString()

	waves := make([]domain.Wave, 0, len(waveTimes))
	scheduled := 0
	for i, at := range waveTimes {
		status := domain.WaveStatusScheduled
		if !at.After(now) {
			status = domain.WaveStatusSkipped
		} else {
			scheduled++
		}
		waves = append(waves, domain.Wave{
			ID:          uuid.NewString(),
			CampaignID:  campaignID,
			Seq:         i,
			ScheduledAt: at,
			Status:      status,
		})
	}

	status := domain.CampaignStatusScheduled
	if scheduled == 0 {
		// Every wave was already past due; the campaign is born terminal.
		status = domain.CampaignStatusCompleted
	}

	campaign := &domain.Campaign{
		ID:              campaignID,
		Name:            name,
		Recipients:      recipients,
		SubjectTemplate: subjectTemplate,
		HTMLTemplate:    htmlTemplate,
		Status:          status,
		Waves:           waves,
	}
	if err := campaign.Validate(); err != nil {
		return nil, err
	}

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to persist campaign: %w", err)
	}

	skipped := len(waves) - scheduled
	if skipped > 0 {
		s.logger.Info("campaign created with past-due waves skipped",
			zap.String("campaignId", campaign.ID),
			zap.Int("skippedWaves", skipped),
		)
	}

	return campaign, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.campaigns.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, page, pageSize int) ([]domain.Campaign, int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.campaigns.List(ctx, page, pageSize)
}
