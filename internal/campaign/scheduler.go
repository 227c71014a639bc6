package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
	"github.com/BoweryJG/BoweryCreative-backend/internal/observability"
	"github.com/BoweryJG/BoweryCreative-backend/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultWaveScanInterval = 15 * time.Second
	defaultWaveScanLimit    = 20
)

// Dispatcher is the slice of the dispatch engine the scheduler needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *domain.SendRequest) (*domain.SendResult, error)
}

// WaveScheduler periodically executes due campaign waves. Each wave is
// claimed through a conditional status transition so concurrent replicas or
// overlapping scans never fire the same wave twice.
type WaveScheduler struct {
	campaigns  repository.CampaignRepository
	dispatcher Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	interval   time.Duration
	limit      int
	now        func() time.Time
}

func NewWaveScheduler(
	campaigns repository.CampaignRepository,
	dispatcher Dispatcher,
	interval time.Duration,
	limit int,
	logger *zap.Logger,
) (*WaveScheduler, error) {
	if campaigns == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if interval <= 0 {
		interval = defaultWaveScanInterval
	}
	if limit <= 0 {
		limit = defaultWaveScanLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WaveScheduler{
		campaigns:  campaigns,
		dispatcher: dispatcher,
		logger:     logger,
		interval:   interval,
		limit:      limit,
		now:        time.Now,
	}, nil
}

func (s *WaveScheduler) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *WaveScheduler) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Run an initial scan so already-due waves do not wait for the first
	// ticker edge.
	if err := s.scanDue(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("wave scheduler initial scan failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.scanDue(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Error("wave scheduler scan failed", zap.Error(err))
			}
		}
	}
}

func (s *WaveScheduler) scanDue(ctx context.Context) error {
	dueWaves, err := s.campaigns.GetDueWaves(ctx, s.now(), s.limit)
	if err != nil {
		return fmt.Errorf("failed to fetch due campaign waves: %w", err)
	}

	for i := range dueWaves {
		wave := dueWaves[i]

		claimed, err := s.campaigns.MarkWaveExecutingIfScheduled(ctx, wave.ID)
		if err != nil {
			s.logger.Error("failed to claim due wave",
				zap.String("waveId", wave.ID),
				zap.Error(err),
			)
			continue
		}
		if !claimed {
			continue
		}

		if err := s.executeWave(ctx, wave); err != nil {
			s.logger.Error("wave execution failed",
				zap.String("waveId", wave.ID),
				zap.String("campaignId", wave.CampaignID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// executeWave re-reads the campaign definition (to pick up mutations since
// creation), renders the templates per recipient, and dispatches one message
// each. Per-recipient failures are collected, not propagated; a wave always
// runs through its full recipient list.
func (s *WaveScheduler) executeWave(ctx context.Context, wave domain.Wave) error {
	definition, err := s.campaigns.GetByID(ctx, wave.CampaignID)
	if err != nil {
		return fmt.Errorf("failed to re-read campaign %s: %w", wave.CampaignID, err)
	}

	results := make([]domain.WaveRecipientResult, 0, len(definition.Recipients))
	failures := 0
	for _, recipient := range definition.Recipients {
		result := s.dispatchToRecipient(ctx, definition, recipient)
		if !result.Success {
			failures++
		}
		results = append(results, result)
	}

	executedAt := s.now().UTC()
	if err := s.campaigns.CompleteWave(ctx, wave.ID, executedAt, results); err != nil {
		return fmt.Errorf("failed to persist wave results: %w", err)
	}

	if _, err := s.campaigns.MarkCampaignCompletedIfDone(ctx, wave.CampaignID); err != nil {
		s.logger.Error("failed to check campaign completion",
			zap.String("campaignId", wave.CampaignID),
			zap.Error(err),
		)
	}

	outcome := "completed"
	if failures > 0 {
		outcome = "partial_failure"
	}
	if s.metrics != nil {
		s.metrics.IncWaveExecuted(outcome)
	}

	s.logger.Info("campaign wave executed",
		zap.String("campaignId", wave.CampaignID),
		zap.String("waveId", wave.ID),
		zap.Int("seq", wave.Seq),
		zap.Int("recipients", len(results)),
		zap.Int("failures", failures),
	)

	return nil
}

func (s *WaveScheduler) dispatchToRecipient(
	ctx context.Context,
	definition *domain.Campaign,
	recipient domain.Recipient,
) domain.WaveRecipientResult {
	email := recipient.Email()
	if email == "" {
		return domain.WaveRecipientResult{
			Success: false,
			Error:   "recipient record has no email field",
		}
	}

	req := &domain.SendRequest{
		To:      []string{email},
		Subject: RenderTemplate(definition.SubjectTemplate, recipient),
		HTML:    RenderTemplate(definition.HTMLTemplate, recipient),
	}

	result, err := s.dispatcher.Dispatch(ctx, req)
	if err != nil {
		return domain.WaveRecipientResult{
			Email:   email,
			Success: false,
			Error:   err.Error(),
		}
	}

	return domain.WaveRecipientResult{
		Email:             email,
		Success:           true,
		Transport:         result.Transport.String(),
		ProviderMessageID: result.ProviderMessageID,
	}
}
