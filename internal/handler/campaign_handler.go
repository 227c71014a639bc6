package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
	"github.com/gofiber/fiber/v2"
)

// CampaignService is the slice of the campaign service exposed over HTTP.
type CampaignService interface {
	Create(ctx context.Context, name string, recipients []domain.Recipient, subjectTemplate, htmlTemplate string, waveTimes []time.Time) (*domain.Campaign, error)
	Get(ctx context.Context, id string) (*domain.Campaign, error)
	List(ctx context.Context, page, pageSize int) ([]domain.Campaign, int64, error)
}

type CampaignHandler struct {
	service CampaignService
}

func NewCampaignHandler(service CampaignService) (*CampaignHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("campaign service is required")
	}
	return &CampaignHandler{service: service}, nil
}

func RegisterCampaignRoutes(router fiber.Router, service CampaignService) error {
	h, err := NewCampaignHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/campaigns", h.Create)
	v1.Get("/campaigns", h.List)
	v1.Get("/campaigns/:id", h.Get)

	return nil
}

type createCampaignRequest struct {
	Name            string             `json:"name"`
	Recipients      []domain.Recipient `json:"recipients"`
	SubjectTemplate string             `json:"subjectTemplate"`
	HTMLTemplate    string             `json:"htmlTemplate"`
	WaveTimes       []time.Time        `json:"waveTimes"`
}

type waveResponse struct {
	ID          string     `json:"id"`
	Seq         int        `json:"seq"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	Status      string     `json:"status"`
	ExecutedAt  *time.Time `json:"executedAt,omitempty"`
}

type campaignResponse struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	RecipientCount  int            `json:"recipientCount"`
	SubjectTemplate string         `json:"subjectTemplate"`
	Status          string         `json:"status"`
	Waves           []waveResponse `json:"waves,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

type listCampaignsResponse struct {
	Campaigns []campaignResponse `json:"campaigns"`
	Total     int64              `json:"total"`
	Page      int                `json:"page"`
	PageSize  int                `json:"pageSize"`
}

func (h *CampaignHandler) Create(c *fiber.Ctx) error {
	var req createCampaignRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.WaveTimes) == 0 {
		return toHTTPError(fmt.Errorf("%w: waveTimes is required", domain.ErrValidation))
	}

	campaign, err := h.service.Create(
		requestContext(c),
		req.Name,
		req.Recipients,
		req.SubjectTemplate,
		req.HTMLTemplate,
		req.WaveTimes,
	)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toCampaignResponse(campaign))
}

func (h *CampaignHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "campaign id is required")
	}

	campaign, err := h.service.Get(requestContext(c), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toCampaignResponse(campaign))
}

func (h *CampaignHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("pageSize", 50)

	campaigns, total, err := h.service.List(requestContext(c), page, pageSize)
	if err != nil {
		return toHTTPError(err)
	}

	response := listCampaignsResponse{
		Campaigns: make([]campaignResponse, 0, len(campaigns)),
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
	}
	for i := range campaigns {
		response.Campaigns = append(response.Campaigns, toCampaignResponse(&campaigns[i]))
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func toCampaignResponse(campaign *domain.Campaign) campaignResponse {
	if campaign == nil {
		return campaignResponse{}
	}

	response := campaignResponse{
		ID:              campaign.ID,
		Name:            campaign.Name,
		RecipientCount:  len(campaign.Recipients),
		SubjectTemplate: campaign.SubjectTemplate,
		Status:          campaign.Status.String(),
		CreatedAt:       campaign.CreatedAt,
	}
	for _, wave := range campaign.Waves {
		response.Waves = append(response.Waves, waveResponse{
			ID:          wave.ID,
			Seq:         wave.Seq,
			ScheduledAt: wave.ScheduledAt,
			Status:      wave.Status.String(),
			ExecutedAt:  wave.ExecutedAt,
		})
	}

	return response
}
