package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
	"github.com/gofiber/fiber/v2"
)

const (
	defaultEventListLimit = 50
	maxEventListLimit     = 200
)

// EventLister reads back the dispatch audit trail.
type EventLister interface {
	ListRecent(ctx context.Context, limit int) ([]domain.DispatchEvent, error)
}

type EventHandler struct {
	events EventLister
}

func NewEventHandler(events EventLister) (*EventHandler, error) {
	if events == nil {
		return nil, fmt.Errorf("event lister is required")
	}
	return &EventHandler{events: events}, nil
}

func RegisterEventRoutes(router fiber.Router, events EventLister) error {
	h, err := NewEventHandler(events)
	if err != nil {
		return err
	}

	router.Group("/v1").Get("/events", h.List)

	return nil
}

type eventResponse struct {
	ID                string    `json:"id"`
	CorrelationID     string    `json:"correlationId,omitempty"`
	Transport         string    `json:"transport"`
	Account           string    `json:"account,omitempty"`
	Recipients        []string  `json:"recipients"`
	Subject           string    `json:"subject"`
	Success           bool      `json:"success"`
	ProviderMessageID string    `json:"providerMessageId,omitempty"`
	Error             string    `json:"error,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

type listEventsResponse struct {
	Events []eventResponse `json:"events"`
}

func (h *EventHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultEventListLimit)
	if limit < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be >= 1")
	}
	if limit > maxEventListLimit {
		limit = maxEventListLimit
	}

	events, err := h.events.ListRecent(requestContext(c), limit)
	if err != nil {
		return toHTTPError(err)
	}

	response := listEventsResponse{Events: make([]eventResponse, 0, len(events))}
	for _, event := range events {
		response.Events = append(response.Events, eventResponse{
			ID:                event.ID,
			CorrelationID:     event.CorrelationID,
			Transport:         event.Transport.String(),
			Account:           event.Account,
			Recipients:        event.Recipients,
			Subject:           event.Subject,
			Success:           event.Success,
			ProviderMessageID: event.ProviderMessageID,
			Error:             event.Error,
			CreatedAt:         event.CreatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(response)
}
