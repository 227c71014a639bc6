package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BoweryJG/BoweryCreative-backend/internal/dispatch"
	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
	"github.com/BoweryJG/BoweryCreative-backend/internal/observability"
	"github.com/gofiber/fiber/v2"
)

// DispatchService is the slice of the dispatch engine exposed over HTTP.
type DispatchService interface {
	Dispatch(ctx context.Context, req *domain.SendRequest) (*domain.SendResult, error)
	SendAsClient(ctx context.Context, identity, recipient, subject, htmlBody string) (*domain.SendResult, error)
	SendBulk(ctx context.Context, requests []domain.SendRequest, delay time.Duration) []dispatch.BulkItemOutcome
	Stats(ctx context.Context) (*domain.DispatchStats, error)
}

type MailHandler struct {
	service DispatchService
}

func NewMailHandler(service DispatchService) (*MailHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("dispatch service is required")
	}
	return &MailHandler{service: service}, nil
}

func RegisterMailRoutes(router fiber.Router, service DispatchService) error {
	h, err := NewMailHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/dispatch", h.Dispatch)
	v1.Post("/dispatch/bulk", h.DispatchBulk)
	v1.Post("/dispatch/as-client", h.SendAsClient)
	v1.Get("/stats", h.Stats)

	return nil
}

type attachmentRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType,omitempty"`
	// Content is base64-encoded.
	Content string `json:"content"`
}

type sendRequest struct {
	From        string              `json:"from,omitempty"`
	ReplyTo     string              `json:"replyTo,omitempty"`
	To          []string            `json:"to"`
	Subject     string              `json:"subject"`
	HTML        string              `json:"html,omitempty"`
	Text        string              `json:"text,omitempty"`
	Headers     map[string]string   `json:"headers,omitempty"`
	Attachments []attachmentRequest `json:"attachments,omitempty"`
	ForceRelay  bool                `json:"forceRelay,omitempty"`
}

type sendAsClientRequest struct {
	Identity string `json:"identity"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTML     string `json:"html"`
}

type bulkRequest struct {
	Messages []sendRequest `json:"messages"`
	// DelayMs overrides the default inter-message delay. Zero disables it.
	DelayMs *int `json:"delayMs,omitempty"`
}

type sendResultResponse struct {
	ProviderMessageID string `json:"providerMessageId,omitempty"`
	Transport         string `json:"transport"`
	Account           string `json:"account,omitempty"`
	RemainingQuota    any    `json:"remainingQuota"`
}

type bulkOutcomeResponse struct {
	Index   int                 `json:"index"`
	Success bool                `json:"success"`
	Result  *sendResultResponse `json:"result,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type bulkResponse struct {
	Outcomes []bulkOutcomeResponse `json:"outcomes"`
}

type accountUsageResponse struct {
	Identity   string `json:"identity"`
	Class      string `json:"class"`
	DailyQuota int    `json:"dailyQuota"`
	SentToday  int    `json:"sentToday"`
	Remaining  int    `json:"remaining"`
}

type statsResponse struct {
	PerAccount     []accountUsageResponse `json:"perAccount"`
	RelayAvailable bool                   `json:"relayAvailable"`
	TotalSentToday int                    `json:"totalSentToday"`
	TotalCapacity  any                    `json:"totalCapacity"`
}

func (h *MailHandler) Dispatch(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	domainReq, err := requestToDomainSend(req)
	if err != nil {
		return toHTTPError(err)
	}

	result, err := h.service.Dispatch(requestContext(c), domainReq)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toSendResultResponse(result))
}

func (h *MailHandler) DispatchBulk(c *fiber.Ctx) error {
	var req bulkRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Messages) == 0 {
		return toHTTPError(fmt.Errorf("%w: messages is required", domain.ErrValidation))
	}

	requests := make([]domain.SendRequest, 0, len(req.Messages))
	for _, item := range req.Messages {
		domainReq, err := requestToDomainSend(item)
		if err != nil {
			return toHTTPError(err)
		}
		requests = append(requests, *domainReq)
	}

	delay := time.Duration(-1)
	if req.DelayMs != nil {
		if *req.DelayMs < 0 {
			return toHTTPError(fmt.Errorf("%w: delayMs must be >= 0", domain.ErrValidation))
		}
		delay = time.Duration(*req.DelayMs) * time.Millisecond
	}

	outcomes := h.service.SendBulk(requestContext(c), requests, delay)

	response := bulkResponse{Outcomes: make([]bulkOutcomeResponse, 0, len(outcomes))}
	for _, outcome := range outcomes {
		item := bulkOutcomeResponse{
			Index:   outcome.Index,
			Success: outcome.Err == nil,
		}
		if outcome.Err != nil {
			item.Error = outcome.Err.Error()
		} else {
			result := toSendResultResponse(outcome.Result)
			item.Result = &result
		}
		response.Outcomes = append(response.Outcomes, item)
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func (h *MailHandler) SendAsClient(c *fiber.Ctx) error {
	var req sendAsClientRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.SendAsClient(
		requestContext(c),
		strings.TrimSpace(req.Identity),
		strings.TrimSpace(req.To),
		req.Subject,
		req.HTML,
	)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toSendResultResponse(result))
}

func (h *MailHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(requestContext(c))
	if err != nil {
		return toHTTPError(err)
	}

	response := statsResponse{
		PerAccount:     make([]accountUsageResponse, 0, len(stats.Accounts)),
		RelayAvailable: stats.RelayAvailable,
		TotalSentToday: stats.TotalSentToday,
		TotalCapacity:  quotaValue(stats.TotalCapacity),
	}
	for _, usage := range stats.Accounts {
		response.PerAccount = append(response.PerAccount, accountUsageResponse{
			Identity:   usage.Address,
			Class:      usage.Class.String(),
			DailyQuota: usage.DailyQuota,
			SentToday:  usage.SentToday,
			Remaining:  usage.Remaining,
		})
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

func requestToDomainSend(req sendRequest) (*domain.SendRequest, error) {
	domainReq := &domain.SendRequest{
		From:       strings.TrimSpace(req.From),
		ReplyTo:    strings.TrimSpace(req.ReplyTo),
		To:         req.To,
		Subject:    req.Subject,
		HTML:       req.HTML,
		Text:       req.Text,
		Headers:    req.Headers,
		ForceRelay: req.ForceRelay,
	}

	for i, att := range req.Attachments {
		if strings.TrimSpace(att.Filename) == "" {
			return nil, fmt.Errorf("%w: attachment %d is missing a filename", domain.ErrValidation, i)
		}
		content, err := base64.StdEncoding.DecodeString(att.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: attachment %q content must be base64", domain.ErrValidation, att.Filename)
		}
		domainReq.Attachments = append(domainReq.Attachments, domain.Attachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Content:     content,
		})
	}

	if err := domainReq.Validate(); err != nil {
		return nil, err
	}
	return domainReq, nil
}

func toSendResultResponse(result *domain.SendResult) sendResultResponse {
	if result == nil {
		return sendResultResponse{}
	}

	return sendResultResponse{
		ProviderMessageID: result.ProviderMessageID,
		Transport:         result.Transport.String(),
		Account:           result.Account,
		RemainingQuota:    quotaValue(result.RemainingQuota),
	}
}

// quotaValue renders the unlimited sentinel as a string so API consumers do
// not have to know about the internal -1 convention.
func quotaValue(v int) any {
	if v == domain.UnlimitedQuota {
		return "unlimited"
	}
	return v
}

func requestContext(c *fiber.Ctx) context.Context {
	ctx := c.Context()
	if correlationID := requestCorrelationID(c); correlationID != "" {
		return observability.WithCorrelationID(ctx, correlationID)
	}
	return ctx
}

func requestCorrelationID(c *fiber.Ctx) string {
	if value := strings.TrimSpace(c.Get(fiber.HeaderXRequestID)); value != "" {
		return value
	}
	if value, ok := c.Locals("requestid").(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrAllCapacityExhausted):
		return fiber.NewError(fiber.StatusTooManyRequests, err.Error())
	default:
		return err
	}
}
