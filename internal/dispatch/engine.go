package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
	"github.com/BoweryJG/BoweryCreative-backend/internal/mailer"
	"github.com/BoweryJG/BoweryCreative-backend/internal/observability"
	"github.com/BoweryJG/BoweryCreative-backend/internal/pool"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// routingHeader identifies the pool account that physically carried a
// message, independent of the visible From header.
const routingHeader = "X-Routed-Account"

// TransportSource exposes the pool accounts and their owned transports.
type TransportSource interface {
	Accounts() []domain.SendingAccount
	Transport(address string) (mailer.Transport, bool)
}

// AccountSelector yields the next eligible account or domain.ErrPoolExhausted.
type AccountSelector interface {
	Next(ctx context.Context) (domain.SendingAccount, error)
}

// EventSink receives dispatch audit records. Implementations are expected to
// persist them; the engine treats every sink failure as non-fatal.
type EventSink interface {
	Record(ctx context.Context, event *domain.DispatchEvent) error
}

// Engine executes one logical send end to end: choose an account or the
// relay, build the outbound message, invoke the transport, account for the
// send, and record the outcome.
type Engine struct {
	pool      TransportSource
	selector  AccountSelector
	quota     pool.QuotaStore
	relay     mailer.Transport
	relayFrom string
	events    EventSink
	logger    *zap.Logger
	metrics   *observability.Metrics
	bulkDelay time.Duration
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewEngine(
	transports TransportSource,
	selector AccountSelector,
	quota pool.QuotaStore,
	relay mailer.Transport,
	relayFrom string,
	events EventSink,
	logger *zap.Logger,
) (*Engine, error) {
	if transports == nil {
		return nil, fmt.Errorf("transport source is required")
	}
	if selector == nil {
		return nil, fmt.Errorf("account selector is required")
	}
	if quota == nil {
		return nil, fmt.Errorf("quota store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		pool:      transports,
		selector:  selector,
		quota:     quota,
		relay:     relay,
		relayFrom: strings.TrimSpace(relayFrom),
		events:    events,
		logger:    logger,
		now:       time.Now,
		sleep:     sleepWithContext,
	}, nil
}

func (e *Engine) SetMetrics(metrics *observability.Metrics) {
	if e == nil {
		return
	}
	e.metrics = metrics
}

// SetDefaultBulkDelay overrides DefaultBulkDelay for bulk sends that do not
// carry an explicit delay. Zero or negative values are ignored.
func (e *Engine) SetDefaultBulkDelay(d time.Duration) {
	if e == nil || d <= 0 {
		return
	}
	e.bulkDelay = d
}

// RelayAvailable reports whether relay credentials were supplied at startup.
func (e *Engine) RelayAvailable() bool {
	return e != nil && e.relay != nil
}

// Dispatch routes one send request. Relay routing happens when the caller
// forces it or when the pool reports exhaustion; a pool with no remaining
// path fails with domain.ErrAllCapacityExhausted. A failed account send still
// consumes its rotation turn, so a broken account is not retried on every
// subsequent call.
func (e *Engine) Dispatch(ctx context.Context, req *domain.SendRequest) (*domain.SendResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return nil, fmt.Errorf("%w: send request is required", domain.ErrValidation)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// forceRelay is honored only when a relay exists. Without one the
	// request routes through the pool like any other send; a message is
	// never dropped while a path remains.
	if req.ForceRelay && e.RelayAvailable() {
		return e.sendViaRelay(ctx, req)
	}

	account, err := e.selector.Next(ctx)
	if errors.Is(err, domain.ErrPoolExhausted) {
		if e.RelayAvailable() {
			// Escalation: never drop a message while any path remains.
			return e.sendViaRelay(ctx, req)
		}
		e.record(ctx, req, "", "", nil, domain.ErrAllCapacityExhausted)
		return nil, domain.ErrAllCapacityExhausted
	}
	if err != nil {
		return nil, err
	}

	return e.sendViaAccount(ctx, req, account)
}

// SendAsClient sends on behalf of an arbitrary caller-supplied identity. The
// visible sender and reply-to carry the client identity while the message
// still routes through the pool and relay like any other dispatch. Callers
// are trusted; this is not a security boundary.
func (e *Engine) SendAsClient(ctx context.Context, identity, recipient, subject, htmlBody string) (*domain.SendResult, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, fmt.Errorf("%w: client identity is required", domain.ErrValidation)
	}

	req := &domain.SendRequest{
		From:    identity,
		ReplyTo: identity,
		To:      []string{recipient},
		Subject: subject,
		HTML:    htmlBody,
	}
	return e.Dispatch(ctx, req)
}

func (e *Engine) sendViaAccount(ctx context.Context, req *domain.SendRequest, account domain.SendingAccount) (*domain.SendResult, error) {
	transport, ok := e.pool.Transport(account.Address)
	if !ok {
		return nil, fmt.Errorf("no transport registered for account %s", account.Address)
	}

	msg := buildMessage(req, account.Address)

	sendStart := e.now()
	resp, sendErr := transport.Send(ctx, msg)
	e.observeSend(domain.TransportAccount, e.now().Sub(sendStart))

	if sendErr != nil {
		e.record(ctx, req, account.Address, domain.TransportAccount, nil, sendErr)
		if e.metrics != nil {
			e.metrics.IncEmailFailed(string(domain.TransportAccount), failureReason(sendErr))
		}
		return nil, fmt.Errorf("dispatch via %s failed: %w", account.Address, sendErr)
	}

	// Accounting happens only after a confirmed send, so a transport failure
	// never consumes quota.
	if err := e.quota.Increment(ctx, account.Address); err != nil {
		e.logger.Warn("failed to record quota usage after successful send",
			zap.String("account", account.Address),
			zap.Error(err),
		)
	}

	remaining, err := e.quota.Remaining(ctx, account.Address)
	if err != nil {
		e.logger.Warn("failed to read remaining quota",
			zap.String("account", account.Address),
			zap.Error(err),
		)
	}

	result := &domain.SendResult{
		ProviderMessageID: resp.ProviderMessageID,
		Transport:         domain.TransportAccount,
		Account:           account.Address,
		RemainingQuota:    remaining,
	}

	e.record(ctx, req, account.Address, domain.TransportAccount, result, nil)
	if e.metrics != nil {
		e.metrics.IncEmailSent(string(domain.TransportAccount))
		e.metrics.SetQuotaRemaining(account.Address, remaining)
	}

	return result, nil
}

func (e *Engine) sendViaRelay(ctx context.Context, req *domain.SendRequest) (*domain.SendResult, error) {
	from := req.From
	if strings.TrimSpace(from) == "" {
		from = e.relayFrom
	}
	msg := buildMessage(req, from)

	sendStart := e.now()
	resp, sendErr := e.relay.Send(ctx, msg)
	e.observeSend(domain.TransportRelay, e.now().Sub(sendStart))

	if sendErr != nil {
		e.record(ctx, req, "", domain.TransportRelay, nil, sendErr)
		if e.metrics != nil {
			e.metrics.IncEmailFailed(string(domain.TransportRelay), failureReason(sendErr))
		}
		return nil, fmt.Errorf("relay dispatch failed: %w", sendErr)
	}

	result := &domain.SendResult{
		ProviderMessageID: resp.ProviderMessageID,
		Transport:         domain.TransportRelay,
		RemainingQuota:    domain.UnlimitedQuota,
	}

	e.record(ctx, req, "", domain.TransportRelay, result, nil)
	if e.metrics != nil {
		e.metrics.IncEmailSent(string(domain.TransportRelay))
	}

	return result, nil
}

// buildMessage resolves request defaults into a transport-ready message. The
// sender falls back to the routing identity, reply-to falls back to the
// sender, and a missing text body is derived from the HTML.
func buildMessage(req *domain.SendRequest, fallbackFrom string) *mailer.Message {
	from := req.From
	if strings.TrimSpace(from) == "" {
		from = fallbackFrom
	}
	replyTo := req.ReplyTo
	if strings.TrimSpace(replyTo) == "" {
		replyTo = from
	}

	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = mailer.TextFromHTML(req.HTML)
	}

	headers := make(map[string]string, len(req.Headers)+1)
	headers[routingHeader] = fallbackFrom
	for key, value := range req.Headers {
		headers[key] = value
	}

	attachments := make([]mailer.Attachment, 0, len(req.Attachments))
	for _, att := range req.Attachments {
		attachments = append(attachments, mailer.Attachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Content:     att.Content,
		})
	}

	return &mailer.Message{
		From:        from,
		ReplyTo:     replyTo,
		To:          req.To,
		Subject:     req.Subject,
		HTML:        req.HTML,
		Text:        text,
		Headers:     headers,
		Attachments: attachments,
	}
}

// record writes the outcome to the event sink. Observability must never
// block or fail a user-facing send, so sink errors are logged and dropped.
func (e *Engine) record(
	ctx context.Context,
	req *domain.SendRequest,
	account string,
	transport domain.TransportKind,
	result *domain.SendResult,
	sendErr error,
) {
	if e.events == nil {
		return
	}

	event := &domain.DispatchEvent{
		ID:         uuid.NewString(),
		Transport:  transport,
		Account:    account,
		Recipients: req.To,
		Subject:    req.Subject,
		Success:    sendErr == nil,
		CreatedAt:  e.now().UTC(),
	}
	if correlationID, ok := observability.CorrelationIDFromContext(ctx); ok {
		event.CorrelationID = correlationID
	}
	if result != nil {
		event.ProviderMessageID = result.ProviderMessageID
	}
	if sendErr != nil {
		event.Error = sendErr.Error()
	}

	if err := e.events.Record(ctx, event); err != nil {
		e.logger.Warn("dispatch event sink failed",
			zap.String("eventId", event.ID),
			zap.Error(err),
		)
	}
}

func (e *Engine) observeSend(transport domain.TransportKind, duration time.Duration) {
	if e.metrics != nil {
		e.metrics.ObserveSendDuration(string(transport), duration)
	}
}

func failureReason(err error) string {
	var transportErr *mailer.TransportError
	if errors.As(err, &transportErr) {
		if transportErr.Transient {
			return "transient"
		}
		return "permanent"
	}
	return "unknown"
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
