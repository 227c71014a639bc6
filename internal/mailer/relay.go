package mailer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultRelayTimeout = 15 * time.Second

type relayAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Content     string `json:"content"`
}

type relayRequest struct {
	From        string            `json:"from"`
	ReplyTo     string            `json:"reply_to,omitempty"`
	To          []string          `json:"to"`
	Subject     string            `json:"subject"`
	HTML        string            `json:"html,omitempty"`
	Text        string            `json:"text,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Attachments []relayAttachment `json:"attachments,omitempty"`
}

type relayResponse struct {
	ID string `json:"id"`
}

// HTTPRelayTransport sends mail through a hosted HTTP mail API. It has no
// enforced quota and serves as the overflow path when the account pool is
// exhausted.
type HTTPRelayTransport struct {
	client   *resty.Client
	endpoint string
}

func NewHTTPRelayTransport(endpoint, apiKey string) (*HTTPRelayTransport, error) {
	client := resty.New()
	client.SetTimeout(defaultRelayTimeout)
	client.SetRetryCount(0)
	if strings.TrimSpace(apiKey) != "" {
		client.SetAuthToken(apiKey)
	}

	return NewHTTPRelayTransportWithClient(endpoint, client)
}

func NewHTTPRelayTransportWithClient(endpoint string, client *resty.Client) (*HTTPRelayTransport, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("relay endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid relay endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultRelayTimeout)
	}
	client.SetRetryCount(0)

	return &HTTPRelayTransport{
		client:   client,
		endpoint: trimmedEndpoint,
	}, nil
}

func (t *HTTPRelayTransport) Send(ctx context.Context, msg *Message) (*Response, error) {
	if t == nil || t.client == nil {
		return nil, fmt.Errorf("relay transport is not initialized")
	}
	if msg == nil {
		return nil, fmt.Errorf("message is required")
	}

	reqBody := relayRequest{
		From:    msg.From,
		ReplyTo: msg.ReplyTo,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		Headers: msg.Headers,
	}
	for _, att := range msg.Attachments {
		reqBody.Attachments = append(reqBody.Attachments, relayAttachment{
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Content:     base64.StdEncoding.EncodeToString(att.Content),
		})
	}

	var parsed relayResponse
	response, err := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		SetResult(&parsed).
		Post(t.endpoint)
	if err != nil {
		return nil, &TransportError{
			Transport: TransportNameRelay,
			Message:   "relay request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &TransportError{
			Transport: TransportNameRelay,
			Message:   "relay returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &Response{ProviderMessageID: relayMessageID(&parsed, response)}, nil
	}

	return nil, &TransportError{
		Transport:  TransportNameRelay,
		StatusCode: statusCode,
		Message:    relayErrorMessage(statusCode, strings.TrimSpace(response.String())),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func relayErrorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("relay returned status %d", statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}

func relayMessageID(parsed *relayResponse, response *resty.Response) string {
	if parsed != nil && strings.TrimSpace(parsed.ID) != "" {
		return parsed.ID
	}

	for _, key := range []string{"X-Message-ID", "X-Message-Id", "X-Request-ID", "X-Request-Id"} {
		if value := strings.TrimSpace(response.Header().Get(key)); value != "" {
			return value
		}
	}

	return ""
}
