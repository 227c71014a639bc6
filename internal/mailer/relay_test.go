package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func relayMessage() *Message {
	return &Message{
		From:    "relay@agency.test",
		To:      []string{"lead@customer.test"},
		Subject: "Spring launch",
		HTML:    "<p>Hello</p>",
		Text:    "Hello",
		Headers: map[string]string{"X-Routed-Account": "relay@agency.test"},
	}
}

func TestHTTPRelayTransportSendSuccess(t *testing.T) {
	t.Parallel()

	var received relayRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("authorization = %q, want bearer token", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"relay-msg-1"}`))
	}))
	defer server.Close()

	transport, err := NewHTTPRelayTransport(server.URL, "test-key")
	if err != nil {
		t.Fatalf("NewHTTPRelayTransport() error = %v", err)
	}

	resp, err := transport.Send(context.Background(), relayMessage())
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp.ProviderMessageID != "relay-msg-1" {
		t.Fatalf("providerMessageId = %s, want relay-msg-1", resp.ProviderMessageID)
	}

	if received.From != "relay@agency.test" {
		t.Fatalf("relayed from = %s", received.From)
	}
	if len(received.To) != 1 || received.To[0] != "lead@customer.test" {
		t.Fatalf("relayed to = %v", received.To)
	}
	if received.Subject != "Spring launch" {
		t.Fatalf("relayed subject = %s", received.Subject)
	}
}

func TestHTTPRelayTransportMessageIDFromHeader(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Message-ID", "header-id-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	transport, err := NewHTTPRelayTransport(server.URL, "")
	if err != nil {
		t.Fatalf("NewHTTPRelayTransport() error = %v", err)
	}

	resp, err := transport.Send(context.Background(), relayMessage())
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp.ProviderMessageID != "header-id-1" {
		t.Fatalf("providerMessageId = %s, want header-id-1", resp.ProviderMessageID)
	}
}

func TestHTTPRelayTransportServerErrorIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	transport, err := NewHTTPRelayTransport(server.URL, "")
	if err != nil {
		t.Fatalf("NewHTTPRelayTransport() error = %v", err)
	}

	_, err = transport.Send(context.Background(), relayMessage())
	if err == nil {
		t.Fatal("expected Send() error")
	}

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error type = %T, want *TransportError", err)
	}
	if transportErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("statusCode = %d, want 502", transportErr.StatusCode)
	}
	if !transportErr.Transient {
		t.Fatal("5xx must be transient")
	}
	if !IsRelayError(err) {
		t.Fatal("expected relay-attributed error")
	}
}

func TestHTTPRelayTransportClientErrorIsPermanent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad payload", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	transport, err := NewHTTPRelayTransport(server.URL, "")
	if err != nil {
		t.Fatalf("NewHTTPRelayTransport() error = %v", err)
	}

	_, err = transport.Send(context.Background(), relayMessage())
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error type = %T, want *TransportError", err)
	}
	if transportErr.Transient {
		t.Fatal("4xx must be permanent")
	}
}

func TestHTTPRelayTransportRateLimitIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer server.Close()

	transport, err := NewHTTPRelayTransport(server.URL, "")
	if err != nil {
		t.Fatalf("NewHTTPRelayTransport() error = %v", err)
	}

	_, err = transport.Send(context.Background(), relayMessage())
	if !IsTransient(err) {
		t.Fatalf("429 error = %v, want transient", err)
	}
}

func TestNewHTTPRelayTransportValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewHTTPRelayTransport("", "key"); err == nil {
		t.Fatal("expected error for empty endpoint")
	}
	if _, err := NewHTTPRelayTransport("not a url", "key"); err == nil {
		t.Fatal("expected error for malformed endpoint")
	}
}
