package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	mail "github.com/go-mail/mail"
)

func TestNewSMTPTransportValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  SMTPConfig
	}{
		{"missing host", SMTPConfig{Port: 587, Username: "a@agency.test", Password: "s"}},
		{"missing port", SMTPConfig{Host: "smtp.agency.test", Username: "a@agency.test", Password: "s"}},
		{"missing username", SMTPConfig{Host: "smtp.agency.test", Port: 587, Password: "s"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := NewSMTPTransport(tc.cfg); err == nil {
				t.Fatal("expected constructor error")
			}
		})
	}
}

func TestSMTPTransportSendGeneratesMessageID(t *testing.T) {
	t.Parallel()

	transport, err := NewSMTPTransport(SMTPConfig{
		Host:     "smtp.agency.test",
		Port:     587,
		Username: "a@agency.test",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("NewSMTPTransport() error = %v", err)
	}

	var sent *mail.Message
	transport.send = func(m *mail.Message) error {
		sent = m
		return nil
	}

	resp, err := transport.Send(context.Background(), &Message{
		From:    "a@agency.test",
		To:      []string{"lead@customer.test"},
		Subject: "Hello",
		HTML:    "<p>Hi</p>",
		Text:    "Hi",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if sent == nil {
		t.Fatal("send func was not invoked")
	}
	if !strings.HasPrefix(resp.ProviderMessageID, "<") || !strings.HasSuffix(resp.ProviderMessageID, "@smtp.agency.test>") {
		t.Fatalf("providerMessageId = %s, want generated message id", resp.ProviderMessageID)
	}
	if got := sent.GetHeader("Message-ID"); len(got) != 1 || got[0] != resp.ProviderMessageID {
		t.Fatalf("Message-ID header = %v, want %s", got, resp.ProviderMessageID)
	}
}

func TestSMTPTransportSendFailureWrapsTransportError(t *testing.T) {
	t.Parallel()

	transport, err := NewSMTPTransport(SMTPConfig{
		Host:     "smtp.agency.test",
		Port:     587,
		Username: "a@agency.test",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("NewSMTPTransport() error = %v", err)
	}

	cause := errors.New("connection refused")
	transport.send = func(m *mail.Message) error { return cause }

	_, err = transport.Send(context.Background(), &Message{
		From:    "a@agency.test",
		To:      []string{"lead@customer.test"},
		Subject: "Hello",
		HTML:    "<p>Hi</p>",
	})

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error type = %T, want *TransportError", err)
	}
	if transportErr.Transport != TransportNameAccount {
		t.Fatalf("transport = %s, want account", transportErr.Transport)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause must be wrapped")
	}
}

func TestSMTPTransportDialerTLSModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode       string
		wantSSL    bool
		wantPolicy mail.StartTLSPolicy
	}{
		{"", false, mail.OpportunisticStartTLS},
		{"auto", false, mail.OpportunisticStartTLS},
		{"starttls", false, mail.MandatoryStartTLS},
		{"STARTTLS", false, mail.MandatoryStartTLS},
		{"ssl", true, mail.OpportunisticStartTLS},
		{"none", false, mail.NoStartTLS},
	}

	for _, tc := range tests {
		tc := tc
		t.Run("mode "+tc.mode, func(t *testing.T) {
			t.Parallel()

			transport, err := NewSMTPTransport(SMTPConfig{
				Host:     "smtp.agency.test",
				Port:     587,
				Username: "a@agency.test",
				Password: "secret",
				TLSMode:  tc.mode,
			})
			if err != nil {
				t.Fatalf("NewSMTPTransport() error = %v", err)
			}

			d := transport.dialer()
			if d.SSL != tc.wantSSL {
				t.Fatalf("SSL = %v, want %v", d.SSL, tc.wantSSL)
			}
			if d.StartTLSPolicy != tc.wantPolicy {
				t.Fatalf("StartTLSPolicy = %v, want %v", d.StartTLSPolicy, tc.wantPolicy)
			}
		})
	}
}

func TestSMTPTransportSendRespectsCanceledContext(t *testing.T) {
	t.Parallel()

	transport, err := NewSMTPTransport(SMTPConfig{
		Host:     "smtp.agency.test",
		Port:     587,
		Username: "a@agency.test",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("NewSMTPTransport() error = %v", err)
	}

	called := false
	transport.send = func(m *mail.Message) error {
		called = true
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = transport.Send(ctx, &Message{From: "a@agency.test", To: []string{"b@customer.test"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Send() error = %v, want context.Canceled", err)
	}
	if called {
		t.Fatal("send must not run after cancellation")
	}
}
