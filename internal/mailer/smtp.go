package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"strings"
	"time"

	mail "github.com/go-mail/mail"
	"github.com/google/uuid"
)

const defaultSMTPTimeout = 30 * time.Second

// SMTPConfig describes one SMTP sending identity.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// TLSMode is one of "auto", "starttls", "ssl", "none". Empty means auto.
	TLSMode            string
	InsecureSkipVerify bool
}

// SMTPTransport delivers messages through a single authenticated SMTP
// account. One instance exists per pool account and is owned exclusively by
// the account pool.
type SMTPTransport struct {
	cfg  SMTPConfig
	send func(m *mail.Message) error
}

func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port <= 0 {
		return nil, fmt.Errorf("smtp port is required")
	}
	if strings.TrimSpace(cfg.Username) == "" {
		return nil, fmt.Errorf("smtp username is required")
	}

	t := &SMTPTransport{cfg: cfg}
	t.send = t.dialAndSend
	return t, nil
}

func (t *SMTPTransport) Send(ctx context.Context, msg *Message) (*Response, error) {
	if t == nil || t.send == nil {
		return nil, fmt.Errorf("smtp transport is not initialized")
	}
	if msg == nil {
		return nil, fmt.Errorf("message is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := buildMIMEMessage(msg)

	// SMTP has no provider-side identifier; generate the Message-ID header
	// ourselves so callers still get a stable handle.
	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), t.cfg.Host)
	m.SetHeader("Message-ID", messageID)

	if err := t.send(m); err != nil {
		return nil, &TransportError{
			Transport: TransportNameAccount,
			Message:   fmt.Sprintf("smtp send via %s failed", t.cfg.Host),
			Transient: true,
			Cause:     err,
		}
	}

	return &Response{ProviderMessageID: messageID}, nil
}

func (t *SMTPTransport) dialAndSend(m *mail.Message) error {
	return t.dialer().DialAndSend(m)
}

func (t *SMTPTransport) dialer() *mail.Dialer {
	d := mail.NewDialer(t.cfg.Host, t.cfg.Port, t.cfg.Username, t.cfg.Password)
	d.Timeout = defaultSMTPTimeout
	d.TLSConfig = &tls.Config{
		ServerName:         t.cfg.Host,
		InsecureSkipVerify: t.cfg.InsecureSkipVerify,
	}

	switch strings.ToLower(t.cfg.TLSMode) {
	case "ssl":
		d.SSL = true
	case "starttls":
		d.StartTLSPolicy = mail.MandatoryStartTLS
	case "none":
		d.StartTLSPolicy = mail.NoStartTLS
	default:
		// "auto": STARTTLS is negotiated when offered.
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	}

	return d
}

func buildMIMEMessage(msg *Message) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	if msg.ReplyTo != "" {
		m.SetHeader("Reply-To", msg.ReplyTo)
	}
	for key, value := range msg.Headers {
		m.SetHeader(key, value)
	}

	// Prefer multipart/alternative with the plain text part first.
	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		if msg.HTML != "" {
			m.AddAlternative("text/html", msg.HTML)
		}
	} else {
		m.SetBody("text/html", msg.HTML)
	}

	for _, att := range msg.Attachments {
		content := att.Content
		settings := []mail.FileSetting{
			mail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		if att.ContentType != "" {
			settings = append(settings, mail.SetHeader(map[string][]string{
				"Content-Type": {att.ContentType},
			}))
		}
		m.Attach(att.Filename, settings...)
	}

	return m
}
