package mailer

import "context"

// Message is the fully-resolved outbound email handed to a transport. All
// defaulting (sender fallback, reply-to fallback, text alternative, routing
// headers) has already happened by the time a transport sees it.
type Message struct {
	From        string
	ReplyTo     string
	To          []string
	Subject     string
	HTML        string
	Text        string
	Headers     map[string]string
	Attachments []Attachment
}

// Attachment mirrors domain.Attachment at the transport boundary so the
// mailer package stays importable without the domain package.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Response stores transport call metadata for audit and persistence.
type Response struct {
	ProviderMessageID string
}

// Transport is the outbound email delivery port.
type Transport interface {
	Send(ctx context.Context, msg *Message) (*Response, error)
}
