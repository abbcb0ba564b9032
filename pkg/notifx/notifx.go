package notifx

import (
	"context"
	"strings"
)

// EmailSender sends a single email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage, opts ...Option) error
}

// Client is the main entry point for sending notifications.
type Client struct {
	provider  EmailSender
	templates *TemplateRegistry
	from      string
}

// NewClient creates a new notification client. from is used when a
// message has no sender of its own.
func NewClient(provider EmailSender, from string) *Client {
	return &Client{
		provider:  provider,
		templates: NewTemplateRegistry(),
		from:      from,
	}
}

// SendEmail validates msg and hands it to the provider.
func (c *Client) SendEmail(ctx context.Context, msg EmailMessage, opts ...Option) error {
	if c.provider == nil {
		return notifxErrors.New(ErrNoProvider)
	}
	if len(msg.To) == 0 {
		return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "no recipients")
	}
	for _, to := range msg.To {
		if !strings.Contains(to, "@") {
			return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "invalid recipient")
		}
	}
	if msg.Subject == "" {
		return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "empty subject")
	}
	if msg.From == "" {
		msg.From = c.from
	}

	if err := c.provider.SendEmail(ctx, msg, opts...); err != nil {
		return notifxErrors.NewWithCause(ErrSendFailed, err).WithDetail("subject", msg.Subject)
	}
	return nil
}

// RegisterTemplate parses and stores a named subject and body pair.
func (c *Client) RegisterTemplate(name, subject, body string) error {
	return c.templates.Register(name, subject, body)
}

// SendTemplatedEmail renders a template and sends the resulting email.
func (c *Client) SendTemplatedEmail(ctx context.Context, templateName string, data any, msg EmailMessage, opts ...Option) error {
	subject, body, err := c.templates.Render(templateName, data)
	if err != nil {
		return err
	}

	msg.Subject = subject
	msg.HTMLBody = body
	return c.SendEmail(ctx, msg, opts...)
}
