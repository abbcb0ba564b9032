package notifxconsole

import (
	"context"
	"strings"
	"sync"

	"github.com/fieldops360/auth-service/pkg/logx"
	"github.com/fieldops360/auth-service/pkg/notifx"
)

// ConsoleProvider prints emails via logx and keeps the last ones in
// memory. Intended for development and testing.
type ConsoleProvider struct {
	mu     sync.Mutex
	outbox []notifx.EmailMessage
	limit  int
}

// NewConsoleProvider creates a console provider remembering up to 100
// messages.
func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{limit: 100}
}

// SendEmail logs the email details instead of sending it.
func (p *ConsoleProvider) SendEmail(_ context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	so := notifx.ApplySendOptions(opts)
	logx.WithFields(logx.Fields{
		"from":    msg.From,
		"to":      strings.Join(msg.To, ", "),
		"subject": msg.Subject,
		"tags":    so.Tags,
	}).Info("notifx/console: email sent (dev mode)")

	if msg.TextBody != "" {
		logx.Debugf("notifx/console: text body:\n%s", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		logx.Debugf("notifx/console: html body:\n%s", msg.HTMLBody)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.outbox = append(p.outbox, msg)
	if len(p.outbox) > p.limit {
		p.outbox = p.outbox[len(p.outbox)-p.limit:]
	}
	return nil
}

// Sent returns a copy of the remembered messages, oldest first.
func (p *ConsoleProvider) Sent() []notifx.EmailMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notifx.EmailMessage(nil), p.outbox...)
}
