package notifx

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	"sync"
	texttemplate "text/template"
)

type emailTemplate struct {
	subject *texttemplate.Template
	body    *htmltemplate.Template
}

// TemplateRegistry stores named subject and body templates. Bodies are
// html/template so data is escaped.
type TemplateRegistry struct {
	templates map[string]emailTemplate
	mu        sync.RWMutex
}

// NewTemplateRegistry creates a new template registry.
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]emailTemplate),
	}
}

// Register parses and stores a template by name.
func (r *TemplateRegistry) Register(name, subject, body string) error {
	s, err := texttemplate.New(name + ":subject").Parse(subject)
	if err != nil {
		return notifxErrors.NewWithCause(ErrTemplateParse, err).WithDetail("template", name)
	}
	b, err := htmltemplate.New(name + ":body").Parse(body)
	if err != nil {
		return notifxErrors.NewWithCause(ErrTemplateParse, err).WithDetail("template", name)
	}

	r.mu.Lock()
	r.templates[name] = emailTemplate{subject: s, body: b}
	r.mu.Unlock()

	return nil
}

// Render executes the named template and returns subject and body.
func (r *TemplateRegistry) Render(name string, data any) (string, string, error) {
	r.mu.RLock()
	t, ok := r.templates[name]
	r.mu.RUnlock()

	if !ok {
		return "", "", notifxErrors.New(ErrTemplateNotFound).WithDetail("template", name)
	}

	var subject, body bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return "", "", notifxErrors.NewWithCause(ErrTemplateRender, err).WithDetail("template", name)
	}
	if err := t.body.Execute(&body, data); err != nil {
		return "", "", notifxErrors.NewWithCause(ErrTemplateRender, err).WithDetail("template", name)
	}

	return strings.TrimSpace(subject.String()), body.String(), nil
}
