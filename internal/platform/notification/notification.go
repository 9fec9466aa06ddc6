// Package notification delivers appointment lifecycle emails to patients
// and doctors. Delivery goes through an EmailSender so the server can run
// with real SMTP, a log-only sender, or a mock in tests.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Status of a tracked notification.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Notification is a single email tracked by the manager.
type Notification struct {
	ID         string     `json:"id"`
	Recipient  string     `json:"recipient"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	TemplateID string     `json:"template_id,omitempty"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	Attempts   int        `json:"attempts"`
	CreatedAt  time.Time  `json:"created_at"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
}

// EmailSender delivers a single email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Template is a named subject/body pair with {{placeholder}} slots.
type Template struct {
	ID      string
	Subject string
	Body    string
}

// TemplateEngine renders registered templates against a data map.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewTemplateEngine returns an engine preloaded with the appointment
// lifecycle templates.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]Template)}
	for _, t := range builtinTemplates {
		e.templates[t.ID] = t
	}
	return e
}

var builtinTemplates = []Template{
	{
		ID:      "welcome",
		Subject: "Welcome to MedTrack",
		Body:    "Hi {{name}},\n\nYour MedTrack {{role}} account is ready. You can sign in and manage your appointments at any time.",
	},
	{
		ID:      "appointment-booked",
		Subject: "New appointment with {{patient_name}}",
		Body:    "Dear Dr. {{doctor_name}},\n\n{{patient_name}} has booked an appointment with you on {{date}} at {{time}}.\n\nReason: {{reason}}",
	},
	{
		ID:      "appointment-completed",
		Subject: "Your appointment on {{date}} is complete",
		Body:    "Dear {{patient_name}},\n\nDr. {{doctor_name}} has marked your appointment on {{date}} at {{time}} as completed. Thank you for visiting.",
	},
	{
		ID:      "appointment-cancelled",
		Subject: "Your appointment on {{date}} was cancelled",
		Body:    "Dear {{patient_name}},\n\nYour appointment with Dr. {{doctor_name}} on {{date}} at {{time}} has been cancelled.",
	},
}

// Register adds or replaces a template.
func (e *TemplateEngine) Register(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = t
}

// Render fills a template's subject and body from data.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}
	return substitute(t.Subject, data), substitute(t.Body, data), nil
}

func substitute(s string, data map[string]string) string {
	for k, v := range data {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}

// Manager sends emails and keeps an in-memory record of every attempt.
type Manager struct {
	sender    EmailSender
	templates *TemplateEngine
	log       zerolog.Logger

	mu            sync.RWMutex
	notifications map[string]*Notification
}

// NewManager wires a manager around the given sender.
func NewManager(sender EmailSender, log zerolog.Logger) *Manager {
	return &Manager{
		sender:        sender,
		templates:     NewTemplateEngine(),
		log:           log,
		notifications: make(map[string]*Notification),
	}
}

// Templates exposes the engine so callers can register custom templates.
func (m *Manager) Templates() *TemplateEngine { return m.templates }

// Send delivers an email and records the outcome. A delivery failure is
// recorded on the notification and returned.
func (m *Manager) Send(ctx context.Context, to, subject, body string) (*Notification, error) {
	n := &Notification{
		ID:        uuid.NewString(),
		Recipient: to,
		Subject:   subject,
		Body:      body,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	m.notifications[n.ID] = n
	m.mu.Unlock()

	m.deliver(ctx, n)
	if n.Status == StatusFailed {
		return n, fmt.Errorf("send notification %s: %s", n.ID, n.Error)
	}
	return n, nil
}

// SendFromTemplate renders a registered template and sends the result.
func (m *Manager) SendFromTemplate(ctx context.Context, to, templateID string, data map[string]string) (*Notification, error) {
	subject, body, err := m.templates.Render(templateID, data)
	if err != nil {
		return nil, err
	}
	n, err := m.Send(ctx, to, subject, body)
	if n != nil {
		n.TemplateID = templateID
	}
	return n, err
}

func (m *Manager) deliver(ctx context.Context, n *Notification) {
	m.mu.Lock()
	n.Attempts++
	m.mu.Unlock()

	err := m.sender.SendEmail(ctx, n.Recipient, n.Subject, n.Body)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		n.Status = StatusFailed
		n.Error = err.Error()
		m.log.Error().Err(err).Str("notification_id", n.ID).Str("recipient", n.Recipient).Msg("email delivery failed")
		return
	}
	now := time.Now().UTC()
	n.Status = StatusSent
	n.Error = ""
	n.SentAt = &now
	m.log.Info().Str("notification_id", n.ID).Str("recipient", n.Recipient).Str("subject", n.Subject).Msg("email sent")
}

// Get returns a tracked notification by ID.
func (m *Manager) Get(id string) (*Notification, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notifications[id]
	return n, ok
}

// ListByRecipient returns every notification addressed to the recipient.
func (m *Manager) ListByRecipient(recipient string) []*Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Notification
	for _, n := range m.notifications {
		if n.Recipient == recipient {
			out = append(out, n)
		}
	}
	return out
}

// Retry re-attempts delivery of a failed notification.
func (m *Manager) Retry(ctx context.Context, id string) (*Notification, error) {
	m.mu.RLock()
	n, ok := m.notifications[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("notification %q not found", id)
	}
	if n.Status != StatusFailed {
		return nil, fmt.Errorf("notification %q is %s, only failed notifications can be retried", id, n.Status)
	}
	m.deliver(ctx, n)
	if n.Status == StatusFailed {
		return n, fmt.Errorf("retry notification %s: %s", n.ID, n.Error)
	}
	return n, nil
}

// Stats summarizes delivery outcomes.
type Stats struct {
	Total  int `json:"total"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Stats returns counts across all tracked notifications.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := Stats{Total: len(m.notifications)}
	for _, n := range m.notifications {
		switch n.Status {
		case StatusSent:
			s.Sent++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
