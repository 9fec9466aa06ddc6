package notification

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// SMTPSender delivers email over an authenticated SMTP connection.
type SMTPSender struct {
	Host     string
	Port     int
	From     string
	Password string
}

// NewSMTPSender builds a sender for the given SMTP account.
func NewSMTPSender(host string, port int, from, password string) *SMTPSender {
	return &SMTPSender{Host: host, Port: port, From: from, Password: password}
}

func (s *SMTPSender) SendEmail(_ context.Context, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	auth := smtp.PlainAuth("", s.From, s.Password, s.Host)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(addr, auth, s.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogSender writes emails to the log instead of delivering them. Used when
// email is disabled so the rest of the flow stays observable.
type LogSender struct {
	log zerolog.Logger
}

// NewLogSender returns a sender that only logs.
func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("simulated email (delivery disabled)")
	return nil
}

// SentEmail records one call to a MockEmailSender.
type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender records sent emails for tests.
type MockEmailSender struct {
	mu       sync.Mutex
	sent     []SentEmail
	FailWith error
}

func (s *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	s.sent = append(s.sent, SentEmail{To: to, Subject: subject, Body: body})
	return nil
}

// Calls returns a copy of all recorded emails.
func (s *MockEmailSender) Calls() []SentEmail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentEmail, len(s.sent))
	copy(out, s.sent)
	return out
}
