// Package email delivers notifications over SMTP.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/expenseflow/expenseflow/internal/application/port"
)

// Config holds the SMTP connection settings
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender implements port.EmailSender over plain SMTP
type Sender struct {
	config Config
	logger *zap.Logger
}

// NewSender creates a new SMTP sender
func NewSender(config Config, logger *zap.Logger) *Sender {
	return &Sender{config: config, logger: logger}
}

// Send delivers one plain-text message
func (s *Sender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := strings.Join([]string{
		"From: " + s.config.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		body,
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if err := smtp.SendMail(addr, auth, s.config.From, []string{to}, []byte(msg)); err != nil {
		s.logger.Error("Failed to send email", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

var _ port.EmailSender = (*Sender)(nil)
