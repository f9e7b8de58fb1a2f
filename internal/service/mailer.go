package service

import (
	"context"
	"log/slog"
)

// LogMailer writes account emails to the log instead of sending them
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a mailer for environments without an email provider
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// SendPasswordReset logs the reset link at debug level
func (m *LogMailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	m.logger.Info("password reset email", "to", to)
	m.logger.Debug("password reset link", "name", name, "link", link)
	return nil
}
