package mail

import (
	"context"
	"log/slog"

	"authgate/internal/domain/service"
)

// logMailer writes mail to the log instead of sending it. Used when no SMTP host is configured.
type logMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) service.Mailer {
	return &logMailer{logger: logger}
}

func (m *logMailer) SendPasswordReset(_ context.Context, to, username, resetURL string) error {
	m.logger.Info("Password reset email (not sent, smtp disabled)",
		slog.String("to", to),
		slog.String("username", username),
		slog.String("reset_url", resetURL))

	return nil
}

func (m *logMailer) SendPasswordResetConfirmation(_ context.Context, to, username string) error {
	m.logger.Info("Password changed email (not sent, smtp disabled)",
		slog.String("to", to),
		slog.String("username", username))

	return nil
}
