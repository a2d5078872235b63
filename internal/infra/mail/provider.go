package mail

import (
	"log/slog"

	"authgate/config"
	"authgate/internal/domain/service"

	"go.uber.org/fx"
)

// MailerParams holds dependencies for creating a Mailer
type MailerParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// NewMailer returns the SMTP mailer, or the log mailer when smtp.host is empty.
func NewMailer(params MailerParams) (service.Mailer, error) {
	smtpCfg := params.Config.SMTP
	if smtpCfg == nil || smtpCfg.Host == "" {
		params.Logger.Warn("SMTP host not configured, password reset mail will only be logged")

		return NewLogMailer(params.Logger), nil
	}

	params.Logger.Info("Using SMTP mailer",
		slog.String("host", smtpCfg.Host),
		slog.Int("port", smtpCfg.Port))

	return NewSMTPMailer(smtpCfg, params.Logger)
}
