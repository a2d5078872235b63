// Package mail delivers password reset mail over SMTP.
package mail

import (
	"context"
	"log/slog"
	"strings"

	"authgate/config"
	"authgate/internal/domain/service"
	"authgate/internal/errors"

	gomail "github.com/wneessen/go-mail"
)

// sender is the subset of *gomail.Client used to deliver messages.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

type smtpMailer struct {
	from   string
	client sender
	logger *slog.Logger
}

// NewSMTPMailer builds a go-mail client from the smtp section. PLAIN auth is
// enabled only when a username is configured.
func NewSMTPMailer(cfg *config.SMTPConfig, logger *slog.Logger) (service.Mailer, error) {
	if cfg.From == "" {
		return nil, errors.New("smtp.from is required")
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(parseTLSPolicy(cfg.TLSPolicy)),
	}

	if cfg.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(cfg.Timeout))
	}

	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create smtp client")
	}

	return &smtpMailer{
		from:   cfg.From,
		client: client,
		logger: logger,
	}, nil
}

func (m *smtpMailer) SendPasswordReset(ctx context.Context, to, username, resetURL string) error {
	body, err := renderReset(username, resetURL)
	if err != nil {
		return err
	}

	return m.send(ctx, to, resetSubject, body)
}

func (m *smtpMailer) SendPasswordResetConfirmation(ctx context.Context, to, username string) error {
	body, err := renderConfirmation(username)
	if err != nil {
		return err
	}

	return m.send(ctx, to, resetConfirmSubject, body)
}

func (m *smtpMailer) send(ctx context.Context, to, subject string, body rendered) error {
	msg, err := m.newMessage(to, subject, body)
	if err != nil {
		return err
	}

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		m.logger.Error("Failed to send email",
			slog.String("to", to),
			slog.String("subject", subject),
			slog.Any("error", err))

		return errors.Wrap(err, "send email")
	}

	m.logger.Info("Email sent", slog.String("to", to), slog.String("subject", subject))

	return nil
}

func (m *smtpMailer) newMessage(to, subject string, body rendered) (*gomail.Msg, error) {
	msg := gomail.NewMsg()

	if err := msg.From(m.from); err != nil {
		return nil, errors.Wrap(err, "set sender")
	}

	if err := msg.To(to); err != nil {
		return nil, errors.Wrap(err, "set recipient")
	}

	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body.HTML)
	msg.AddAlternativeString(gomail.TypeTextPlain, body.Text)

	return msg, nil
}

func parseTLSPolicy(policy string) gomail.TLSPolicy {
	switch strings.ToLower(policy) {
	case "mandatory":
		return gomail.TLSMandatory
	case "none":
		return gomail.NoTLS
	default:
		return gomail.TLSOpportunistic
	}
}
