package mail

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"authgate/config"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "github.com/wneessen/go-mail"
)

type recordingSender struct {
	messages []*gomail.Msg
	err      error
}

func (s *recordingSender) DialAndSendWithContext(_ context.Context, messages ...*gomail.Msg) error {
	s.messages = append(s.messages, messages...)

	return s.err
}

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRenderReset(t *testing.T) {
	body, err := renderReset("ada<script>", "https://app.example.com/reset-password?token=abc123")
	require.NoError(t, err)

	assert.Contains(t, body.HTML, `href="https://app.example.com/reset-password?token=abc123"`)
	assert.Contains(t, body.HTML, "ada&lt;script&gt;")
	assert.NotContains(t, body.HTML, "<script>")
	assert.Contains(t, body.Text, "https://app.example.com/reset-password?token=abc123")
	assert.Contains(t, body.Text, "Hi ada<script>,")
}

func TestRenderConfirmation(t *testing.T) {
	body, err := renderConfirmation("ada")
	require.NoError(t, err)

	assert.Contains(t, body.HTML, "Hi ada,")
	assert.Contains(t, body.Text, "password for your account was just changed")
}

func TestSMTPMailer_SendPasswordReset(t *testing.T) {
	sender := &recordingSender{}
	mailer := &smtpMailer{from: "no-reply@example.com", client: sender, logger: newDiscardLogger()}

	err := mailer.SendPasswordReset(context.Background(), "ada@example.com", "ada", "https://app.example.com/reset-password?token=t")
	require.NoError(t, err)
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	recipients, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"ada@example.com"}, recipients)
	assert.Equal(t, []string{resetSubject}, msg.GetGenHeader(gomail.HeaderSubject))
}

func TestSMTPMailer_SendFailure(t *testing.T) {
	sender := &recordingSender{err: errors.New("connection refused")}
	mailer := &smtpMailer{from: "no-reply@example.com", client: sender, logger: newDiscardLogger()}

	err := mailer.SendPasswordResetConfirmation(context.Background(), "ada@example.com", "ada")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSMTPMailer_InvalidRecipient(t *testing.T) {
	sender := &recordingSender{}
	mailer := &smtpMailer{from: "no-reply@example.com", client: sender, logger: newDiscardLogger()}

	err := mailer.SendPasswordReset(context.Background(), "not an address", "ada", "https://example.com")
	assert.Error(t, err)
	assert.Empty(t, sender.messages)
}

func TestNewMailer_SelectsImplementation(t *testing.T) {
	logger := newDiscardLogger()

	mailer, err := NewMailer(MailerParams{Config: &config.Config{}, Logger: logger})
	require.NoError(t, err)
	assert.IsType(t, &logMailer{}, mailer)

	cfg := &config.Config{SMTP: &config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "user",
		Password: "pass",
		From:     "no-reply@example.com",
	}}
	mailer, err = NewMailer(MailerParams{Config: cfg, Logger: logger})
	require.NoError(t, err)
	assert.IsType(t, &smtpMailer{}, mailer)

	cfg.SMTP.From = ""
	_, err = NewMailer(MailerParams{Config: cfg, Logger: logger})
	assert.Error(t, err)
}

func TestParseTLSPolicy(t *testing.T) {
	assert.Equal(t, gomail.TLSMandatory, parseTLSPolicy("mandatory"))
	assert.Equal(t, gomail.NoTLS, parseTLSPolicy("NONE"))
	assert.Equal(t, gomail.TLSOpportunistic, parseTLSPolicy(""))
}

func TestLogMailer_NeverFails(t *testing.T) {
	mailer := NewLogMailer(newDiscardLogger())

	assert.NoError(t, mailer.SendPasswordReset(context.Background(), "ada@example.com", "ada", "https://example.com"))
	assert.NoError(t, mailer.SendPasswordResetConfirmation(context.Background(), "ada@example.com", "ada"))
}
