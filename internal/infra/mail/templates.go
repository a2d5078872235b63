package mail

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"

	"authgate/internal/errors"
)

const (
	resetSubject        = "Password reset request"
	resetConfirmSubject = "Your password has been changed"
)

type resetData struct {
	Username string
	ResetURL string
}

type rendered struct {
	HTML string
	Text string
}

var (
	resetHTML = htmltemplate.Must(htmltemplate.New("reset.html").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #222;">
    <h2>Reset your password</h2>
    <p>Hi {{.Username}},</p>
    <p>We received a request to reset your password. Use the link below to choose a new one.
    The link expires in one hour.</p>
    <p><a href="{{.ResetURL}}" style="background:#2563eb;color:#fff;padding:10px 16px;border-radius:4px;text-decoration:none;">Reset password</a></p>
    <p>If you did not request this, you can ignore this email.</p>
  </body>
</html>`))

	resetText = texttemplate.Must(texttemplate.New("reset.txt").Parse(`Hi {{.Username}},

We received a request to reset your password. Open the link below to choose a new one.
The link expires in one hour.

{{.ResetURL}}

If you did not request this, you can ignore this email.
`))

	confirmHTML = htmltemplate.Must(htmltemplate.New("confirm.html").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: Arial, sans-serif; color: #222;">
    <h2>Password changed</h2>
    <p>Hi {{.Username}},</p>
    <p>The password for your account was just changed. If this was not you, reset your password immediately.</p>
  </body>
</html>`))

	confirmText = texttemplate.Must(texttemplate.New("confirm.txt").Parse(`Hi {{.Username}},

The password for your account was just changed. If this was not you, reset your password immediately.
`))
)

func renderReset(username, resetURL string) (rendered, error) {
	return render(resetHTML, resetText, resetData{Username: username, ResetURL: resetURL})
}

func renderConfirmation(username string) (rendered, error) {
	return render(confirmHTML, confirmText, resetData{Username: username})
}

func render(html *htmltemplate.Template, text *texttemplate.Template, data resetData) (rendered, error) {
	var htmlBuf, textBuf bytes.Buffer

	if err := html.Execute(&htmlBuf, data); err != nil {
		return rendered{}, errors.Wrapf(err, "render %s", html.Name())
	}

	if err := text.Execute(&textBuf, data); err != nil {
		return rendered{}, errors.Wrapf(err, "render %s", text.Name())
	}

	return rendered{HTML: htmlBuf.String(), Text: textBuf.String()}, nil
}
