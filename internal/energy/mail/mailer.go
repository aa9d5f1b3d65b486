// Package mail delivers account notifications over SMTP. Delivery is a
// best-effort collaborator: callers treat every send as advisory and never
// fail their own operation on a mail error.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

// Mailer is the delivery interface the services consume.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, username, resetLink string) error
	SendWelcome(ctx context.Context, to, username string) error
}

// SMTPMailer sends through a configured SMTP relay.
type SMTPMailer struct {
	dialer  *gomail.Dialer
	from    string
	appName string
}

func NewSMTPMailer(host string, port int, username, password, from, appName string) *SMTPMailer {
	return &SMTPMailer{
		dialer:  gomail.NewDialer(host, port, username, password),
		from:    from,
		appName: appName,
	}
}

func (s *SMTPMailer) SendPasswordReset(ctx context.Context, to, username, resetLink string) error {
	body, err := render(resetTemplate, map[string]string{
		"AppName":   s.appName,
		"Username":  username,
		"ResetLink": resetLink,
	})
	if err != nil {
		return fmt.Errorf("mail: render reset template: %w", err)
	}
	return s.send(to, s.appName+" - Password Reset Request", body)
}

func (s *SMTPMailer) SendWelcome(ctx context.Context, to, username string) error {
	body, err := render(welcomeTemplate, map[string]string{
		"AppName":  s.appName,
		"Username": username,
	})
	if err != nil {
		return fmt.Errorf("mail: render welcome template: %w", err)
	}
	return s.send(to, "Welcome to "+s.appName+"!", body)
}

func (s *SMTPMailer) send(to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	return s.dialer.DialAndSend(m)
}

func render(tmpl *template.Template, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var resetTemplate = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Password Reset Request</h1>
  <p>Hello <strong>{{.Username}}</strong>,</p>
  <p>You requested to reset your password for {{.AppName}}.</p>
  <p><a href="{{.ResetLink}}">Reset Password</a></p>
  <p>This link will expire in 1 hour.</p>
  <p>If you did not request this reset, ignore this email and your password
  will remain unchanged.</p>
  <p>Best regards,<br>The {{.AppName}} Team</p>
</body>
</html>`))

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Welcome to {{.AppName}}!</h1>
  <p>Hello <strong>{{.Username}}</strong>,</p>
  <p>Your account has been created. You can now log in and start monitoring
  your tile energy production.</p>
  <p>Best regards,<br>The {{.AppName}} Team</p>
</body>
</html>`))
