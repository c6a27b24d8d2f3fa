package mail

import (
	"bytes"
	"context"
	"html/template"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	tagWelcome       = "welcome"
	tagPasswordReset = "password-reset"
)

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Welcome {{.Name}}!</h2>
  <p>Thank you for registering with us. Your account has been successfully created.</p>
  <p>You can now log in and start using our services.</p>
  <p style="color: #666; font-size: 14px; margin-top: 32px;">Best regards,<br/>The Team</p>
</div>
`))

var resetTmpl = template.Must(template.New("reset").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Password Reset Request</h2>
  <p>You requested to reset your password. Click the button below to reset it:</p>
  <a href="{{.Link}}" style="display: inline-block; padding: 12px 24px; background-color: #007bff; color: white; text-decoration: none; border-radius: 4px; margin: 16px 0;">Reset Password</a>
  <p style="color: #666; font-size: 14px;">Or copy and paste this link in your browser:</p>
  <p style="color: #007bff; word-break: break-all;">{{.Link}}</p>
  <p style="color: #666; font-size: 14px;">This link will expire in {{.ExpiresIn}}.</p>
  <p style="color: #666; font-size: 14px;">If you didn't request this, please ignore this email.</p>
</div>
`))

// Mailer renders account messages and hands them to an EmailSender.
type Mailer struct {
	sender   EmailSender
	appURL   string
	resetTTL time.Duration
}

func NewMailer(sender EmailSender, appURL string, resetTTL time.Duration) *Mailer {
	return &Mailer{sender: sender, appURL: strings.TrimRight(appURL, "/"), resetTTL: resetTTL}
}

// SendWelcome greets name, or "there" when no name was given.
func (m *Mailer) SendWelcome(ctx context.Context, email, name string) error {
	if name == "" {
		name = "there"
	}

	body, err := render(welcomeTmpl, struct{ Name string }{name})
	if err != nil {
		return err
	}

	return m.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   email,
		Subject:  "Welcome to Our App!",
		BodyHTML: body,
		Tag:      tagWelcome,
	})
}

// SendPasswordReset mails the reset link carrying secret.
func (m *Mailer) SendPasswordReset(ctx context.Context, email, secret string) error {
	body, err := render(resetTmpl, struct {
		Link      string
		ExpiresIn string
	}{m.ResetLink(secret), humanDuration(m.resetTTL)})
	if err != nil {
		return err
	}

	return m.sender.SendEmail(ctx, SendEmailParams{
		SendTo:   email,
		Subject:  "Password Reset Request",
		BodyHTML: body,
		Tag:      tagPasswordReset,
	})
}

// ResetLink builds <appURL>/auth/reset-password?token=<secret>.
func (m *Mailer) ResetLink(secret string) string {
	return m.appURL + "/auth/reset-password?token=" + url.QueryEscape(secret)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a short while"
	case d%time.Hour == 0 && d >= time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute:
		return plural(int(d/time.Minute), "minute")
	default:
		return plural(int(d/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	s := strconv.Itoa(n) + " " + unit
	if n != 1 {
		s += "s"
	}
	return s
}
