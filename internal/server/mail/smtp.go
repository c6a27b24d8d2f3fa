package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

type smtpSender struct {
	addr   string
	auth   smtp.Auth
	from   string
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	config Config
}

// NewSMTPSender delivers through an SMTP relay with PLAIN auth. STARTTLS is
// negotiated by net/smtp when the server offers it.
func NewSMTPSender(cfg Config) (EmailSender, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("%w: SMTPHost is required", ErrInvalidConfig)
	}
	if err := validateAddresses(cfg); err != nil {
		return nil, err
	}

	port := cfg.SMTPPort
	if port == 0 {
		port = 587
	}

	var auth smtp.Auth
	if cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}

	return &smtpSender{
		addr:   net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(port)),
		auth:   auth,
		from:   cfg.SenderEmail,
		send:   smtp.SendMail,
		config: cfg,
	}, nil
}

func (s *smtpSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}

	msg := buildMessage(s.from, s.config.SupportEmail, params, time.Now())
	if err := s.send(s.addr, s.auth, s.from, []string{params.SendTo}, msg); err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	return nil
}

func buildMessage(from, replyTo string, params SendEmailParams, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + params.SendTo + "\r\n")
	if replyTo != "" {
		b.WriteString("Reply-To: " + replyTo + "\r\n")
	}
	b.WriteString("Subject: " + params.Subject + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(params.BodyHTML)
	return []byte(b.String())
}
