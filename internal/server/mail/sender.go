package mail

import (
	"context"
	"fmt"
	"strings"
)

// EmailSender delivers one rendered message.
type EmailSender interface {
	SendEmail(ctx context.Context, params SendEmailParams) error
}

type SendEmailParams struct {
	SendTo   string `json:"send_to"`
	Subject  string `json:"subject"`
	BodyHTML string `json:"body_html"`
	Tag      string `json:"tag,omitempty"`
}

// Validate checks the fields every sender needs.
func (p SendEmailParams) Validate() error {
	if strings.TrimSpace(p.SendTo) == "" {
		return fmt.Errorf("%w: SendTo is required", ErrInvalidParams)
	}
	if !validAddress(p.SendTo) {
		return fmt.Errorf("%w: SendTo must be a valid email address", ErrInvalidParams)
	}
	if strings.TrimSpace(p.Subject) == "" {
		return fmt.Errorf("%w: Subject is required", ErrInvalidParams)
	}
	if strings.TrimSpace(p.BodyHTML) == "" {
		return fmt.Errorf("%w: BodyHTML is required", ErrInvalidParams)
	}
	return nil
}

// NewSender picks the delivery backend described by cfg.
func NewSender(cfg Config) (EmailSender, error) {
	switch {
	case cfg.PostmarkServerToken != "" && cfg.PostmarkAccountToken != "":
		return NewPostmarkClient(cfg)
	case cfg.SMTPHost != "":
		return NewSMTPSender(cfg)
	default:
		return NewDevSender(cfg.DevDir), nil
	}
}
