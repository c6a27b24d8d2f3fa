package mail

import "errors"

var (
	ErrFailedToSendEmail = errors.New("mail: failed to send email")
	ErrInvalidConfig     = errors.New("mail: invalid config")
	ErrInvalidParams     = errors.New("mail: invalid params")
)
