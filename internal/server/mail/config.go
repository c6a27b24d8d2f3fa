// Package mail renders and delivers account email: the welcome message and
// the password reset link. Delivery goes through Postmark, plain SMTP, or a
// development sender that writes messages to disk.
package mail

// Config selects and configures the delivery backend. Postmark is used when
// both tokens are set, SMTP when SMTPHost is set, the dev sender otherwise.
type Config struct {
	PostmarkServerToken  string
	PostmarkAccountToken string
	SMTPHost             string
	SMTPPort             int
	SMTPUser             string
	SMTPPassword         string
	SenderEmail          string
	SupportEmail         string
	DevDir               string
}
