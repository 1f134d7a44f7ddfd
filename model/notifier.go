package model

import "context"

// EmailType selects a transactional email template on the sending side.
type EmailType string

const (
	EmailPasswordReset EmailType = "password_reset"
	EmailVerification  EmailType = "email_verification"
)

// Notifier sends transactional email. A send failure never rolls back the
// state transition that preceded it: an issued token stays valid even when
// the email bounced, and callers log and continue.
type Notifier interface {
	Send(ctx context.Context, emailType EmailType, recipient string, data map[string]string) error
}
