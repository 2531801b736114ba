package port

import "context"

// EmailSender delivers generated follow-up messages to customers.
type EmailSender interface {
	SendFollowUp(ctx context.Context, toEmail, toName, subject, body string) error
}
