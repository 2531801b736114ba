package noop

import (
	"context"
	"log"

	"conicore/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs follow-ups instead
// of delivering them.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendFollowUp(_ context.Context, toEmail, toName, subject, _ string) error {
	log.Printf("[NOOP EMAIL] Follow-up for %s (%s): %s", toName, toEmail, subject)
	return nil
}
