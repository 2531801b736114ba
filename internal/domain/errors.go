package domain

import "errors"

var (
	ErrNoImage            = errors.New("no image provided")
	ErrNoText             = errors.New("no text provided")
	ErrNoMessage          = errors.New("no message provided")
	ErrUnknownTaskKind    = errors.New("unknown task kind")
	ErrUnknownProvider    = errors.New("unknown provider")
	ErrMissingFields      = errors.New("missing required fields")
	ErrStripeUnconfigured = errors.New("stripe is not configured")
	ErrWhatsAppUnconfigured = errors.New("whatsapp is not configured")
	ErrWebhookSignature   = errors.New("webhook signature verification failed")
	ErrRecipientNotOnWhatsApp = errors.New("recipient is not registered on whatsapp")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)
