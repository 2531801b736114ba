package payments

import (
	"encoding/json"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
)

// PaymentNotice is the normalized outcome of a payment-related webhook
// event, handed to the caller for invoice reconciliation.
type PaymentNotice struct {
	EventType     string  `json:"eventType"`
	InvoiceID     string  `json:"invoiceId,omitempty"`
	PaymentID     string  `json:"paymentId,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	Currency      string  `json:"currency,omitempty"`
	CustomerEmail string  `json:"customerEmail,omitempty"`
	Status        string  `json:"status"`
	FailureReason string  `json:"failureReason,omitempty"`
	OccurredAt    string  `json:"occurredAt"`
}

// HandleEvent turns a verified Stripe event into a payment notice. Events
// we do not track return ok=false and are acknowledged without action.
func HandleEvent(event stripe.Event) (PaymentNotice, bool) {
	now := time.Now().UTC().Format(time.RFC3339)

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return PaymentNotice{}, false
		}
		notice := PaymentNotice{
			EventType:     string(event.Type),
			InvoiceID:     session.Metadata["invoiceId"],
			Amount:        float64(session.AmountTotal) / 100,
			Currency:      string(session.Currency),
			CustomerEmail: session.CustomerEmail,
			Status:        "paid",
			OccurredAt:    now,
		}
		if session.PaymentIntent != nil {
			notice.PaymentID = session.PaymentIntent.ID
		}
		return notice, true

	case "payment_intent.succeeded":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return PaymentNotice{}, false
		}
		return PaymentNotice{
			EventType:  string(event.Type),
			InvoiceID:  intent.Metadata["invoiceId"],
			PaymentID:  intent.ID,
			Amount:     float64(intent.Amount) / 100,
			Currency:   string(intent.Currency),
			Status:     "paid",
			OccurredAt: now,
		}, true

	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return PaymentNotice{}, false
		}
		notice := PaymentNotice{
			EventType:  string(event.Type),
			InvoiceID:  intent.Metadata["invoiceId"],
			PaymentID:  intent.ID,
			Status:     "failed",
			OccurredAt: now,
		}
		if intent.LastPaymentError != nil {
			notice.FailureReason = intent.LastPaymentError.Msg
		}
		return notice, true

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return PaymentNotice{}, false
		}
		return PaymentNotice{
			EventType:  string(event.Type),
			InvoiceID:  charge.Metadata["invoiceId"],
			PaymentID:  charge.ID,
			Amount:     float64(charge.AmountRefunded) / 100,
			Currency:   string(charge.Currency),
			Status:     "refunded",
			OccurredAt: now,
		}, true
	}

	return PaymentNotice{}, false
}
