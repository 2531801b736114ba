// Package payments integrates Stripe Connect: hosted checkout links with a
// platform commission split, Express account onboarding, and webhook
// verification.
package payments

import (
	"fmt"
	"math"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"conicore/internal/config"
	"conicore/internal/domain"
)

// Gateway wraps the Stripe API client for the platform account.
type Gateway struct {
	api               *client.API
	webhookSecret     string
	commissionPercent float64
	appURL            string
}

// NewGateway builds a gateway from configuration. With no secret key the
// gateway stays constructible; operations fail with ErrStripeUnconfigured.
func NewGateway(cfg config.StripeConfig) *Gateway {
	g := &Gateway{
		webhookSecret:     cfg.WebhookSecret,
		commissionPercent: cfg.CommissionPercent,
		appURL:            strings.TrimRight(cfg.AppURL, "/"),
	}
	if g.commissionPercent == 0 {
		g.commissionPercent = 0.5
	}
	if cfg.SecretKey != "" {
		g.api = client.New(cfg.SecretKey, nil)
	}
	return g
}

// Split is the money breakdown for one payment link.
type Split struct {
	AmountCents           int64   `json:"amountCents"`
	CommissionCents       int64   `json:"commissionCents"`
	BusinessReceivesCents int64   `json:"businessReceivesCents"`
	StripeFeesCents       int64   `json:"stripeFeesCents"`
	BusinessNetCents      int64   `json:"businessNetCents"`
	CommissionPercent     float64 `json:"commissionPercent"`
}

// ComputeSplit works out the platform commission and the estimated Stripe
// processing fees (2.9% + R0.30 for South Africa) for an amount in major
// currency units.
func (g *Gateway) ComputeSplit(amount float64) Split {
	amountCents := int64(math.Round(amount * 100))
	commissionCents := int64(math.Round(float64(amountCents) * g.commissionPercent / 100))
	businessReceives := amountCents - commissionCents
	stripeFees := int64(math.Round(float64(amountCents)*0.029)) + 30
	return Split{
		AmountCents:           amountCents,
		CommissionCents:       commissionCents,
		BusinessReceivesCents: businessReceives,
		StripeFeesCents:       stripeFees,
		BusinessNetCents:      businessReceives - stripeFees,
		CommissionPercent:     g.commissionPercent,
	}
}

// LinkRequest describes one invoice payment link.
type LinkRequest struct {
	InvoiceID       string
	InvoiceNumber   string
	Amount          float64
	Currency        string
	CustomerName    string
	CustomerEmail   string
	BusinessID      string
	StripeAccountID string
	Description     string
}

// Link is a created checkout link plus its money breakdown.
type Link struct {
	URL       string `json:"paymentLinkUrl"`
	SessionID string `json:"sessionId"`
	Split     Split  `json:"split"`
}

// CreateLink creates a hosted checkout session for an invoice, splitting
// the platform commission to the connected business account.
func (g *Gateway) CreateLink(req LinkRequest) (*Link, error) {
	if g.api == nil {
		return nil, domain.ErrStripeUnconfigured
	}
	if req.InvoiceID == "" || req.Amount <= 0 || req.StripeAccountID == "" {
		return nil, fmt.Errorf("%w: invoiceId, amount, stripeAccountId", domain.ErrMissingFields)
	}

	split := g.ComputeSplit(req.Amount)
	currency := strings.ToLower(req.Currency)
	if currency == "" {
		currency = "zar"
	}
	label := req.InvoiceNumber
	if label == "" {
		label = req.InvoiceID
	}
	description := req.Description
	if description == "" {
		description = "Payment for invoice " + label
	}
	customerName := req.CustomerName
	if customerName == "" {
		customerName = "Customer"
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String("Invoice " + label),
					Description: stripe.String(description),
					Metadata: map[string]string{
						"invoiceId":    req.InvoiceID,
						"businessId":   req.BusinessID,
						"customerName": customerName,
					},
				},
				UnitAmount: stripe.Int64(split.AmountCents),
			},
			Quantity: stripe.Int64(1),
		}},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			ApplicationFeeAmount: stripe.Int64(split.CommissionCents),
			OnBehalfOf:           stripe.String(req.StripeAccountID),
			TransferData: &stripe.CheckoutSessionPaymentIntentDataTransferDataParams{
				Destination: stripe.String(req.StripeAccountID),
			},
		},
		SuccessURL:          stripe.String(fmt.Sprintf("%s/payment-success?invoice=%s", g.appURL, req.InvoiceID)),
		CancelURL:           stripe.String(fmt.Sprintf("%s/payment-cancelled?invoice=%s", g.appURL, req.InvoiceID)),
		AllowPromotionCodes: stripe.Bool(true),
		Metadata: map[string]string{
			"invoiceId":          req.InvoiceID,
			"invoiceNumber":      req.InvoiceNumber,
			"businessId":         req.BusinessID,
			"customerName":       req.CustomerName,
			"customerEmail":      req.CustomerEmail,
			"platformCommission": fmt.Sprintf("%.2f", float64(split.CommissionCents)/100),
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &Link{URL: session.URL, SessionID: session.ID, Split: split}, nil
}

// OnboardRequest describes a business joining the platform.
type OnboardRequest struct {
	BusinessID   string
	BusinessName string
	Email        string
	Country      string
	BusinessType string
	RefreshURL   string
	ReturnURL    string
}

// Onboarding is a created Express account plus its onboarding link.
type Onboarding struct {
	AccountID        string `json:"accountId"`
	OnboardingURL    string `json:"onboardingUrl"`
	DetailsSubmitted bool   `json:"detailsSubmitted"`
	ChargesEnabled   bool   `json:"chargesEnabled"`
	PayoutsEnabled   bool   `json:"payoutsEnabled"`
}

// Onboard creates a Stripe Express connected account for a business and
// returns the hosted onboarding link.
func (g *Gateway) Onboard(req OnboardRequest) (*Onboarding, error) {
	if g.api == nil {
		return nil, domain.ErrStripeUnconfigured
	}
	if req.BusinessName == "" || req.Email == "" {
		return nil, fmt.Errorf("%w: businessName, email", domain.ErrMissingFields)
	}
	country := req.Country
	if country == "" {
		country = "ZA"
	}
	businessType := req.BusinessType
	if businessType == "" {
		businessType = "company"
	}

	account, err := g.api.Accounts.New(&stripe.AccountParams{
		Type:    stripe.String(string(stripe.AccountTypeExpress)),
		Country: stripe.String(country),
		Email:   stripe.String(req.Email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
		BusinessType: stripe.String(businessType),
		BusinessProfile: &stripe.AccountBusinessProfileParams{
			Name:         stripe.String(req.BusinessName),
			SupportEmail: stripe.String(req.Email),
			MCC:          stripe.String("5734"),
		},
		Metadata: map[string]string{
			"businessId": req.BusinessID,
			"platform":   "conicore",
			"createdAt":  time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create express account: %w", err)
	}

	refreshURL := req.RefreshURL
	if refreshURL == "" {
		refreshURL = g.appURL + "/settings?stripe_refresh=true"
	}
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = g.appURL + "/settings?stripe_success=true"
	}

	link, err := g.api.AccountLinks.New(&stripe.AccountLinkParams{
		Account:    stripe.String(account.ID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	})
	if err != nil {
		return nil, fmt.Errorf("create onboarding link: %w", err)
	}

	return &Onboarding{
		AccountID:        account.ID,
		OnboardingURL:    link.URL,
		DetailsSubmitted: account.DetailsSubmitted,
		ChargesEnabled:   account.ChargesEnabled,
		PayoutsEnabled:   account.PayoutsEnabled,
	}, nil
}

// VerifyWebhook checks a webhook payload's signature and returns the event.
func (g *Gateway) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	if g.webhookSecret == "" {
		return stripe.Event{}, domain.ErrStripeUnconfigured
	}
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", domain.ErrWebhookSignature, err)
	}
	return event, nil
}
