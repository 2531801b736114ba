package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"conicore/internal/payments"
)

// PaymentHandler handles the Stripe Connect endpoints.
type PaymentHandler struct {
	gateway *payments.Gateway
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(gateway *payments.Gateway) *PaymentHandler {
	return &PaymentHandler{gateway: gateway}
}

type linkRequest struct {
	InvoiceID       string  `json:"invoiceId"`
	InvoiceNumber   string  `json:"invoiceNumber"`
	Amount          float64 `json:"amount"`
	Currency        string  `json:"currency"`
	CustomerName    string  `json:"customerName"`
	CustomerEmail   string  `json:"customerEmail"`
	BusinessID      string  `json:"businessId"`
	StripeAccountID string  `json:"businessStripeAccountId"`
	Description     string  `json:"description"`
}

// CreateLink handles POST /api/v1/payments/links
func (h *PaymentHandler) CreateLink(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	link, err := h.gateway.CreateLink(payments.LinkRequest{
		InvoiceID:       req.InvoiceID,
		InvoiceNumber:   req.InvoiceNumber,
		Amount:          req.Amount,
		Currency:        req.Currency,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		BusinessID:      req.BusinessID,
		StripeAccountID: req.StripeAccountID,
		Description:     req.Description,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, link)
}

type onboardRequest struct {
	BusinessID   string `json:"businessId"`
	BusinessName string `json:"businessName"`
	Email        string `json:"email"`
	Country      string `json:"country"`
	BusinessType string `json:"businessType"`
	RefreshURL   string `json:"refreshUrl"`
	ReturnURL    string `json:"returnUrl"`
}

// Onboard handles POST /api/v1/payments/onboard
func (h *PaymentHandler) Onboard(c *gin.Context) {
	var req onboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	onboarding, err := h.gateway.Onboard(payments.OnboardRequest{
		BusinessID:   req.BusinessID,
		BusinessName: req.BusinessName,
		Email:        req.Email,
		Country:      req.Country,
		BusinessType: req.BusinessType,
		RefreshURL:   req.RefreshURL,
		ReturnURL:    req.ReturnURL,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, onboarding)
}

// Webhook handles POST /api/v1/payments/webhook. The raw body is needed
// for signature verification, so this endpoint skips JSON binding.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "could not read webhook body")
		return
	}

	event, err := h.gateway.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		HandleError(c, err)
		return
	}

	if notice, ok := payments.HandleEvent(event); ok {
		log.Printf("payment event %s for invoice %s: %s", notice.EventType, notice.InvoiceID, notice.Status)
		RespondOK(c, gin.H{"received": true, "eventType": event.Type, "notice": notice})
		return
	}
	RespondOK(c, gin.H{"received": true, "eventType": event.Type})
}
