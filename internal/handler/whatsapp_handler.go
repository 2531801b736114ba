package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"conicore/internal/domain"
	"conicore/internal/whatsapp"
)

// WhatsAppHandler handles the WhatsApp messaging endpoints.
type WhatsAppHandler struct {
	client *whatsapp.Client
}

// NewWhatsAppHandler creates a new WhatsAppHandler.
func NewWhatsAppHandler(client *whatsapp.Client) *WhatsAppHandler {
	return &WhatsAppHandler{client: client}
}

type sendRequest struct {
	RecipientPhone  string `json:"recipientPhone"`
	CompanyName     string `json:"companyName"`
	RegistrationURL string `json:"registrationUrl"`
	LoginCode       string `json:"loginCode"`
	MessageType     string `json:"messageType"`
	CustomMessage   string `json:"customMessage"`
}

// Send handles POST /api/v1/whatsapp/send
func (h *WhatsAppHandler) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if req.RecipientPhone == "" || req.CompanyName == "" || req.RegistrationURL == "" || req.LoginCode == "" {
		RespondError(c, http.StatusBadRequest, "MISSING_FIELDS",
			"missing required fields: recipientPhone, companyName, registrationUrl, loginCode")
		return
	}

	body := req.CustomMessage
	if body == "" {
		body = whatsapp.RegistrationMessage(req.CompanyName, req.RegistrationURL, req.LoginCode, req.MessageType)
	}

	result, err := h.client.Send(c.Request.Context(), req.RecipientPhone, body)
	if err != nil {
		// An unconfigured channel still produces the message text, so the
		// operator can deliver it by hand.
		if errors.Is(err, domain.ErrWhatsAppUnconfigured) {
			c.JSON(http.StatusOK, gin.H{
				"success":       false,
				"fallback":      "manual",
				"message":       "WhatsApp is not configured; send this message manually",
				"manualMessage": body,
			})
			return
		}
		if errors.Is(err, domain.ErrRecipientNotOnWhatsApp) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success":       false,
				"fallback":      "manual",
				"message":       "this phone number is not registered on WhatsApp",
				"manualMessage": body,
			})
			return
		}
		log.Printf("whatsapp send failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"success":       false,
			"fallback":      "manual",
			"message":       "WhatsApp delivery failed; send this message manually",
			"manualMessage": body,
		})
		return
	}

	RespondOK(c, gin.H{
		"messageId": result.MessageID,
		"recipient": result.Recipient,
		"status":    result.Status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Verify handles GET /api/v1/whatsapp/webhook: the Meta subscription
// handshake. The challenge must be echoed back as plain text.
func (h *WhatsAppHandler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.client.VerifyToken() {
		c.String(http.StatusOK, challenge)
		return
	}
	RespondError(c, http.StatusForbidden, "VERIFICATION_FAILED", "webhook verification failed")
}

// Webhook handles POST /api/v1/whatsapp/webhook: delivery status updates
// and incoming replies.
func (h *WhatsAppHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "could not read webhook body")
		return
	}

	event, err := whatsapp.ParseWebhook(body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "malformed webhook payload")
		return
	}

	for _, status := range event.Statuses {
		if status.Status == "failed" {
			log.Printf("whatsapp message %s to %s failed: %d %s",
				status.MessageID, status.RecipientID, status.ErrorCode, status.ErrorDetail)
			continue
		}
		log.Printf("whatsapp message %s to %s: %s", status.MessageID, status.RecipientID, status.Status)
	}
	for _, msg := range event.Messages {
		log.Printf("whatsapp incoming from %s: %s", msg.From, msg.Text)
	}

	RespondOK(c, gin.H{
		"statuses": len(event.Statuses),
		"messages": len(event.Messages),
	})
}
