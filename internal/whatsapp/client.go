// Package whatsapp sends text messages through the Meta WhatsApp Cloud API
// and parses delivery-status webhooks.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"conicore/internal/config"
	"conicore/internal/domain"
)

// Client talks to the Cloud API for one phone number ID.
type Client struct {
	accessToken   string
	phoneNumberID string
	verifyToken   string
	apiVersion    string
	baseURL       string
	httpClient    *http.Client
}

// NewClient builds a client from configuration. An unconfigured client is
// still usable: Send returns ErrWhatsAppUnconfigured with a manual
// fallback message for the operator to copy.
func NewClient(cfg config.WhatsAppConfig) *Client {
	version := cfg.APIVersion
	if version == "" {
		version = "v18.0"
	}
	return &Client{
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		verifyToken:   cfg.VerifyToken,
		apiVersion:    version,
		baseURL:       "https://graph.facebook.com",
		httpClient:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether credentials are present.
func (c *Client) Configured() bool {
	return c.accessToken != "" && c.phoneNumberID != ""
}

// VerifyToken returns the webhook verification token.
func (c *Client) VerifyToken() string {
	return c.verifyToken
}

// SendResult is the outcome of a send attempt.
type SendResult struct {
	MessageID string `json:"messageId"`
	Recipient string `json:"recipient"`
	Status    string `json:"status"`
}

// FormatPhone normalizes a recipient number for the Cloud API: formatting
// punctuation is stripped, the leading plus removed, and a leading zero
// rewritten to the South African country code.
func FormatPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	out := strings.TrimPrefix(b.String(), "+")
	if strings.HasPrefix(out, "0") {
		out = "27" + out[1:]
	}
	return out
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             sendText `json:"text"`
}

type sendText struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Cloud API error codes that map onto domain errors.
const (
	codeNotOnWhatsApp    = 131030
	codeTemplateRequired = 131047
)

// Send delivers a text message. The returned error wraps a domain sentinel
// when the failure has a specific operator-facing remedy.
func (c *Client) Send(ctx context.Context, phone, body string) (*SendResult, error) {
	if !c.Configured() {
		return nil, domain.ErrWhatsAppUnconfigured
	}
	recipient := FormatPhone(phone)

	payload, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               recipient,
		Type:             "text",
		Text:             sendText{PreviewURL: true, Body: body},
	})
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp api: %w", err)
	}
	defer resp.Body.Close()

	var parsed struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
		Error *apiError `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode whatsapp response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if parsed.Error != nil {
			switch parsed.Error.Code {
			case codeNotOnWhatsApp:
				return nil, fmt.Errorf("%w: %s", domain.ErrRecipientNotOnWhatsApp, recipient)
			case codeTemplateRequired:
				return nil, fmt.Errorf("whatsapp template required for first contact: %s", parsed.Error.Message)
			}
			return nil, fmt.Errorf("whatsapp api error %d: %s", parsed.Error.Code, parsed.Error.Message)
		}
		return nil, fmt.Errorf("whatsapp api http %d", resp.StatusCode)
	}

	result := &SendResult{Recipient: recipient, Status: "sent"}
	if len(parsed.Messages) > 0 {
		result.MessageID = parsed.Messages[0].ID
	}
	return result, nil
}

// RegistrationMessage builds the onboarding text sent when a company is
// created. It doubles as the manual fallback when the API is unconfigured.
func RegistrationMessage(companyName, registrationURL, loginCode, messageType string) string {
	switch messageType {
	case "reminder":
		return fmt.Sprintf(`👋 *Reminder: Complete Your Registration*

Hi! You haven't completed your ConiCore registration yet.

📱 *Register here:*
%s

🔑 *Your Code:* `+"`%s`"+`

Don't miss out on easy invoicing!

_Powered by ConiCore Technology_`, registrationURL, loginCode)
	case "password_reset":
		return fmt.Sprintf(`🔐 *Password Reset Request*

A password reset was requested for *%s*.

📱 *Reset here:*
%s

🔑 *Verification Code:* `+"`%s`"+`

If you didn't request this, please ignore this message.

_Powered by ConiCore Technology_`, companyName, registrationURL, loginCode)
	case "registration", "":
		return fmt.Sprintf(`🎉 *Welcome to ConiCore Invoicing!*

Hi there! Your company *%s* has been registered.

📱 *Register here:*
%s

🔑 *Your Registration Code:*
`+"`%s`"+`

📝 *How to get started:*
1. Click the registration link above
2. Enter your email address
3. Enter code: *%s*
4. Create your password
5. Complete your company setup

Need help? Contact your administrator.

_Powered by ConiCore Technology_`, companyName, registrationURL, loginCode, loginCode)
	default:
		return fmt.Sprintf("Welcome to ConiCore Invoicing!\n\nCompany: %s\nRegistration: %s\nCode: %s\n\nPowered by ConiCore",
			companyName, registrationURL, loginCode)
	}
}
