package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conicore/internal/config"
	"conicore/internal/domain"
)

func configuredClient(serverURL string) *Client {
	c := NewClient(config.WhatsAppConfig{
		AccessToken:   "token",
		PhoneNumberID: "123456",
		VerifyToken:   "verify-me",
	})
	c.baseURL = serverURL
	return c
}

func TestFormatPhone(t *testing.T) {
	cases := map[string]string{
		"+27 82 123 4567": "27821234567",
		"082 123 4567":    "27821234567",
		"(082) 123-4567":  "27821234567",
		"27821234567":     "27821234567",
		"+1 415 555 0100": "14155550100",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatPhone(in), "input %q", in)
	}
}

func TestSendUnconfigured(t *testing.T) {
	c := NewClient(config.WhatsAppConfig{})
	assert.False(t, c.Configured())

	_, err := c.Send(context.Background(), "0821234567", "hello")
	assert.ErrorIs(t, err, domain.ErrWhatsAppUnconfigured)
}

func TestSendSuccess(t *testing.T) {
	var path, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.abc123"}]}`))
	}))
	defer srv.Close()

	c := configuredClient(srv.URL)
	result, err := c.Send(context.Background(), "082 123 4567", "Your invoice is ready")
	require.NoError(t, err)
	assert.Equal(t, "wamid.abc123", result.MessageID)
	assert.Equal(t, "27821234567", result.Recipient)
	assert.Equal(t, "sent", result.Status)
	assert.Equal(t, "/v18.0/123456/messages", path)
	assert.Equal(t, "Bearer token", auth)
}

func TestSendRecipientNotOnWhatsApp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":131030,"message":"recipient not in allowed list"}}`))
	}))
	defer srv.Close()

	_, err := configuredClient(srv.URL).Send(context.Background(), "0821234567", "hi")
	assert.ErrorIs(t, err, domain.ErrRecipientNotOnWhatsApp)
}

func TestSendTemplateRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":131047,"message":"re-engagement message"}}`))
	}))
	defer srv.Close()

	_, err := configuredClient(srv.URL).Send(context.Background(), "0821234567", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template required")
}

func TestSendGenericAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":190,"message":"invalid token"}}`))
	}))
	defer srv.Close()

	_, err := configuredClient(srv.URL).Send(context.Background(), "0821234567", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "190")
}

func TestRegistrationMessageTypes(t *testing.T) {
	welcome := RegistrationMessage("Surf Shack", "https://app.example/register", "ABC123", "registration")
	assert.Contains(t, welcome, "Welcome to ConiCore Invoicing")
	assert.Contains(t, welcome, "Surf Shack")
	assert.Contains(t, welcome, "ABC123")
	assert.Contains(t, welcome, "https://app.example/register")

	// Empty type gets the full welcome as well.
	assert.Equal(t, welcome, RegistrationMessage("Surf Shack", "https://app.example/register", "ABC123", ""))

	reminder := RegistrationMessage("Surf Shack", "https://app.example/register", "ABC123", "reminder")
	assert.Contains(t, reminder, "Reminder")

	reset := RegistrationMessage("Surf Shack", "https://app.example/register", "ABC123", "password_reset")
	assert.Contains(t, reset, "Password Reset")

	plain := RegistrationMessage("Surf Shack", "https://app.example/register", "ABC123", "unknown")
	assert.Contains(t, plain, "Surf Shack")
	assert.NotContains(t, plain, "*")
}

func TestParseWebhookStatuses(t *testing.T) {
	body := []byte(`{
		"entry": [{
			"changes": [{
				"value": {
					"statuses": [
						{"id": "wamid.1", "recipient_id": "27821234567", "status": "delivered", "timestamp": "1700000000"},
						{"id": "wamid.2", "recipient_id": "27829999999", "status": "failed", "timestamp": "1700000001",
						 "errors": [{"code": 131026, "message": "undeliverable"}]}
					]
				}
			}]
		}]
	}`)

	event, err := ParseWebhook(body)
	require.NoError(t, err)
	require.Len(t, event.Statuses, 2)
	assert.Equal(t, "wamid.1", event.Statuses[0].MessageID)
	assert.Equal(t, "delivered", event.Statuses[0].Status)
	assert.Equal(t, "failed", event.Statuses[1].Status)
	assert.Equal(t, 131026, event.Statuses[1].ErrorCode)
	assert.Equal(t, "undeliverable", event.Statuses[1].ErrorDetail)
}

func TestParseWebhookIncomingMessage(t *testing.T) {
	body := []byte(`{
		"entry": [{
			"changes": [{
				"value": {
					"messages": [{"from": "27821234567", "type": "text", "text": {"body": "PAID"}}]
				}
			}]
		}]
	}`)

	event, err := ParseWebhook(body)
	require.NoError(t, err)
	require.Len(t, event.Messages, 1)
	assert.Equal(t, "27821234567", event.Messages[0].From)
	assert.Equal(t, "PAID", event.Messages[0].Text)
}

func TestParseWebhookUnknownPayload(t *testing.T) {
	event, err := ParseWebhook([]byte(`{"object": "whatsapp_business_account"}`))
	require.NoError(t, err)
	assert.Empty(t, event.Statuses)
	assert.Empty(t, event.Messages)

	_, err = ParseWebhook([]byte(`not json`))
	assert.Error(t, err)
}
