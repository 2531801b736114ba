package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conicore/internal/config"
	"conicore/internal/domain"
	"conicore/internal/engine"
	"conicore/internal/payments"
	"conicore/internal/service"
	"conicore/internal/whatsapp"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func postJSON(t *testing.T, r http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// scanRouter wires a scan handler whose only OCR engine is a paddle server
// at the given URL.
func scanRouter(paddleURL string) *gin.Engine {
	registry := engine.NewRegistryFrom([]engine.ProviderDescriptor{
		{
			ID: "paddle", Name: "PaddleOCR", Kind: domain.TaskOCR, Shape: engine.ShapePaddleREST,
			Endpoint: paddleURL, Tags: []string{domain.DocInvoice, domain.DocReceipt, domain.DocCard, domain.DocPriceList},
			Languages: []string{"*"}, Accuracy: 0.80, TimeoutSecs: 2,
		},
	})
	orch := engine.NewOrchestrator(registry, engine.NewExecutor(), 5)
	h := NewScanHandler(service.NewScanService(orch, nil, ""), registry)

	r := gin.New()
	r.POST("/ocr/invoice", h.ScanInvoice)
	r.POST("/ocr/route", h.ScanRoute)
	return r
}

func TestScanInvoiceNoImage(t *testing.T) {
	r := scanRouter("http://127.0.0.1:1")
	w := postJSON(t, r, "/ocr/invoice", gin.H{"language": "en"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	errObj := body["error"].(map[string]interface{})
	assert.Equal(t, "NO_IMAGE", errObj["code"])
}

func TestScanInvoiceSuccessEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"ocrResults":[
			{"text":"{\"invoiceNumber\":\"INV-9\",\"total\":500,\"currency\":\"R\"}","confidence":0.9}
		]}}`))
	}))
	defer srv.Close()

	w := postJSON(t, scanRouter(srv.URL), "/ocr/invoice", gin.H{"image": "aGVsbG8="})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "paddle", body["source"])
	assert.InDelta(t, 0.9, body["accuracy"].(float64), 1e-9)
	assert.Equal(t, "high", body["confidence"])
	assert.NotEmpty(t, body["timestamp"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "INV-9", data["invoiceNumber"])
	assert.Equal(t, 500.0, data["total"])
	assert.Equal(t, "ZAR", data["currency"])

	attempts := body["attempts"].([]interface{})
	require.Len(t, attempts, 1)
	assert.Equal(t, true, attempts[0].(map[string]interface{})["success"])
}

func TestScanInvoiceAllEnginesDownDegradesInBand(t *testing.T) {
	w := postJSON(t, scanRouter("http://127.0.0.1:1"), "/ocr/invoice", gin.H{"image": "aGVsbG8="})
	require.Equal(t, http.StatusOK, w.Code, "exhaustion is reported in-band, not as an HTTP failure")

	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, true, body["fallback"])
	assert.Equal(t, "template", body["source"])
	assert.Equal(t, scanFailedMessage, body["message"])
	attempts := body["attempts"].([]interface{})
	require.Len(t, attempts, 1)
	assert.Equal(t, "network error", attempts[0].(map[string]interface{})["reason"])
}

func TestScanRouteIncludesEngineStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"ocrResults":[{"text":"plain text only","confidence":0.85}]}}`))
	}))
	defer srv.Close()

	w := postJSON(t, scanRouter(srv.URL), "/ocr/route", gin.H{"image": "aGVsbG8=", "documentType": "invoice"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["parseError"], "non-JSON output is a soft failure on the route endpoint")

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "plain text only", data["rawText"])
	engines := data["engines"].([]interface{})
	require.NotEmpty(t, engines)
	paddle := engines[0].(map[string]interface{})
	assert.Equal(t, "paddle", paddle["id"])
	assert.Equal(t, true, paddle["configured"])
}

func languageRouter() *gin.Engine {
	r := gin.New()
	h := NewLanguageHandler()
	r.POST("/language/detect", h.Detect)
	return r
}

func TestLanguageDetectNoText(t *testing.T) {
	w := postJSON(t, languageRouter(), "/language/detect", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "NO_TEXT", body["error"].(map[string]interface{})["code"])
}

func TestLanguageDetectSingle(t *testing.T) {
	w := postJSON(t, languageRouter(), "/language/detect", gin.H{"text": "发票金额五千元整"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "zh", data["code"])
	assert.Equal(t, "paddle", data["recommendedEngine"])
}

func TestLanguageDetectMultiple(t *testing.T) {
	w := postJSON(t, languageRouter(), "/language/detect", gin.H{
		"text":           "Invoice total 金额共计五千元整 please pay",
		"detectMultiple": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	data := body["data"].(map[string]interface{})
	assert.NotEmpty(t, data["languages"])
	assert.NotEmpty(t, data["recommendedEngine"])
}

func whatsappRouter(cfg config.WhatsAppConfig) *gin.Engine {
	h := NewWhatsAppHandler(whatsapp.NewClient(cfg))
	r := gin.New()
	r.POST("/whatsapp/send", h.Send)
	r.GET("/whatsapp/webhook", h.Verify)
	r.POST("/whatsapp/webhook", h.Webhook)
	return r
}

func TestWhatsAppSendMissingFields(t *testing.T) {
	w := postJSON(t, whatsappRouter(config.WhatsAppConfig{}), "/whatsapp/send", gin.H{"recipientPhone": "082"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body["error"].(map[string]interface{})["message"], "companyName")
}

func TestWhatsAppSendUnconfiguredManualFallback(t *testing.T) {
	w := postJSON(t, whatsappRouter(config.WhatsAppConfig{}), "/whatsapp/send", gin.H{
		"recipientPhone":  "0821234567",
		"companyName":     "Surf Shack",
		"registrationUrl": "https://app.example/register",
		"loginCode":       "ABC123",
	})
	require.Equal(t, http.StatusOK, w.Code, "unconfigured channel degrades to manual delivery")

	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "manual", body["fallback"])
	assert.Contains(t, body["manualMessage"], "Surf Shack")
	assert.Contains(t, body["manualMessage"], "ABC123")
}

func TestWhatsAppVerifyHandshake(t *testing.T) {
	r := whatsappRouter(config.WhatsAppConfig{VerifyToken: "secret-token"})

	req := httptest.NewRequest(http.MethodGet,
		"/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12345", w.Body.String(), "challenge echoes back as plain text")

	req = httptest.NewRequest(http.MethodGet,
		"/whatsapp/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestWhatsAppWebhookCounts(t *testing.T) {
	r := whatsappRouter(config.WhatsAppConfig{})
	w := postJSON(t, r, "/whatsapp/webhook", gin.H{
		"entry": []gin.H{{
			"changes": []gin.H{{
				"value": gin.H{
					"statuses": []gin.H{{"id": "wamid.1", "recipient_id": "27", "status": "delivered"}},
				},
			}},
		}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, 1.0, data["statuses"])
	assert.Equal(t, 0.0, data["messages"])
}

func staffRouter() *gin.Engine {
	h := NewStaffHandler()
	r := gin.New()
	r.POST("/staff/upload", h.Upload)
	return r
}

func TestStaffUploadCSV(t *testing.T) {
	w := postJSON(t, staffRouter(), "/staff/upload", gin.H{
		"csvData":    "name,email,role\nThandi Nkosi,thandi@example.com,manager\n",
		"businessId": "biz-1",
		"createdBy":  "owner-1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, 1.0, data["total"])
	imported := data["imported"].([]interface{})
	require.Len(t, imported, 1)
	assert.NotEmpty(t, data["nextSteps"])
}

func TestStaffUploadMissingFields(t *testing.T) {
	w := postJSON(t, staffRouter(), "/staff/upload", gin.H{"csvData": "name,email,role\n"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "MISSING_FIELDS", body["error"].(map[string]interface{})["code"])
}

func TestStaffUploadUnsupportedFileType(t *testing.T) {
	w := postJSON(t, staffRouter(), "/staff/upload", gin.H{
		"csvData":    "whatever",
		"fileType":   "pdf",
		"businessId": "biz-1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "UNSUPPORTED_FILE_TYPE", body["error"].(map[string]interface{})["code"])
}

func assistRouter() *gin.Engine {
	// No generation providers configured: every run lands on the
	// deterministic producer.
	registry := engine.NewRegistryFrom(nil)
	orch := engine.NewOrchestrator(registry, engine.NewExecutor(), 5)
	h := NewAssistHandler(service.NewAssistService(orch, nil, config.BusinessConfig{Name: "Aweh Be Lekker"}))

	r := gin.New()
	r.POST("/ai/chat", h.Chat)
	r.POST("/ai/followup", h.FollowUp)
	r.POST("/ai/insights", h.Insights)
	r.POST("/ai/recommendations", h.Recommendations)
	return r
}

func TestChatNoMessage(t *testing.T) {
	w := postJSON(t, assistRouter(), "/ai/chat", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "NO_MESSAGE", body["error"].(map[string]interface{})["code"])
}

func TestChatTemplateFallback(t *testing.T) {
	w := postJSON(t, assistRouter(), "/ai/chat", gin.H{
		"message": "what is my revenue today?",
		"context": gin.H{"todayRevenue": 4200},
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "template", body["source"])
	assert.Equal(t, true, body["fallback"])
	data := body["data"].(map[string]interface{})
	assert.Contains(t, data["message"], "R4200")
}

func TestFollowUpRequiresInvoiceNumber(t *testing.T) {
	w := postJSON(t, assistRouter(), "/ai/followup", gin.H{"customer": gin.H{"companyName": "X"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFollowUpTemplateFallback(t *testing.T) {
	w := postJSON(t, assistRouter(), "/ai/followup", gin.H{
		"customer": gin.H{"contactPerson": "Thandi"},
		"invoice":  gin.H{"number": "INV-7", "total": 1500.0, "daysOverdue": 12},
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	message := data["message"].(string)
	assert.Contains(t, message, "Thandi")
	assert.Contains(t, message, "INV-7")
	assert.Equal(t, false, data["delivered"])
}

func TestInsightsEndpoint(t *testing.T) {
	w := postJSON(t, assistRouter(), "/ai/insights", gin.H{
		"invoices":  []gin.H{},
		"timeRange": 0,
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, 30.0, data["timeRange"], "time range defaults to 30 days")
	assert.NotEmpty(t, data["insights"])
}

func TestRecommendationsEmptyCatalog(t *testing.T) {
	w := postJSON(t, assistRouter(), "/ai/recommendations", gin.H{})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	recs, ok := data["recommendations"].([]interface{})
	require.True(t, ok, "recommendations is an array even when empty")
	assert.Empty(t, recs)
	assert.Equal(t, "smart-rules", data["source"])
}

func paymentRouter(cfg config.StripeConfig) *gin.Engine {
	h := NewPaymentHandler(payments.NewGateway(cfg))
	r := gin.New()
	r.POST("/payments/links", h.CreateLink)
	r.POST("/payments/webhook", h.Webhook)
	return r
}

func TestCreateLinkStripeUnconfigured(t *testing.T) {
	w := postJSON(t, paymentRouter(config.StripeConfig{}), "/payments/links", gin.H{
		"invoiceId":               "inv-1",
		"amount":                  100,
		"businessStripeAccountId": "acct_1",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "STRIPE_UNCONFIGURED", body["error"].(map[string]interface{})["code"])
}

func TestPaymentWebhookBadSignature(t *testing.T) {
	w := postJSON(t, paymentRouter(config.StripeConfig{WebhookSecret: "whsec_test"}), "/payments/webhook", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "WEBHOOK_SIGNATURE", body["error"].(map[string]interface{})["code"])
}
