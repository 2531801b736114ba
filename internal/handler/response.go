package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"conicore/internal/domain"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EngineEnvelope is the envelope for results that went through the
// fallback engine. Degraded outcomes keep HTTP 200: the attempt log and
// the success flag carry the bad news in-band, where the frontend can
// show them.
type EngineEnvelope struct {
	Success    bool                   `json:"success"`
	Message    string                 `json:"message,omitempty"`
	Data       interface{}            `json:"data,omitempty"`
	Source     string                 `json:"source,omitempty"`
	Model      string                 `json:"model,omitempty"`
	Accuracy   float64                `json:"accuracy,omitempty"`
	Confidence domain.ConfidenceLevel `json:"confidence,omitempty"`
	Language   string                 `json:"language,omitempty"`
	Fallback   bool                   `json:"fallback,omitempty"`
	ParseError bool                   `json:"parseError,omitempty"`
	RawText    string                 `json:"rawText,omitempty"`
	Attempts   []domain.AttemptRecord `json:"attempts"`
	Timestamp  string                 `json:"timestamp"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// RespondEngine sends an engine result in the in-band envelope. data is
// the structured payload for successful extractions; failedMessage is the
// display text shown when the chain was exhausted.
func RespondEngine(c *gin.Context, result *domain.EngineResult, data interface{}, failedMessage string) {
	envelope := EngineEnvelope{
		Attempts:  result.Attempts,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if envelope.Attempts == nil {
		envelope.Attempts = []domain.AttemptRecord{}
	}

	if result.Fallback && data == nil {
		envelope.Success = false
		envelope.Fallback = true
		envelope.Source = result.Engine
		envelope.Message = failedMessage
		c.JSON(http.StatusOK, envelope)
		return
	}

	envelope.Success = true
	envelope.Source = result.Engine
	envelope.Model = result.Model
	envelope.Accuracy = result.Accuracy
	envelope.Confidence = result.Confidence
	envelope.Language = result.Language
	envelope.Fallback = result.Fallback
	envelope.Data = data

	if result.ParseError {
		envelope.ParseError = true
		envelope.RawText = result.RawText
	}
	c.JSON(http.StatusOK, envelope)
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrNoImage):
		return http.StatusBadRequest, "NO_IMAGE", "no image provided"
	case errors.Is(err, domain.ErrNoText):
		return http.StatusBadRequest, "NO_TEXT", "no text provided"
	case errors.Is(err, domain.ErrNoMessage):
		return http.StatusBadRequest, "NO_MESSAGE", "no message provided"
	case errors.Is(err, domain.ErrMissingFields):
		return http.StatusBadRequest, "MISSING_FIELDS", err.Error()
	case errors.Is(err, domain.ErrUnknownProvider):
		return http.StatusBadRequest, "UNKNOWN_PROVIDER", "unknown provider"
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "unsupported file type; allowed: csv, xlsx"
	case errors.Is(err, domain.ErrStripeUnconfigured):
		return http.StatusInternalServerError, "STRIPE_UNCONFIGURED", "stripe is not configured"
	case errors.Is(err, domain.ErrWebhookSignature):
		return http.StatusBadRequest, "WEBHOOK_SIGNATURE", "webhook signature verification failed"
	case errors.Is(err, domain.ErrRecipientNotOnWhatsApp):
		return http.StatusBadRequest, "NOT_ON_WHATSAPP", "this phone number is not registered on WhatsApp"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	status, code, msg := MapDomainError(err)
	if status >= 500 {
		requestID, _ := c.Get("request_id")
		log.Printf("[%s] internal error: %v", requestID, err)
	}
	RespondError(c, status, code, msg)
}
