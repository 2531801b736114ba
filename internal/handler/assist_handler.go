package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"conicore/internal/domain"
	"conicore/internal/insights"
	"conicore/internal/recommend"
	"conicore/internal/service"
)

// AssistHandler handles the AI assistant endpoints.
type AssistHandler struct {
	assist *service.AssistService
}

// NewAssistHandler creates a new AssistHandler.
func NewAssistHandler(assist *service.AssistService) *AssistHandler {
	return &AssistHandler{assist: assist}
}

type chatRequest struct {
	Message string               `json:"message"`
	Context *service.ChatContext `json:"context"`
	History []domain.ChatMessage `json:"conversationHistory"`
}

// Chat handles POST /api/v1/ai/chat
func (h *AssistHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if req.Message == "" {
		HandleError(c, domain.ErrNoMessage)
		return
	}

	out := h.assist.Chat(c.Request.Context(), req.Message, req.Context, req.History)
	RespondEngine(c, out.Result, out.Reply, "")
}

// FollowUp handles POST /api/v1/ai/followup
func (h *AssistHandler) FollowUp(c *gin.Context) {
	var req service.FollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if req.Invoice.Number == "" {
		HandleError(c, domain.ErrMissingFields)
		return
	}

	out := h.assist.FollowUp(c.Request.Context(), req)
	RespondEngine(c, out.Result, gin.H{
		"message":   out.Message,
		"delivered": out.Delivered,
	}, "")
}

type insightsRequest struct {
	Invoices  []domain.InvoiceRef `json:"invoices"`
	TimeRange int                 `json:"timeRange"`
}

// Insights handles POST /api/v1/ai/insights
func (h *AssistHandler) Insights(c *gin.Context) {
	var req insightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	timeRange := req.TimeRange
	if timeRange <= 0 {
		timeRange = 30
	}

	cards := insights.Generate(req.Invoices, timeRange, time.Now().UTC())
	RespondOK(c, gin.H{
		"insights":    cards,
		"timeRange":   timeRange,
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

type recommendationsRequest struct {
	CustomerHistory []domain.PurchasedItem  `json:"customerHistory"`
	CurrentItems    []domain.PurchasedItem  `json:"currentItems"`
	Products        []domain.CatalogProduct `json:"products"`
	CustomerTier    string                  `json:"customerTier"`
	PaymentRate     float64                 `json:"paymentRate"`
}

// Recommendations handles POST /api/v1/ai/recommendations
func (h *AssistHandler) Recommendations(c *gin.Context) {
	var req recommendationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	recs := recommend.Generate(recommend.Input{
		History:      req.CustomerHistory,
		CurrentItems: req.CurrentItems,
		Products:     req.Products,
		CustomerTier: req.CustomerTier,
		PaymentRate:  req.PaymentRate,
	})
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	RespondOK(c, gin.H{
		"recommendations": recs,
		"source":          "smart-rules",
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}
