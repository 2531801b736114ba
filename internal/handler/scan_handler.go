package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conicore/internal/domain"
	"conicore/internal/engine"
	"conicore/internal/service"
)

const scanFailedMessage = "All OCR engines are unavailable right now. Please try again or enter the details manually."

// ScanHandler handles the OCR scan endpoints.
type ScanHandler struct {
	scans    *service.ScanService
	registry *engine.Registry
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(scans *service.ScanService, registry *engine.Registry) *ScanHandler {
	return &ScanHandler{scans: scans, registry: registry}
}

func bindScan(c *gin.Context) (service.ScanRequest, bool) {
	var req service.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return req, false
	}
	if req.ImageBase64 == "" {
		HandleError(c, domain.ErrNoImage)
		return req, false
	}
	return req, true
}

// ScanInvoice handles POST /api/v1/ocr/invoice
func (h *ScanHandler) ScanInvoice(c *gin.Context) {
	req, ok := bindScan(c)
	if !ok {
		return
	}
	result, invoice := h.scans.ScanInvoice(c.Request.Context(), req)
	if invoice == nil {
		RespondEngine(c, result, nil, scanFailedMessage)
		return
	}
	RespondEngine(c, result, invoice, scanFailedMessage)
}

// ScanCustomer handles POST /api/v1/ocr/customer
func (h *ScanHandler) ScanCustomer(c *gin.Context) {
	req, ok := bindScan(c)
	if !ok {
		return
	}
	result, customer := h.scans.ScanCustomer(c.Request.Context(), req)
	if customer == nil {
		RespondEngine(c, result, nil, scanFailedMessage)
		return
	}
	RespondEngine(c, result, customer, scanFailedMessage)
}

// ScanStock handles POST /api/v1/ocr/receipt
func (h *ScanHandler) ScanStock(c *gin.Context) {
	req, ok := bindScan(c)
	if !ok {
		return
	}
	result, doc := h.scans.ScanStock(c.Request.Context(), req)
	if doc == nil {
		RespondEngine(c, result, nil, scanFailedMessage)
		return
	}
	RespondEngine(c, result, doc, scanFailedMessage)
}

// ScanPriceList handles POST /api/v1/ocr/pricelist
func (h *ScanHandler) ScanPriceList(c *gin.Context) {
	req, ok := bindScan(c)
	if !ok {
		return
	}
	result, products := h.scans.ScanPriceList(c.Request.Context(), req)
	if products == nil {
		RespondEngine(c, result, nil, scanFailedMessage)
		return
	}
	RespondEngine(c, result, products, scanFailedMessage)
}

type routeRequest struct {
	service.ScanRequest
	DocumentType string `json:"documentType"`
	Prompt       string `json:"prompt"`
}

// routeResponse extends the engine envelope with engine diagnostics.
type engineStatus struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Configured bool    `json:"configured"`
	Accuracy   float64 `json:"accuracy"`
}

// ScanRoute handles POST /api/v1/ocr/route: generic routing with engine
// status diagnostics.
func (h *ScanHandler) ScanRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if req.ImageBase64 == "" {
		HandleError(c, domain.ErrNoImage)
		return
	}

	result := h.scans.Route(c.Request.Context(), req.ScanRequest, req.DocumentType, req.Prompt)

	configured := map[string]bool{}
	for _, d := range h.registry.ListProviders(domain.TaskOCR) {
		configured[d.ID] = true
	}
	var statuses []engineStatus
	for _, id := range []string{"hunyuan", "paddle", "llama"} {
		if d, ok := h.registry.Get(id); ok {
			statuses = append(statuses, engineStatus{
				ID:         d.ID,
				Name:       d.Name,
				Configured: configured[d.ID],
				Accuracy:   d.Accuracy,
			})
		}
	}

	RespondEngine(c, result, gin.H{
		"rawText": result.RawText,
		"json":    result.Structured,
		"engines": statuses,
	}, scanFailedMessage)
}
