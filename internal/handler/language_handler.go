package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conicore/internal/domain"
	"conicore/internal/lang"
)

// LanguageHandler handles the language detection endpoint.
type LanguageHandler struct{}

// NewLanguageHandler creates a new LanguageHandler.
func NewLanguageHandler() *LanguageHandler {
	return &LanguageHandler{}
}

type detectRequest struct {
	Text           string `json:"text"`
	DetectMultiple bool   `json:"detectMultiple"`
}

// Detect handles POST /api/v1/language/detect
func (h *LanguageHandler) Detect(c *gin.Context) {
	var req detectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if req.Text == "" {
		HandleError(c, domain.ErrNoText)
		return
	}

	if req.DetectMultiple {
		languages := lang.DetectMultiple(req.Text)
		recommended := "hunyuan"
		if len(languages) > 0 {
			recommended = languages[0].Engine
		}
		RespondOK(c, gin.H{
			"languages":         languages,
			"recommendedEngine": recommended,
		})
		return
	}

	detection := lang.Detect(req.Text)
	RespondOK(c, gin.H{
		"code":              detection.Code,
		"name":              detection.Name,
		"confidence":        detection.Confidence,
		"engine":            detection.Engine,
		"recommendedEngine": detection.Engine,
	})
}
