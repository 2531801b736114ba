package handler

import (
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"conicore/internal/domain"
	"conicore/internal/staffimport"
)

// StaffHandler handles bulk staff import.
type StaffHandler struct{}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler() *StaffHandler {
	return &StaffHandler{}
}

type staffUploadRequest struct {
	// CSVData carries the upload inline: raw CSV text, or base64 for xlsx.
	CSVData    string `json:"csvData"`
	FileType   string `json:"fileType"` // "csv" (default) or "xlsx"
	BusinessID string `json:"businessId"`
	CreatedBy  string `json:"createdBy"`
}

// Upload handles POST /api/v1/staff/upload
func (h *StaffHandler) Upload(c *gin.Context) {
	var req staffUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}
	if req.CSVData == "" || req.BusinessID == "" {
		RespondError(c, http.StatusBadRequest, "MISSING_FIELDS", "missing required fields: csvData, businessId")
		return
	}

	var result *staffimport.Result
	var err error
	switch strings.ToLower(req.FileType) {
	case "", "csv":
		result, err = staffimport.ImportCSV([]byte(req.CSVData), req.BusinessID, req.CreatedBy)
	case "xlsx":
		var data []byte
		data, err = base64.StdEncoding.DecodeString(req.CSVData)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_BODY", "xlsx uploads must be base64 encoded")
			return
		}
		result, err = staffimport.ImportXLSX(data, req.BusinessID, req.CreatedBy)
	default:
		HandleError(c, domain.ErrUnsupportedFileType)
		return
	}
	if err != nil {
		RespondError(c, http.StatusBadRequest, "IMPORT_FAILED", err.Error())
		return
	}

	RespondOK(c, gin.H{
		"imported": result.Imported,
		"errors":   result.Errors,
		"total":    result.Total,
		"nextSteps": []string{
			"Staff members will receive invitation emails",
			"They can set their own passwords on first login",
			"Assign additional permissions if needed",
		},
	})
}
