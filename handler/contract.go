package handler

import (
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/EllieChoi1998/poc-backend/middleware"
	"github.com/EllieChoi1998/poc-backend/model"
	"github.com/EllieChoi1998/poc-backend/service"
)

type ContractHandler struct {
	contracts *service.ContractService
}

func NewContractHandler(contracts *service.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// Upload handles contract file upload and kicks off OCR
func (h *ContractHandler) Upload(c *gin.Context) {
	contractName := c.PostForm("contract_name")
	if contractName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "contract_name is required"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	// Validate file type - PDF and image formats allowed
	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".pdf", ".png", ".tif", ".tiff", ".jpg", ".jpeg":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF and image files are allowed"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	resp, err := h.contracts.Upload(
		c.Request.Context(),
		middleware.GetUserID(c),
		contractName,
		header.Filename,
		file,
		header.Size,
		contentType,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *ContractHandler) listResponse(c *gin.Context, contracts []model.Contract, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	if contracts == nil {
		contracts = []model.Contract{}
	}
	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}

// ListAll returns every contract
func (h *ContractHandler) ListAll(c *gin.Context) {
	contracts, err := h.contracts.ListAll(c.Request.Context(), middleware.GetUserID(c))
	h.listResponse(c, contracts, err)
}

// listByState returns the contracts in one lifecycle bucket
func (h *ContractHandler) listByState(c *gin.Context, state int) {
	contracts, err := h.contracts.ListByState(c.Request.Context(), middleware.GetUserID(c), state)
	h.listResponse(c, contracts, err)
}

func (h *ContractHandler) ListUploaded(c *gin.Context) {
	h.listByState(c, model.StateUploaded)
}

func (h *ContractHandler) ListChecklistOnProgress(c *gin.Context) {
	h.listByState(c, model.StateChecklistOnProgress)
}

func (h *ContractHandler) ListChecklistFinished(c *gin.Context) {
	h.listByState(c, model.StateChecklistFinished)
}

func (h *ContractHandler) ListKeypointOnProgress(c *gin.Context) {
	h.listByState(c, model.StateKeypointOnProgress)
}

func (h *ContractHandler) ListKeypointFinished(c *gin.Context) {
	h.listByState(c, model.StateKeypointFinished)
}

func contractID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract id"})
		return 0, false
	}
	return id, true
}

// ProcessChecklist moves a contract into checklist review
func (h *ContractHandler) ProcessChecklist(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	if err := h.contracts.ProcessChecklist(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Checklist review started"})
}

type FinishChecklistRequest struct {
	PrintableFilePath string `json:"checklist_printable_file_path" binding:"required"`
}

// FinishChecklist closes checklist review
func (h *ContractHandler) FinishChecklist(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	var req FinishChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "checklist_printable_file_path is required"})
		return
	}

	if err := h.contracts.FinishChecklist(c.Request.Context(), id, req.PrintableFilePath); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Checklist review finished"})
}

// ProcessKeypoint moves a contract into keypoint review
func (h *ContractHandler) ProcessKeypoint(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	if err := h.contracts.ProcessKeypoint(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Keypoint review started"})
}

// FinishKeypoint closes keypoint review
func (h *ContractHandler) FinishKeypoint(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	if err := h.contracts.FinishKeypoint(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Keypoint review finished"})
}

// GetOcrResult returns the OCR processing state or the full aggregate
// result of a contract's latest OCR run
func (h *ContractHandler) GetOcrResult(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	resp, err := h.contracts.GetOcrResult(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if !resp.Success && resp.OcrStatus == model.OcrResultNotFound {
		c.JSON(http.StatusNotFound, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetOcrStatus returns only the processing state, without the result body
func (h *ContractHandler) GetOcrStatus(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	resp, err := h.contracts.GetOcrResult(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if !resp.Success && resp.OcrStatus == model.OcrResultNotFound {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{
		"success":    resp.Success,
		"ocr_status": resp.OcrStatus,
	})
}

// Delete removes a contract
func (h *ContractHandler) Delete(c *gin.Context) {
	id, ok := contractID(c)
	if !ok {
		return
	}

	if err := h.contracts.Delete(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Contract deleted"})
}
