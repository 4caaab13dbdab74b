package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EllieChoi1998/poc-backend/service"
)

// OcrHandler exposes the vendor utility endpoints: rendered image
// download and worker pool health.
type OcrHandler struct {
	engine *service.OcrEngine
}

func NewOcrHandler(engine *service.OcrEngine) *OcrHandler {
	return &OcrHandler{engine: engine}
}

type DownloadFileRequest struct {
	Path string `json:"path" binding:"required"`
}

// DownloadFile proxies a rendered page image from the OCR vendor
func (h *OcrHandler) DownloadFile(c *gin.Context) {
	var req DownloadFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	data, err := h.engine.DownloadImage(c.Request.Context(), req.Path)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", data)
}

// WorkerStatus reports the OCR vendor's worker pool health
func (h *OcrHandler) WorkerStatus(c *gin.Context) {
	status, err := h.engine.WorkerStatus(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}
