package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EllieChoi1998/poc-backend/apperr"
	"github.com/EllieChoi1998/poc-backend/middleware"
)

// respondError maps the application error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var vendorErr *apperr.VendorError
	if errors.As(err, &vendorErr) {
		slog.Error("ocr vendor failure",
			"status", vendorErr.Status,
			"body", vendorErr.Body,
			"request_id", middleware.GetRequestID(c),
		)
		c.JSON(http.StatusBadGateway, gin.H{"error": "OCR vendor request failed"})
		return
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case apperr.KindValidation, apperr.KindDuplicate:
			c.JSON(http.StatusBadRequest, gin.H{"error": appErr.Msg})
		case apperr.KindNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": appErr.Msg})
		case apperr.KindPermission:
			c.JSON(http.StatusForbidden, gin.H{"error": appErr.Msg})
		default:
			slog.Error("storage failure",
				"error", err, "request_id", middleware.GetRequestID(c))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	slog.Error("unhandled error",
		"error", err, "request_id", middleware.GetRequestID(c))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
