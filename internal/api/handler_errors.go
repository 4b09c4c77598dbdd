package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locker-tab-backend/internal/scan"
)

type errorEntry struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// GetErrors returns the scan error table for ?lang=, defaulting to the
// configured locale.
func (h *Handler) GetErrors(c *gin.Context) {
	locale := scan.ParseLocale(c.Query("lang"), h.locale)

	codes := scan.KnownCodes()
	entries := make([]errorEntry, 0, len(codes))
	for _, code := range codes {
		entries = append(entries, errorEntry{Code: int(code), Message: scan.Describe(code, locale)})
	}

	c.JSON(http.StatusOK, gin.H{
		"locale":  locale,
		"errors":  entries,
		"unknown": scan.Describe(scan.ErrorCode(-1), locale),
	})
}
