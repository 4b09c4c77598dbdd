package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"locker-tab-backend/internal/scan"
	"locker-tab-backend/internal/session"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	sessions *session.Manager
	db       *gorm.DB
	webpush  *webpush.Options
	locale   scan.Locale
	scanTTL  time.Duration
	logger   *zap.Logger
}

// NewHandler creates a new API handler. db may be nil when push
// subscriptions are not stored. scanTimeout is handed to the page for its
// barcode scanner.
func NewHandler(sessions *session.Manager, db *gorm.DB, webpushOptions *webpush.Options, locale scan.Locale, scanTimeout time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locale == "" {
		locale = scan.LocaleEnglish
	}
	if scanTimeout <= 0 {
		scanTimeout = session.DefaultOptions().ScanTimeout
	}
	return &Handler{
		sessions: sessions,
		db:       db,
		webpush:  webpushOptions,
		locale:   locale,
		scanTTL:  scanTimeout,
		logger:   logger,
	}
}

// fail writes the status that matches err.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, session.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
