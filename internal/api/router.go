package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"locker-tab-backend/config"
	"locker-tab-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, handler *Handler) *gin.Engine {
	r := gin.Default()

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, 10*time.Minute)
	rateLimiter := mw.RateLimiter(limiter)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(ttl, 2*ttl), ttl)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": handler.sessions.Len()})
	})

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/sessions", handler.CreateSession)
		api.GET("/sessions/:id", handler.GetSession)
		api.DELETE("/sessions/:id", handler.DeleteSession)
		api.POST("/sessions/:id/scan", handler.Scan)
		api.POST("/sessions/:id/confirm", handler.Confirm)
		api.POST("/sessions/:id/return", handler.Return)
		api.GET("/sessions/:id/history.xlsx", handler.ExportHistory)

		api.GET("/errors", caching, handler.GetErrors)
		api.GET("/boxes/:box/label.png", caching, handler.GetBoxLabel)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
