package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"sentra-batch-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router around the handler.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(h.cfg.Server.RateLimitPerSec), h.cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(h.cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 10*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Guest-facing
		api.POST("/items/:item_id/lock", h.LockItem)
		api.POST("/batches/:batch_id/lock", h.LockBatch)
		api.GET("/batches/:batch_id", caching, h.GetBatchView)
		api.GET("/venues/:venue_id/batches", caching, h.GetVenueBatches)

		// External signals
		api.POST("/reservations/:reservation_id/eta", h.PutGuestETA)

		// Operator-facing
		api.POST("/redeem", h.Redeem)
		api.POST("/batches/:batch_id/advance", h.AdvanceBatch)
		api.POST("/reservations/:reservation_id/prep", h.TriggerPrep)
		api.GET("/venues/:venue_id/operator", caching, h.GetOperatorView)

		// Push subscriptions
		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
