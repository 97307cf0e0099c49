package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"sentra-batch-backend/config"
	"sentra-batch-backend/internal/engine"
	"sentra-batch-backend/internal/event"
	"sentra-batch-backend/internal/notification"
	"sentra-batch-backend/internal/pricing"
	"sentra-batch-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	webpush *webpush.Options
	pool    *notification.WorkerPool
	events  event.Publisher
	cfg     *config.Config
	now     func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, cfg *config.Config, webpushOptions *webpush.Options, pool *notification.WorkerPool, events event.Publisher) *Handler {
	if events == nil {
		events = event.Noop{}
	}
	return &Handler{
		store:   s,
		webpush: webpushOptions,
		pool:    pool,
		events:  events,
		cfg:     cfg,
		now:     time.Now,
	}
}

// abortDomainError maps the engine/pricing error taxonomy onto HTTP
// statuses for user-facing messaging. Everything unrecognized is a 500.
func abortDomainError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrBatchClosed),
		errors.Is(err, engine.ErrAlreadyRedeemed),
		errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, engine.ErrInvalidBatchTransition):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrExpiredReservation),
		errors.Is(err, engine.ErrAlreadyExpired):
		status = http.StatusGone
	case errors.Is(err, engine.ErrCodeMismatch):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrFeeExceedsPrice),
		errors.Is(err, pricing.ErrInvalidConfiguration):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
