package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sentra-batch-backend/internal/event"
	"sentra-batch-backend/internal/model"
	"sentra-batch-backend/internal/notification"
)

// GetOperatorView handles GET /api/venues/{venue_id}/operator: the
// kitchen dashboard with live batches, the urgent prep queue and the
// day's totals.
func (h *Handler) GetOperatorView(c *gin.Context) {
	venueID, err := strconv.ParseInt(c.Param("venue_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid venue ID"})
		return
	}

	view, err := h.store.OperatorView(c.Request.Context(), venueID, h.cfg.Pricing.UrgentETAThresholdMin, h.now())
	if err != nil {
		abortDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type advanceRequest struct {
	Status model.BatchStatus `json:"status" binding:"required"`
}

// AdvanceBatch handles POST /api/batches/{batch_id}/advance: operators
// push a batch forward through its lifecycle. The store fans the
// transition out to the batch's reservations, and we notify each guest
// it touched.
func (h *Handler) AdvanceBatch(c *gin.Context) {
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.store.AdvanceBatch(c.Request.Context(), c.Param("batch_id"), req.Status, h.now())
	if err != nil {
		abortDomainError(c, err)
		return
	}
	if !result.Changed {
		c.JSON(http.StatusOK, gin.H{"batch": result.Batch, "changed": false})
		return
	}

	for _, r := range result.Transitions {
		switch r.Status {
		case model.ReservationPrepTriggered:
			h.pool.Dispatch(notification.Notice{ReservationID: r.ID, Kind: notification.NoticePrepTriggered})
		case model.ReservationReady:
			h.pool.Dispatch(notification.Notice{ReservationID: r.ID, Kind: notification.NoticeReady})
		}
	}
	for _, r := range result.PriceDrops {
		h.pool.Dispatch(notification.Notice{ReservationID: r.ID, Kind: notification.NoticePriceDrop})
	}

	if result.Batch.Status == model.BatchLocked {
		if err := h.events.PublishBatchLocked(c.Request.Context(), event.BatchLockedEvent{
			BatchID:    result.Batch.ID,
			VenueID:    result.Batch.VenueID,
			ItemID:     result.Batch.ItemID,
			LiveCount:  result.Batch.LiveCount,
			PriceDrops: len(result.PriceDrops),
			LockedAt:   h.now(),
		}); err != nil {
			log.Printf("Failed to publish lock event for batch %s: %v", result.Batch.ID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"batch": result.Batch, "changed": true})
}

// TriggerPrep handles POST /api/reservations/{reservation_id}/prep:
// operators pull a single reservation into prep ahead of its batch.
func (h *Handler) TriggerPrep(c *gin.Context) {
	r, err := h.store.TriggerPrep(c.Request.Context(), c.Param("reservation_id"))
	if err != nil {
		abortDomainError(c, err)
		return
	}
	h.pool.Dispatch(notification.Notice{ReservationID: r.ID, Kind: notification.NoticePrepTriggered})
	c.JSON(http.StatusOK, gin.H{"reservation": r})
}

type etaRequest struct {
	ETAMinutes *int `json:"eta_minutes" binding:"required"`
}

// PutGuestETA handles POST /api/reservations/{reservation_id}/eta: the
// guest shares how far away they are. An ETA inside the prep threshold
// pulls the reservation straight into prep.
func (h *Handler) PutGuestETA(c *gin.Context) {
	var req etaRequest
	if err := c.ShouldBindJSON(&req); err != nil || *req.ETAMinutes < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid ETA"})
		return
	}

	r, triggered, err := h.store.SetGuestETA(c.Request.Context(), c.Param("reservation_id"), *req.ETAMinutes, h.cfg.Pricing.PrepTriggerETAMin)
	if err != nil {
		abortDomainError(c, err)
		return
	}
	if triggered {
		h.pool.Dispatch(notification.Notice{ReservationID: r.ID, Kind: notification.NoticePrepTriggered})
	}
	c.JSON(http.StatusOK, gin.H{"reservation": r, "prep_triggered": triggered})
}
