package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetBatchView handles GET /api/batches/{batch_id}: the guest-facing
// snapshot of a batch with its current and next pricing tier.
func (h *Handler) GetBatchView(c *gin.Context) {
	view, err := h.store.BatchView(c.Request.Context(), c.Param("batch_id"), h.now())
	if err != nil {
		abortDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetVenueBatches handles GET /api/venues/{venue_id}/batches: all batches
// a guest could still join or is waiting on at a venue.
func (h *Handler) GetVenueBatches(c *gin.Context) {
	venueID, err := strconv.ParseInt(c.Param("venue_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid venue ID"})
		return
	}

	views, err := h.store.VenueBatches(c.Request.Context(), venueID, h.now())
	if err != nil {
		abortDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": views})
}
