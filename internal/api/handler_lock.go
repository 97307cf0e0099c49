package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sentra-batch-backend/internal/model"
	"sentra-batch-backend/internal/notification"
	"sentra-batch-backend/internal/store"
)

// lockRequest carries the optional guest inputs of a lock-in action.
type lockRequest struct {
	Vibe            string `json:"vibe"`
	GuestETAMinutes *int   `json:"guest_eta_minutes"`
}

// lockResponse is the guest's confirmation: their reservation, the tier
// they locked, and what the batch looks like now.
type lockResponse struct {
	Reservation model.Reservation `json:"reservation"`
	Batch       model.Batch       `json:"batch"`
	Tier        store.TierInfo    `json:"tier"`
}

// LockItem handles POST /api/items/{item_id}/lock: finds (or opens) the
// item's current building batch and locks the guest in.
func (h *Handler) LockItem(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := h.now()
	batch, err := h.store.FindOrCreateBatch(c.Request.Context(), itemID, now)
	if err != nil {
		abortDomainError(c, err)
		return
	}
	h.lockInto(c, batch.ID, req)
}

// LockBatch handles POST /api/batches/{batch_id}/lock for guests joining
// a specific (e.g. later) batch. A batch past its building window fails
// with a conflict rather than silently moving the guest; the client
// re-queries for an open one.
func (h *Handler) LockBatch(c *gin.Context) {
	var req lockRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.lockInto(c, c.Param("batch_id"), req)
}

func (h *Handler) lockInto(c *gin.Context, batchID string, req lockRequest) {
	result, err := h.store.Lock(c.Request.Context(), batchID, store.LockOptions{
		Vibe:            req.Vibe,
		GuestETAMinutes: req.GuestETAMinutes,
	}, h.now())
	if err != nil {
		abortDomainError(c, err)
		return
	}

	// This lock may have pushed earlier reservations over a tier
	// threshold; tell those guests their price dropped.
	for _, dropped := range result.PriceDrops {
		h.pool.Dispatch(notification.Notice{ReservationID: dropped.ID, Kind: notification.NoticePriceDrop})
	}

	c.JSON(http.StatusCreated, lockResponse{
		Reservation: result.Reservation,
		Batch:       result.Batch,
		Tier:        result.Tier,
	})
}
