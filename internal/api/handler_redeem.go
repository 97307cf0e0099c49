package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"sentra-batch-backend/internal/codes"
	"sentra-batch-backend/internal/event"
	"sentra-batch-backend/internal/model"
)

type redeemRequest struct {
	Code string `json:"code" binding:"required"`
}

type redeemResponse struct {
	Reservation    model.Reservation `json:"reservation"`
	AmountDueCents int               `json:"amount_due_cents"`
}

// Redeem handles POST /api/redeem: the counter staff types in the guest's
// code and the engine settles the reservation.
func (h *Handler) Redeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	code := codes.Normalize(req.Code)
	if !codes.WellFormed(code) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Malformed redeem code"})
		return
	}

	result, err := h.store.Redeem(c.Request.Context(), code, h.now())
	if err != nil {
		abortDomainError(c, err)
		return
	}

	r := result.Reservation
	if err := h.events.PublishReservationRedeemed(c.Request.Context(), event.ReservationRedeemedEvent{
		ReservationID:  r.ID,
		BatchID:        r.BatchID,
		VenueID:        r.VenueID,
		AmountDueCents: result.AmountDueCents,
		RedeemedAt:     *r.RedeemedAt,
	}); err != nil {
		log.Printf("Failed to publish redemption event for reservation %s: %v", r.ID, err)
	}

	c.JSON(http.StatusOK, redeemResponse{
		Reservation:    r,
		AmountDueCents: result.AmountDueCents,
	})
}
