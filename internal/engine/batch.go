package engine

import (
	"fmt"
	"time"

	"sentra-batch-backend/internal/model"
)

// batchOrder gives each batch status its position on the forward-only
// track. Transitions may only move right.
var batchOrder = map[model.BatchStatus]int{
	model.BatchBuilding: 0,
	model.BatchLocked:   1,
	model.BatchPrepping: 2,
	model.BatchReady:    3,
	model.BatchComplete: 4,
}

// AdvanceBatch applies a status transition to the batch. Rules:
//
//	building -> locked    once now >= PrepAt (the caller runs the final
//	                      recompute pass over the batch's reservations)
//	locked   -> prepping  operator action; no-op when already prepping
//	prepping -> ready     operator action
//	ready    -> complete  all reservations terminal, or explicit close
//
// Anything else fails with ErrInvalidBatchTransition. The returned bool
// is false for the idempotent no-op cases.
func AdvanceBatch(b *model.Batch, target model.BatchStatus, now time.Time) (bool, error) {
	from, ok := batchOrder[b.Status]
	if !ok {
		return false, fmt.Errorf("batch %s has unknown status %q: %w", b.ID, b.Status, ErrInvalidBatchTransition)
	}
	to, ok := batchOrder[target]
	if !ok {
		return false, fmt.Errorf("batch %s: unknown target status %q: %w", b.ID, target, ErrInvalidBatchTransition)
	}
	if to == from {
		// Re-triggering the current stage is a no-op, not an error.
		return false, nil
	}
	if to < from || to != from+1 {
		return false, fmt.Errorf("batch %s: %s -> %s: %w", b.ID, b.Status, target, ErrInvalidBatchTransition)
	}

	if target == model.BatchLocked && now.Before(b.PrepAt) {
		return false, fmt.Errorf("batch %s locks at %s: %w", b.ID, b.PrepAt.Format(time.RFC3339), ErrInvalidBatchTransition)
	}
	b.Status = target
	return true, nil
}

// BatchSettled reports whether every reservation in the batch reached a
// terminal status, which is what allows ready -> complete without an
// explicit operator close.
func BatchSettled(reservations []model.Reservation) bool {
	for i := range reservations {
		if !reservations[i].Status.Terminal() {
			return false
		}
	}
	return true
}
