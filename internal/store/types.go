package store

import (
	"sentra-batch-backend/internal/aggregate"
	"sentra-batch-backend/internal/model"
)

// LockOptions carries the optional guest inputs of a lock-in action.
type LockOptions struct {
	Vibe            string `json:"vibe"`
	GuestETAMinutes *int   `json:"guest_eta_minutes"`
}

// TierInfo describes where a batch sits on its item's volume ladder.
type TierInfo struct {
	Current      model.BatchTier  `json:"current"`
	Next         *model.BatchTier `json:"next,omitempty"`
	WalkInCents  int              `json:"walk_in_cents"`
	SavingsCents int              `json:"savings_cents"`
}

// LockResult is returned from a successful lock. PriceDrops lists the
// batch's earlier reservations whose effective price got cheaper because
// this lock pushed the live count over a tier threshold.
type LockResult struct {
	Reservation model.Reservation
	Batch       model.Batch
	Tier        TierInfo
	PriceDrops  []model.Reservation
}

// RedeemResult pairs the settled reservation with the amount still due
// at the counter.
type RedeemResult struct {
	Reservation    model.Reservation
	AmountDueCents int
}

// AdvanceResult reports a batch transition and the reservation-level
// transitions it fanned out to (prep triggers, ready marks, and the
// final price drops of the closing recompute pass).
type AdvanceResult struct {
	Batch       model.Batch
	Changed     bool
	Transitions []model.Reservation
	PriceDrops  []model.Reservation
}

// BatchView is the guest-facing live pricing projection for one batch.
type BatchView struct {
	Batch model.Batch `json:"batch"`
	Item  model.Item  `json:"item"`
	Tier  TierInfo    `json:"tier"`
}

// OperatorView is the venue dashboard projection: the venue's batches
// with their reservations, the urgent prep queue, and the day's stats.
type OperatorView struct {
	Batches []model.Batch        `json:"batches"`
	Urgent  []model.Reservation  `json:"urgent_prep"`
	Stats   aggregate.DailyStats `json:"daily_stats"`
}
