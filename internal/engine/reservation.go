package engine

import (
	"fmt"
	"time"

	"sentra-batch-backend/internal/model"
	"sentra-batch-backend/internal/pricing"
)

// Activate moves a freshly created reservation from pending to active.
func Activate(r *model.Reservation) error {
	if r.Status != model.ReservationPending {
		return fmt.Errorf("activate from %s: %w", r.Status, ErrInvalidTransition)
	}
	r.Status = model.ReservationActive
	return nil
}

// TriggerPrep marks the kitchen prep signal for one reservation. Valid
// only from active; the signal itself (ETA-based or operator tap) comes
// from outside the engine.
func TriggerPrep(r *model.Reservation) error {
	if r.Status != model.ReservationActive {
		return fmt.Errorf("trigger prep from %s: %w", r.Status, ErrInvalidTransition)
	}
	r.Status = model.ReservationPrepTriggered
	return nil
}

// MarkReady records that prep finished for the reservation.
func MarkReady(r *model.Reservation) error {
	if r.Status != model.ReservationPrepTriggered {
		return fmt.Errorf("mark ready from %s: %w", r.Status, ErrInvalidTransition)
	}
	r.Status = model.ReservationReady
	return nil
}

// Redeem validates the presented code and the validity window, then
// settles the reservation. Returns the amount still due at pickup:
// the effective price minus the lock-fee credit.
func Redeem(r *model.Reservation, code string, now time.Time) (int, error) {
	if code != r.RedeemCode {
		return 0, fmt.Errorf("reservation %s: %w", r.ID, ErrCodeMismatch)
	}
	switch r.Status {
	case model.ReservationRedeemed:
		return 0, fmt.Errorf("reservation %s: %w", r.ID, ErrAlreadyRedeemed)
	case model.ReservationExpired:
		return 0, fmt.Errorf("reservation %s: %w", r.ID, ErrExpiredReservation)
	}
	if !now.Before(r.ExpiresAt) {
		return 0, fmt.Errorf("reservation %s past validity window: %w", r.ID, ErrExpiredReservation)
	}
	redeemedAt := now
	r.Status = model.ReservationRedeemed
	r.RedeemedAt = &redeemedAt
	return r.AmountDueCents(), nil
}

// Expire transitions a reservation whose validity window has elapsed
// without redemption. The lock fee is forfeited. The first writer wins:
// a concurrent redeem or sweep surfaces as ErrAlreadyRedeemed or
// ErrAlreadyExpired rather than double-applying.
func Expire(r *model.Reservation, now time.Time) error {
	switch r.Status {
	case model.ReservationRedeemed:
		return fmt.Errorf("reservation %s: %w", r.ID, ErrAlreadyRedeemed)
	case model.ReservationExpired:
		return fmt.Errorf("reservation %s: %w", r.ID, ErrAlreadyExpired)
	}
	if now.Before(r.ExpiresAt) {
		return fmt.Errorf("reservation %s not yet due: %w", r.ID, ErrInvalidTransition)
	}
	r.Status = model.ReservationExpired
	return nil
}

// RecomputeIfCheaper re-resolves the tier for the batch's current
// participant count and lowers the reservation's final price when a
// strictly cheaper tier has unlocked. The final price only ever
// decreases: the minimum ever observed is kept across any number of
// recomputations. Reports whether the price dropped.
func RecomputeIfCheaper(r *model.Reservation, tiers []model.BatchTier, participantCount int) (bool, error) {
	if r.Status.Terminal() {
		return false, nil
	}
	// The resolver's argument excludes the guest being priced, so the
	// full count maps to count-1 already-present guests.
	tier, err := pricing.ResolveCurrentTier(tiers, participantCount-1)
	if err != nil {
		return false, err
	}
	if tier.PriceCents >= r.EffectivePriceCents() {
		return false, nil
	}
	price := tier.PriceCents
	r.FinalPriceCents = &price
	return true, nil
}
