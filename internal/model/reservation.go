package model

import "time"

// ReservationStatus enumerates the reservation lifecycle. The happy path
// is pending -> active -> prep_triggered -> ready -> redeemed; expired is
// reachable from every non-terminal status via the validity-window sweep.
type ReservationStatus string

const (
	ReservationPending       ReservationStatus = "pending"
	ReservationActive        ReservationStatus = "active"
	ReservationPrepTriggered ReservationStatus = "prep_triggered"
	ReservationReady         ReservationStatus = "ready"
	ReservationRedeemed      ReservationStatus = "redeemed"
	ReservationExpired       ReservationStatus = "expired"
)

// Terminal reports whether the status admits no further transitions.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationRedeemed || s == ReservationExpired
}

// Reservation is one guest's price lock on a batch. LockedPriceCents is
// the tier price at the moment of locking; FinalPriceCents is set only
// when a later recomputation found a strictly lower tier price, and once
// set it never increases.
type Reservation struct {
	ID               string            `gorm:"primaryKey;size:36" json:"id"`
	BatchID          string            `gorm:"index;size:36;not null" json:"batch_id"`
	VenueID          int64             `gorm:"index;not null" json:"venue_id"`
	ItemID           int64             `gorm:"not null" json:"item_id"`
	LockedPriceCents int               `gorm:"not null" json:"locked_price_cents"`
	FinalPriceCents  *int              `json:"final_price_cents,omitempty"` // nil until a cheaper tier unlocked
	LockFeeCents     int               `gorm:"not null" json:"lock_fee_cents"`
	RedeemCode       string            `gorm:"index;size:12;not null" json:"redeem_code"`
	Status           ReservationStatus `gorm:"size:16;not null" json:"status"`
	GuestETAMinutes  *int              `json:"guest_eta_minutes,omitempty"` // external geolocation signal
	Vibe             string            `gorm:"size:32" json:"vibe,omitempty"`
	ExpiresAt        time.Time         `gorm:"index;not null" json:"expires_at"`
	RedeemedAt       *time.Time        `json:"redeemed_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"-"`
}

// EffectivePriceCents is the price the guest currently owes before the
// lock-fee credit: the recomputed final price when one exists, otherwise
// the price locked at join time.
func (r *Reservation) EffectivePriceCents() int {
	if r.FinalPriceCents != nil {
		return *r.FinalPriceCents
	}
	return r.LockedPriceCents
}

// AmountDueCents is what the guest pays at pickup. The lock fee was
// collected up front and is credited here; lock() guarantees the fee
// never exceeds the lowest reachable tier price, so this is never
// negative.
func (r *Reservation) AmountDueCents() int {
	return r.EffectivePriceCents() - r.LockFeeCents
}
