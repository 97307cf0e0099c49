package model

import "time"

// BatchStatus enumerates the forward-only lifecycle of a batch.
type BatchStatus string

const (
	BatchBuilding BatchStatus = "building"
	BatchLocked   BatchStatus = "locked"
	BatchPrepping BatchStatus = "prepping"
	BatchReady    BatchStatus = "ready"
	BatchComplete BatchStatus = "complete"
)

// Batch is a time-boxed pricing pool for one item. Guests who lock into
// the same batch count toward each other's volume tier. Invariant:
// StartsAt < PrepAt <= EndsAt.
type Batch struct {
	ID        string      `gorm:"primaryKey;size:36" json:"id"`
	VenueID   int64       `gorm:"index;not null" json:"venue_id"`
	ItemID    int64       `gorm:"index;not null" json:"item_id"`
	StartsAt  time.Time   `gorm:"not null" json:"starts_at"`
	EndsAt    time.Time   `gorm:"not null" json:"ends_at"`
	PrepAt    time.Time   `gorm:"not null" json:"prep_at"` // kitchen prep begins; no joins after this
	Status    BatchStatus `gorm:"size:16;not null" json:"status"`
	LiveCount int         `gorm:"not null" json:"live_count"` // participants counted toward tier pricing
	CreatedAt time.Time   `json:"-"`
	UpdatedAt time.Time   `json:"-"`

	// Associations
	Item         Item          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Reservations []Reservation `gorm:"foreignKey:BatchID" json:"reservations,omitempty"`
}

// Open reports whether guests may still lock into the batch at t.
func (b *Batch) Open(t time.Time) bool {
	return b.Status == BatchBuilding && t.Before(b.PrepAt)
}
