package model

import "time"

// PricingMode selects how an item's tier ladder is produced.
type PricingMode string

const (
	PricingStatic     PricingMode = "static"     // operator-authored ladder
	PricingEfficiency PricingMode = "efficiency" // volume discount, ladder generated
	PricingRush       PricingMode = "rush"       // price climbs through the batch window
)

// Item is a sellable unit configured by the venue operator. Prices are
// integer minor-currency units (cents). Static items carry Tiers sorted
// ascending by MinCount; the computed modes carry their generator
// parameters instead and leave Tiers empty. Pricing configuration is
// immutable while a batch for the item is open.
type Item struct {
	ID              int64       `gorm:"primaryKey" json:"id"`
	VenueID         int64       `gorm:"uniqueIndex:idx_venue_item;not null" json:"venue_id"`
	Name            string      `gorm:"uniqueIndex:idx_venue_item;size:128;not null" json:"name"`
	Description     string      `gorm:"size:512" json:"description"`
	BasePriceCents  int         `gorm:"not null" json:"base_price_cents"` // walk-in price
	LockFeeCents    int         `gorm:"not null" json:"lock_fee_cents"`   // flat deposit, credited at redemption
	PrepTimeMinutes int         `gorm:"not null" json:"prep_time_minutes"`
	PricingMode     PricingMode `gorm:"size:16;not null;default:static" json:"pricing_mode"`

	// Efficiency mode parameters.
	MaxDiscountCents int `gorm:"not null;default:0" json:"max_discount_cents,omitempty"`
	PeakCount        int `gorm:"not null;default:0" json:"peak_count,omitempty"`
	LadderSteps      int `gorm:"not null;default:0" json:"ladder_steps,omitempty"`

	// Rush mode parameter.
	PeakPriceCents int `gorm:"not null;default:0" json:"peak_price_cents,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Associations
	Venue Venue       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Tiers []BatchTier `gorm:"foreignKey:ItemID" json:"tiers,omitempty"`
}

// BatchTier is one (participant threshold, price) rung of an item's
// volume ladder. MinCount is inclusive.
type BatchTier struct {
	ID         int64 `gorm:"primaryKey" json:"-"`
	ItemID     int64 `gorm:"index;not null" json:"-"`
	MinCount   int   `gorm:"not null" json:"min_count"`
	PriceCents int   `gorm:"not null" json:"price_cents"`
}
