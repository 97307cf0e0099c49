package model

import "time"

// Venue represents a participating restaurant or coffee shop.
type Venue struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"uniqueIndex;size:64;not null" json:"slug"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`

	// Associations
	Items []Item `gorm:"foreignKey:VenueID" json:"items,omitempty"`
}
