package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// A guest subscribes against the reservations they want updates for
// (price drops, prep started, order ready).
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey"`
	P256DH    string    `gorm:"column:p256dh;not null"`
	Auth      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	// Associations
	Reservations []*Reservation `gorm:"many2many:subscription_reservation_mapping;"`
}
