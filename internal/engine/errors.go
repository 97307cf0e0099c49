// Package engine holds the pure state-machine rules for reservations and
// batches. It performs no I/O; the store wraps these transitions in
// per-row transactions.
package engine

import "errors"

var (
	// ErrBatchClosed is returned when a lock is attempted outside the
	// batch's building window.
	ErrBatchClosed = errors.New("batch is closed to new locks")

	// ErrFeeExceedsPrice is returned when the configured lock fee meets
	// or exceeds the price it discounts.
	ErrFeeExceedsPrice = errors.New("lock fee exceeds tier price")

	// ErrInvalidTransition is returned on an illegal reservation
	// state-machine move.
	ErrInvalidTransition = errors.New("invalid reservation transition")

	// ErrInvalidBatchTransition is returned on an illegal or backward
	// batch state-machine move.
	ErrInvalidBatchTransition = errors.New("invalid batch transition")

	// ErrCodeMismatch is returned when a presented redeem code does not
	// match the reservation.
	ErrCodeMismatch = errors.New("redeem code mismatch")

	// ErrAlreadyRedeemed is returned when redeeming or expiring a
	// reservation that has already been redeemed.
	ErrAlreadyRedeemed = errors.New("reservation already redeemed")

	// ErrAlreadyExpired is returned when expiring a reservation that has
	// already been expired by a concurrent sweep.
	ErrAlreadyExpired = errors.New("reservation already expired")

	// ErrExpiredReservation is returned when redeeming past the validity
	// window.
	ErrExpiredReservation = errors.New("reservation expired")
)
