package model

import "time"

// Booking statuses. A booking is created ACTIVE and can only move to
// CANCELLED; both states are terminal for the purposes of seat accounting
// and no PENDING state exists because reservations commit synchronously.
const (
	BookingStatusActive    = "ACTIVE"
	BookingStatusCancelled = "CANCELLED"
)

// Booking is one entry of the reservation ledger: a claim on a number of
// seats by a user against an event. Entries are never deleted; cancellation
// flips the status and stamps CancelledAt so the ledger stays a full audit
// trail of every booking attempt that succeeded.
//
// Fields:
//  ID          – UUID assigned at creation.
//  EventID     – event being booked (referenced by id, not owned).
//  UserID      – user holding the reservation.
//  Seats       – number of seats claimed, always >= 1.
//  Status      – ACTIVE or CANCELLED.
//  CreatedAt   – when the reservation was committed.
//  CancelledAt – when it was cancelled; nil while ACTIVE.
type Booking struct {
	ID          string     `json:"id"`
	EventID     uint64     `json:"event_id"`
	UserID      uint64     `json:"user_id"`
	Seats       uint32     `json:"seats"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// Active reports whether the booking still holds seats.
func (b *Booking) Active() bool { return b.Status == BookingStatusActive }
