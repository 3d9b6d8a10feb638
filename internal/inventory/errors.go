// Package inventory implements the seat inventory engine: the single
// authority for reserving and releasing seats against an event's capacity.
// This file defines the error taxonomy. All business-rule failures are
// sentinel values (or types unwrapping to one) so handlers can map each
// outcome to a distinct HTTP status and user-facing message.
package inventory

import (
	"errors"
	"fmt"
)

// ErrEventNotFound is returned when the referenced event does not exist.
var ErrEventNotFound = errors.New("event not found")

// ErrReservationNotFound is returned when the referenced booking does not exist.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrDuplicateBooking is returned when the user already holds an ACTIVE
// booking for the event. Handlers should translate this into 409.
var ErrDuplicateBooking = errors.New("user already holds an active booking for this event")

// ErrNotCancellable is returned when a cancellation targets a booking that
// has already been cancelled. It is reported distinctly rather than
// succeeding silently so callers and tests can assert on it.
var ErrNotCancellable = errors.New("booking is already cancelled")

// ErrUnauthorized is returned when the requester is neither the booking
// owner nor acting with administrative authority.
var ErrUnauthorized = errors.New("requester may not cancel this booking")

// ErrCapacityBelowBooked is returned when an admin attempts to shrink an
// event's capacity below its currently booked seats.
var ErrCapacityBelowBooked = errors.New("capacity cannot shrink below booked seats")

// ErrActiveBookings is returned when an event deletion is attempted while
// ACTIVE bookings still reference the event. Callers must cancel those
// bookings first.
var ErrActiveBookings = errors.New("event still has active bookings")

// ErrLockTimeout is returned when the per-event lock could not be acquired
// within the caller's context budget. It is retryable and deliberately
// distinct from the business errors above so callers can tell "try again"
// apart from "seats gone".
var ErrLockTimeout = errors.New("timed out waiting for event lock")

// ErrDuplicateID is returned when a generated booking ID collides with an
// existing ledger entry. With UUID generation this should not occur, but
// the ledger checks defensively.
var ErrDuplicateID = errors.New("booking id already exists")

// ErrEventNotBookable is returned when reserving against an event whose
// status is COMPLETED or CANCELLED.
var ErrEventNotBookable = errors.New("event is not open for booking")

// ErrInvalidSeats is returned when a reservation requests fewer than one seat.
var ErrInvalidSeats = errors.New("seats requested must be at least 1")

// ErrInvalidUser is returned when no user id accompanies the request.
var ErrInvalidUser = errors.New("user id is required")

// ErrInvalidCapacity is returned when an event is created or resized with a
// non-positive capacity.
var ErrInvalidCapacity = errors.New("total seats must be at least 1")

// ErrCapacityExceeded is the sentinel all CapacityError values unwrap to.
var ErrCapacityExceeded = errors.New("not enough seats remaining")

// CapacityError reports a reservation that would overbook the event. It
// carries the remaining seat count observed at failure time, not a stale
// value, so the caller can present an accurate message.
type CapacityError struct {
	Requested uint32
	Remaining uint32
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("not enough seats remaining: requested %d, %d left", e.Requested, e.Remaining)
}

// Unwrap lets errors.Is(err, ErrCapacityExceeded) match.
func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// ErrInvariant is the sentinel all InvariantError values unwrap to.
var ErrInvariant = errors.New("seat accounting invariant violated")

// InvariantError signals that booked seats were observed outside
// [0, total]. It is fatal for the affected event: the engine refuses
// further writes to it until the stored state is repaired manually. It is
// never silently corrected.
type InvariantError struct {
	EventID uint64
	Total   uint32
	Booked  uint32
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("seat accounting invariant violated for event %d: booked=%d total=%d", e.EventID, e.Booked, e.Total)
}

// Unwrap lets errors.Is(err, ErrInvariant) match.
func (e *InvariantError) Unwrap() error { return ErrInvariant }
