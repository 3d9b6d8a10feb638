package inventory

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eventease/eventease/internal/model"
)

// Engine enforces the seat inventory rules: booked seats never exceed
// capacity, a user never holds two ACTIVE bookings for the same event, and
// an event's booked counter always equals the seat sum of its ACTIVE ledger
// entries. It is the only component allowed to mutate TotalSeats and
// BookedSeats or to create and cancel ledger entries.
//
// Every mutating operation on one event runs under that event's lock and
// inside a storage transaction, so the read-decide-write sequence can never
// interleave with another operation on the same event. Operations on
// different events do not contend.
type Engine struct {
	store  Store
	locks  *lockTable
	halted sync.Map // eventID -> *InvariantError
}

// NewEngine returns an Engine backed by the given store.
func NewEngine(store Store) *Engine {
	if store == nil {
		panic("nil store passed to NewEngine")
	}
	return &Engine{store: store, locks: newLockTable()}
}

// Reserve books seats for userID against eventID. On success it commits a
// new ACTIVE ledger entry together with the incremented seat counter and
// returns the entry. Once Reserve has returned success the reservation is
// final; abandoning the request does not roll it back, only Cancel does.
func (e *Engine) Reserve(ctx context.Context, eventID, userID uint64, seats uint32) (*model.Booking, error) {
	if seats < 1 {
		return nil, ErrInvalidSeats
	}
	if userID == 0 {
		return nil, ErrInvalidUser
	}
	if err := e.checkHalted(eventID); err != nil {
		return nil, err
	}

	release, err := e.locks.acquire(ctx, eventID)
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reserve tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ev, err := tx.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := e.verifyBounds(ev); err != nil {
		return nil, err
	}
	if ev.Status != model.EventStatusUpcoming {
		return nil, ErrEventNotBookable
	}

	existing, err := tx.FindActiveBooking(ctx, eventID, userID)
	if err != nil {
		return nil, fmt.Errorf("find active booking: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateBooking
	}

	remaining := ev.TotalSeats - ev.BookedSeats
	if seats > remaining {
		return nil, &CapacityError{Requested: seats, Remaining: remaining}
	}

	b := &model.Booking{
		ID:        uuid.NewString(),
		EventID:   eventID,
		UserID:    userID,
		Seats:     seats,
		Status:    model.BookingStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := tx.InsertBooking(ctx, b); err != nil {
		return nil, err
	}
	if err := tx.SetBookedSeats(ctx, eventID, ev.BookedSeats+seats); err != nil {
		return nil, fmt.Errorf("update booked seats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reserve: %w", err)
	}
	return b, nil
}

// Cancel releases the seats held by a booking. requesterID must match the
// booking's owner unless admin is true. Cancelling an already-cancelled
// booking fails with ErrNotCancellable and changes nothing.
func (e *Engine) Cancel(ctx context.Context, bookingID string, requesterID uint64, admin bool) (*model.Booking, error) {
	// Resolve the event outside the lock; event and owner of a ledger
	// entry are immutable after creation.
	b, err := e.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != requesterID && !admin {
		return nil, ErrUnauthorized
	}
	if err := e.checkHalted(b.EventID); err != nil {
		return nil, err
	}

	release, err := e.locks.acquire(ctx, b.EventID)
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cancel tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cur, err := tx.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if cur.Status != model.BookingStatusActive {
		return nil, ErrNotCancellable
	}
	ev, err := tx.GetEvent(ctx, cur.EventID)
	if err != nil {
		return nil, err
	}
	if err := e.verifyBounds(ev); err != nil {
		return nil, err
	}
	if cur.Seats > ev.BookedSeats {
		// Releasing would drive the counter negative: the ledger and the
		// counter disagree.
		return nil, e.halt(ev.ID, ev.TotalSeats, ev.BookedSeats)
	}

	now := time.Now().UTC()
	if err := tx.MarkCancelled(ctx, bookingID, now); err != nil {
		return nil, fmt.Errorf("mark cancelled: %w", err)
	}
	if err := tx.SetBookedSeats(ctx, ev.ID, ev.BookedSeats-cur.Seats); err != nil {
		return nil, fmt.Errorf("update booked seats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel: %w", err)
	}
	cur.Status = model.BookingStatusCancelled
	cur.CancelledAt = &now
	return cur, nil
}

// RemainingSeats reports capacity minus active bookings for an event. A
// negative result is impossible under the invariant; observing one trips
// the consistency alarm instead of being clamped.
func (e *Engine) RemainingSeats(ctx context.Context, eventID uint64) (uint32, error) {
	if err := e.checkHalted(eventID); err != nil {
		return 0, err
	}
	ev, err := e.store.GetEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	if err := e.verifyBounds(ev); err != nil {
		return 0, err
	}
	return ev.TotalSeats - ev.BookedSeats, nil
}

// AdjustCapacity changes an event's total seats. Shrinking below the
// currently booked count is rejected so existing reservations stay valid.
func (e *Engine) AdjustCapacity(ctx context.Context, eventID uint64, newTotal uint32) (*model.Event, error) {
	if newTotal < 1 {
		return nil, ErrInvalidCapacity
	}
	if err := e.checkHalted(eventID); err != nil {
		return nil, err
	}

	release, err := e.locks.acquire(ctx, eventID)
	if err != nil {
		return nil, err
	}
	defer release()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin adjust tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ev, err := tx.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := e.verifyBounds(ev); err != nil {
		return nil, err
	}
	if newTotal < ev.BookedSeats {
		return nil, ErrCapacityBelowBooked
	}
	if err := tx.SetTotalSeats(ctx, eventID, newTotal); err != nil {
		return nil, fmt.Errorf("update total seats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit adjust: %w", err)
	}
	ev.TotalSeats = newTotal
	return ev, nil
}

// CreateEvent publishes a new event record with zero booked seats.
func (e *Engine) CreateEvent(ctx context.Context, ev *model.Event) error {
	if ev.TotalSeats < 1 {
		return ErrInvalidCapacity
	}
	now := time.Now().UTC()
	ev.BookedSeats = 0
	if ev.Status == "" {
		ev.Status = model.EventStatusUpcoming
	}
	ev.CreatedAt = now
	ev.UpdatedAt = now
	ev.NormalizeTags()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := tx.InsertEvent(ctx, ev); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create: %w", err)
	}
	return nil
}

// DeleteEvent removes an event record. Deletion is rejected while ACTIVE
// bookings reference the event; callers must cancel them through the
// engine first. Under the ledger-sum invariant, booked seats are zero
// exactly when no ACTIVE entries remain.
func (e *Engine) DeleteEvent(ctx context.Context, eventID uint64) error {
	if err := e.checkHalted(eventID); err != nil {
		return err
	}
	release, err := e.locks.acquire(ctx, eventID)
	if err != nil {
		return err
	}
	defer release()

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ev, err := tx.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if err := e.verifyBounds(ev); err != nil {
		return err
	}
	if ev.BookedSeats > 0 {
		return ErrActiveBookings
	}
	if err := tx.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// GetEvent exposes the stored event record for read-only callers.
func (e *Engine) GetEvent(ctx context.Context, eventID uint64) (*model.Event, error) {
	return e.store.GetEvent(ctx, eventID)
}

// GetBooking returns a single ledger entry.
func (e *Engine) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return e.store.GetBooking(ctx, id)
}

// ListBookingsByEvent returns the event's ledger entries in creation order.
func (e *Engine) ListBookingsByEvent(ctx context.Context, eventID uint64) ([]model.Booking, error) {
	return e.store.ListBookingsByEvent(ctx, eventID)
}

// ListBookingsByUser returns the user's ledger entries in creation order.
func (e *Engine) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return e.store.ListBookingsByUser(ctx, userID)
}

// checkHalted rejects writes to an event whose stored state has been
// observed to violate the accounting invariant.
func (e *Engine) checkHalted(eventID uint64) error {
	if v, ok := e.halted.Load(eventID); ok {
		return v.(*InvariantError)
	}
	return nil
}

// verifyBounds validates 0 <= booked <= total, halting the event on failure.
func (e *Engine) verifyBounds(ev *model.Event) error {
	if ev.BookedSeats > ev.TotalSeats {
		return e.halt(ev.ID, ev.TotalSeats, ev.BookedSeats)
	}
	return nil
}

// halt records an invariant violation and freezes all further writes to the
// event until the stored state is repaired manually. The violation is
// logged, never silently corrected.
func (e *Engine) halt(eventID uint64, total, booked uint32) *InvariantError {
	ierr := &InvariantError{EventID: eventID, Total: total, Booked: booked}
	if prev, loaded := e.halted.LoadOrStore(eventID, ierr); loaded {
		return prev.(*InvariantError)
	}
	log.Printf("inventory: HALTING event %d: %v", eventID, ierr)
	return ierr
}
