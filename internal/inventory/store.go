package inventory

import (
	"context"
	"time"

	"github.com/eventease/eventease/internal/model"
)

// Store is the storage abstraction the engine orchestrates. It carries no
// business rules: capacity and double-booking checks live in the engine,
// which calls the Tx methods while holding the per-event lock.
//
// Two implementations exist: the MySQL-backed store in internal/repository
// (SELECT ... FOR UPDATE inside explicit transactions) and the in-process
// MemoryStore below used by tests.
type Store interface {
	// Begin opens a transaction. Mutations performed through the returned
	// Tx become visible only after Commit; Rollback discards them.
	Begin(ctx context.Context) (Tx, error)

	// GetEvent returns the event or ErrEventNotFound.
	GetEvent(ctx context.Context, eventID uint64) (*model.Event, error)

	// GetBooking returns the ledger entry or ErrReservationNotFound.
	GetBooking(ctx context.Context, id string) (*model.Booking, error)

	// ListBookingsByEvent returns all ledger entries for an event in
	// creation order.
	ListBookingsByEvent(ctx context.Context, eventID uint64) ([]model.Booking, error)

	// ListBookingsByUser returns all ledger entries for a user in
	// creation order.
	ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
}

// Tx is a single atomic unit of inventory work. Implementations must
// guarantee that either every mutation commits or none does; a partial
// write between the ledger insert and the seat-counter update must be
// impossible.
type Tx interface {
	// GetEvent loads the event row, locked for update where the backend
	// supports it. Returns ErrEventNotFound for unknown ids.
	GetEvent(ctx context.Context, eventID uint64) (*model.Event, error)

	// InsertEvent stores a new event and assigns its ID.
	InsertEvent(ctx context.Context, ev *model.Event) error

	// DeleteEvent removes the event row. The engine only calls this after
	// verifying no ACTIVE bookings remain.
	DeleteEvent(ctx context.Context, eventID uint64) error

	// SetBookedSeats writes the booked counter. Engine-internal: the value
	// is always derived under the per-event lock.
	SetBookedSeats(ctx context.Context, eventID uint64, booked uint32) error

	// SetTotalSeats writes the capacity.
	SetTotalSeats(ctx context.Context, eventID uint64, total uint32) error

	// FindActiveBooking returns the ACTIVE ledger entry for (event, user),
	// or (nil, nil) when none exists.
	FindActiveBooking(ctx context.Context, eventID, userID uint64) (*model.Booking, error)

	// GetBooking returns the ledger entry or ErrReservationNotFound.
	GetBooking(ctx context.Context, id string) (*model.Booking, error)

	// InsertBooking appends a ledger entry, failing with ErrDuplicateID on
	// an id collision.
	InsertBooking(ctx context.Context, b *model.Booking) error

	// MarkCancelled flips the entry to CANCELLED and stamps cancelledAt.
	MarkCancelled(ctx context.Context, id string, cancelledAt time.Time) error

	Commit() error
	Rollback() error
}
