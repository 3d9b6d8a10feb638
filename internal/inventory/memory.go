package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/eventease/eventease/internal/model"
)

// MemoryStore is an in-process Store used by tests and local development.
// A transaction holds the store mutex from Begin until Commit or Rollback,
// which serializes all transactions; mutations are recorded with undo
// closures so Rollback restores the previous state exactly.
type MemoryStore struct {
	mu          sync.Mutex
	nextEventID uint64
	events      map[uint64]*model.Event
	bookings    map[string]*model.Booking
	order       []string // booking ids in creation order
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:   make(map[uint64]*model.Event),
		bookings: make(map[string]*model.Booking),
	}
}

// Begin locks the store and returns a transaction over it.
func (s *MemoryStore) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return &memTx{s: s}, nil
}

// GetEvent returns a copy of the stored event.
func (s *MemoryStore) GetEvent(ctx context.Context, eventID uint64) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getEventLocked(eventID)
}

// GetBooking returns a copy of the stored ledger entry.
func (s *MemoryStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getBookingLocked(id)
}

// ListBookingsByEvent returns the event's entries in creation order.
func (s *MemoryStore) ListBookingsByEvent(ctx context.Context, eventID uint64) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0)
	for _, id := range s.order {
		if b := s.bookings[id]; b.EventID == eventID {
			out = append(out, *copyBooking(b))
		}
	}
	return out, nil
}

// ListBookingsByUser returns the user's entries in creation order.
func (s *MemoryStore) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0)
	for _, id := range s.order {
		if b := s.bookings[id]; b.UserID == userID {
			out = append(out, *copyBooking(b))
		}
	}
	return out, nil
}

func (s *MemoryStore) getEventLocked(eventID uint64) (*model.Event, error) {
	ev, ok := s.events[eventID]
	if !ok {
		return nil, ErrEventNotFound
	}
	return copyEvent(ev), nil
}

func (s *MemoryStore) getBookingLocked(id string) (*model.Booking, error) {
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	return copyBooking(b), nil
}

// memTx mutates the store in place and keeps an undo log for Rollback. The
// store mutex stays held for the lifetime of the transaction.
type memTx struct {
	s    *MemoryStore
	undo []func()
	done bool
}

func (t *memTx) GetEvent(ctx context.Context, eventID uint64) (*model.Event, error) {
	return t.s.getEventLocked(eventID)
}

func (t *memTx) InsertEvent(ctx context.Context, ev *model.Event) error {
	t.s.nextEventID++
	ev.ID = t.s.nextEventID
	stored := copyEvent(ev)
	t.s.events[ev.ID] = stored
	id := ev.ID
	t.undo = append(t.undo, func() {
		delete(t.s.events, id)
		t.s.nextEventID--
	})
	return nil
}

func (t *memTx) DeleteEvent(ctx context.Context, eventID uint64) error {
	ev, ok := t.s.events[eventID]
	if !ok {
		return ErrEventNotFound
	}
	delete(t.s.events, eventID)
	t.undo = append(t.undo, func() { t.s.events[eventID] = ev })
	return nil
}

func (t *memTx) SetBookedSeats(ctx context.Context, eventID uint64, booked uint32) error {
	ev, ok := t.s.events[eventID]
	if !ok {
		return ErrEventNotFound
	}
	prev := ev.BookedSeats
	ev.BookedSeats = booked
	ev.UpdatedAt = time.Now().UTC()
	t.undo = append(t.undo, func() { ev.BookedSeats = prev })
	return nil
}

func (t *memTx) SetTotalSeats(ctx context.Context, eventID uint64, total uint32) error {
	ev, ok := t.s.events[eventID]
	if !ok {
		return ErrEventNotFound
	}
	prev := ev.TotalSeats
	ev.TotalSeats = total
	ev.UpdatedAt = time.Now().UTC()
	t.undo = append(t.undo, func() { ev.TotalSeats = prev })
	return nil
}

func (t *memTx) FindActiveBooking(ctx context.Context, eventID, userID uint64) (*model.Booking, error) {
	for _, id := range t.s.order {
		b := t.s.bookings[id]
		if b.EventID == eventID && b.UserID == userID && b.Status == model.BookingStatusActive {
			return copyBooking(b), nil
		}
	}
	return nil, nil
}

func (t *memTx) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return t.s.getBookingLocked(id)
}

func (t *memTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	if _, exists := t.s.bookings[b.ID]; exists {
		return ErrDuplicateID
	}
	t.s.bookings[b.ID] = copyBooking(b)
	t.s.order = append(t.s.order, b.ID)
	id := b.ID
	t.undo = append(t.undo, func() {
		delete(t.s.bookings, id)
		t.s.order = t.s.order[:len(t.s.order)-1]
	})
	return nil
}

func (t *memTx) MarkCancelled(ctx context.Context, id string, cancelledAt time.Time) error {
	b, ok := t.s.bookings[id]
	if !ok {
		return ErrReservationNotFound
	}
	prevStatus, prevAt := b.Status, b.CancelledAt
	b.Status = model.BookingStatusCancelled
	at := cancelledAt
	b.CancelledAt = &at
	t.undo = append(t.undo, func() {
		b.Status = prevStatus
		b.CancelledAt = prevAt
	})
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	t.undo = nil
	t.s.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
	t.s.mu.Unlock()
	return nil
}

func copyEvent(ev *model.Event) *model.Event {
	out := *ev
	out.Tags = append([]string(nil), ev.Tags...)
	return &out
}

func copyBooking(b *model.Booking) *model.Booking {
	out := *b
	if b.CancelledAt != nil {
		at := *b.CancelledAt
		out.CancelledAt = &at
	}
	return &out
}
