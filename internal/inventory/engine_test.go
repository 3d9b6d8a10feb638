package inventory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/eventease/eventease/internal/model"
)

func newTestEvent(t *testing.T, e *Engine, seats uint32) *model.Event {
	t.Helper()
	ev := &model.Event{
		Name:       "GopherCon Underground",
		Venue:      "Hall 4",
		StartsAt:   time.Now().UTC().Add(48 * time.Hour),
		TotalSeats: seats,
	}
	if err := e.CreateEvent(context.Background(), ev); err != nil {
		t.Fatalf("create event: %v", err)
	}
	return ev
}

func TestReserve_Success(t *testing.T) {
	e := NewEngine(NewMemoryStore())
	ev := newTestEvent(t, e, 10)

	b, err := e.Reserve(context.Background(), ev.ID, 1, 2)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if b.ID == "" {
		t.Error("expected a generated booking id")
	}
	if b.Status != model.BookingStatusActive {
		t.Errorf("expected ACTIVE, got %s", b.Status)
	}
	got, err := e.GetEvent(context.Background(), ev.ID)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if got.BookedSeats != 2 {
		t.Errorf("expected booked_seats 2, got %d", got.BookedSeats)
	}
}

func TestReserve_DuplicateBooking(t *testing.T) {
	e := NewEngine(NewMemoryStore())
	ev := newTestEvent(t, e, 10)
	ctx := context.Background()

	if _, err := e.Reserve(ctx, ev.ID, 1, 1); err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	_, err := e.Reserve(ctx, ev.ID, 1, 1)
	if !errors.Is(err, ErrDuplicateBooking) {
		t.Errorf("expected ErrDuplicateBooking, got %v", err)
	}
	got, _ := e.GetEvent(ctx, ev.ID)
	if got.BookedSeats != 1 {
		t.Errorf("expected booked_seats 1 after duplicate rejection, got %d", got.BookedSeats)
	}
}

func TestReserve_ExactCapacity(t *testing.T) {
	e := NewEngine(NewMemoryStore())
	ev := newTestEvent(t, e, 3)
	ctx := context.Background()

	for user := uint64(1); user <= 3; user++ {
		if _, err := e.Reserve(ctx, ev.ID, user, 1); err != nil {
			t.Fatalf("reserve user %d: %v", user, err)
		}
	}
	got, _ := e.GetEvent(ctx, ev.ID)
	if got.BookedSeats != 3 {
		t.Fatalf("expected booked_seats 3, got %d", got.BookedSeats)
	}

	_, err := e.Reserve(ctx, ev.ID, 4, 1)
	var capErr *CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if capErr.Remaining != 0 {
		t.Errorf("expected remaining 0 in error, got %d", capErr.Remaining)
	}
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Error("CapacityError should unwrap to ErrCapacityExceeded")
	}
}

func TestReserve_ReportsLiveRemaining(t *testing.T) {
	e := NewEngine(NewMemoryStore())
	ev := newTestEvent(t, e, 10)
	ctx := context.Background()

	if _, err := e.Reserve(ctx, ev.ID, 1, 7); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	_, err := e.Reserve(ctx, ev.ID, 2, 5)
	var capErr *CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("expected CapacityError, got %v", err)
	}
	if capErr.Remaining != 3 || capErr.Requested != 5 {
		t.Errorf("expected requested=5 remaining=3, got requested=%d remaining=%d", capErr.Requested, capErr.Remaining)
	}
}

func TestReserve_Concurrent(t *testing.T) {
	const capacity = 5
	const callers = 20

	e := NewEngine(NewMemoryStore())
	ev := newTestEvent(t, e, capacity)

	var success, capacityFailed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			_, err := e.Reserve(context.Background(), ev.ID, user, 1)
			switch {
			case err == nil:
				success.Add(1)
			case errors.Is(err, ErrCapacityExceeded):
				capacityFailed.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	if success.Load() != capacity {
		t.Errorf("expected %d successes, got %d", capacity, success.Load())
	}
	if capacityFailed.Load() != callers-capacity {
		t.Errorf("expected %d capacity failures, got %d", callers-capacity, capacityFailed.Load())
	}
	got, _ := e.GetEvent(context.Background(), ev.ID)
	if got.BookedSeats != capacity {
		t.Errorf("expected booked_seats %d, got %d", capacity, got.BookedSeats)
	}
}

func TestCancel_RoundTrip(t *testing.T) {
	e := NewEngine(NewMemoryStore())
	ev := newTestEvent(t, e, 8)
	ctx := context.Background()

	before, err := e.RemainingSeats(ctx, ev.ID)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	b, err := e.Reserve(ctx, ev.ID, 1, 3)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	cancelled, err := e.Cancel(ctx, b.ID, 1, false)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.BookingStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Error("expected cancelled_at to be stamped")
	}
	after, err := e.RemainingSeats(ctx, ev.ID)
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if after != before {
		t.Errorf("expected remaining restored to %d, got %d", before, after)
	}
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	e := NewEngine(NewMemoryStore())
	ev := newTestEvent(t, e, 5)
	ctx := context.Background()

	b, err := e.Reserve(ctx, ev.ID, 1, 2)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := e.Cancel(ctx, b.ID, 1, false); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	_, err = e.Cancel(ctx, b.ID, 1, false)
	if !errors.Is(err, ErrNotCancellable) {
		t.Errorf("expected ErrNotCancellable, got %v", err)
	}
	got, _ := e.GetEvent(ctx, ev.ID)
	if got.BookedSeats != 0 {
		t.Errorf("repeated cancel must not change booked_seats, got %d", got.BookedSeats)
	}
}

func TestCancel_Authorization(t *testing.T) {
	e := NewEngine(NewMemoryStore())
	ev := newTestEvent(t, e, 5)
	ctx := context.Background()

	b, err := e.Reserve(ctx, ev.ID, 1, 1)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := e.Cancel(ctx, b.ID, 2, false); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for non-owner, got %v", err)
	}
	// Admins may cancel on behalf of any user.
	if _, err := e.Cancel(ctx, b.ID, 2, true); err != nil {
		t.Errorf("expected admin cancel to succeed, got %v", err)
	}
}

func TestCancel_UnknownReservation(t *testing.T) {
	e := NewEngine(NewMemoryStore())
	newTestEvent(t, e, 5)

	_, err := e.Cancel(context.Background(), "b0b9f2ce-0000-4000-8000-000000000000", 1, false)
	if !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("expected ErrReservationNotFound, got %v", err)
	}
}

func TestAdjustCapacity(t *testing.T) {
	e := NewEngine(NewMemoryStore())
	ev := newTestEvent(t, e, 10)
	ctx := context.Background()

	for user := uint64(1); user <= 4; user++ {
		if _, err := e.Reserve(ctx, ev.ID, user, 1); err != nil {
			t.Fatalf("reserve user %d: %v", user, err)
		}
	}

	_, err := e.AdjustCapacity(ctx, ev.ID, 3)
	if !errors.Is(err, ErrCapacityBelowBooked) {
		t.Errorf("expected ErrCapacityBelowBooked, got %v", err)
	}
	got, _ := e.GetEvent(ctx, ev.ID)
	if got.TotalSeats != 10 {
		t.Errorf("rejected shrink must not change total_seats, got %d", got.TotalSeats)
	}

	updated, err := e.AdjustCapacity(ctx, ev.ID, 4)
	if err != nil {
		t.Fatalf("shrink to booked count should succeed: %v", err)
	}
	if updated.TotalSeats != 4 {
		t.Errorf("expected total_seats 4, got %d", updated.TotalSeats)
	}
	if _, err := e.Reserve(ctx, ev.ID, 99, 1); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("expected full event after shrink, got %v", err)
	}
}

func TestDeleteEvent_RejectsActiveBookings(t *testing.T) {
	e := NewEngine(NewMemoryStore())
	ev := newTestEvent(t, e, 5)
	ctx := context.Background()

	b, err := e.Reserve(ctx, ev.ID, 1, 1)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := e.DeleteEvent(ctx, ev.ID); !errors.Is(err, ErrActiveBookings) {
		t.Errorf("expected ErrActiveBookings, got %v", err)
	}
	if _, err := e.Cancel(ctx, b.ID, 1, false); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := e.DeleteEvent(ctx, ev.ID); err != nil {
		t.Fatalf("delete after cancel: %v", err)
	}
	if _, err := e.GetEvent(ctx, ev.ID); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound after delete, got %v", err)
	}
}

func TestLedgerSumMatchesBookedSeats(t *testing.T) {
	e := NewEngine(NewMemoryStore())
	ev := newTestEvent(t, e, 50)
	ctx := context.Background()

	var bookings []*model.Booking
	for user := uint64(1); user <= 10; user++ {
		b, err := e.Reserve(ctx, ev.ID, user, uint32(user%3+1))
		if err != nil {
			t.Fatalf("reserve user %d: %v", user, err)
		}
		bookings = append(bookings, b)
	}
	// Cancel every other booking.
	for i, b := range bookings {
		if i%2 == 0 {
			if _, err := e.Cancel(ctx, b.ID, b.UserID, false); err != nil {
				t.Fatalf("cancel %s: %v", b.ID, err)
			}
		}
	}

	entries, err := e.ListBookingsByEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var activeSum uint32
	active := map[uint64]int{}
	for _, entry := range entries {
		if entry.Status == model.BookingStatusActive {
			activeSum += entry.Seats
			active[entry.UserID]++
		}
	}
	for user, n := range active {
		if n > 1 {
			t.Errorf("user %d holds %d ACTIVE bookings", user, n)
		}
	}
	got, _ := e.GetEvent(ctx, ev.ID)
	if got.BookedSeats != activeSum {
		t.Errorf("booked_seats %d does not match ACTIVE ledger sum %d", got.BookedSeats, activeSum)
	}
	if len(entries) != len(bookings) {
		t.Errorf("ledger must keep cancelled entries: want %d, got %d", len(bookings), len(entries))
	}
}

func TestReserve_ValidatesInput(t *testing.T) {
	e := NewEngine(NewMemoryStore())
	ev := newTestEvent(t, e, 5)
	ctx := context.Background()

	if _, err := e.Reserve(ctx, ev.ID, 1, 0); !errors.Is(err, ErrInvalidSeats) {
		t.Errorf("expected ErrInvalidSeats, got %v", err)
	}
	if _, err := e.Reserve(ctx, ev.ID, 0, 1); !errors.Is(err, ErrInvalidUser) {
		t.Errorf("expected ErrInvalidUser, got %v", err)
	}
	if _, err := e.Reserve(ctx, 9999, 1, 1); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}

func TestReserve_ClosedEvent(t *testing.T) {
	store := NewMemoryStore()
	e := NewEngine(store)
	ev := newTestEvent(t, e, 5)

	store.mu.Lock()
	store.events[ev.ID].Status = model.EventStatusCancelled
	store.mu.Unlock()

	if _, err := e.Reserve(context.Background(), ev.ID, 1, 1); !errors.Is(err, ErrEventNotBookable) {
		t.Errorf("expected ErrEventNotBookable, got %v", err)
	}
}

func TestInvariantViolation_HaltsEvent(t *testing.T) {
	store := NewMemoryStore()
	e := NewEngine(store)
	ev := newTestEvent(t, e, 5)
	ctx := context.Background()

	// Corrupt the stored counter behind the engine's back.
	store.mu.Lock()
	store.events[ev.ID].BookedSeats = 7
	store.mu.Unlock()

	_, err := e.RemainingSeats(ctx, ev.ID)
	var ierr *InvariantError
	if !errors.As(err, &ierr) {
		t.Fatalf("expected InvariantError, got %v", err)
	}
	if ierr.Booked != 7 || ierr.Total != 5 {
		t.Errorf("expected booked=7 total=5 in violation, got booked=%d total=%d", ierr.Booked, ierr.Total)
	}

	// Every further write to the event must be refused.
	if _, err := e.Reserve(ctx, ev.ID, 1, 1); !errors.Is(err, ErrInvariant) {
		t.Errorf("expected halted event to refuse reserve, got %v", err)
	}
	if _, err := e.AdjustCapacity(ctx, ev.ID, 20); !errors.Is(err, ErrInvariant) {
		t.Errorf("expected halted event to refuse adjust, got %v", err)
	}

	// Other events are unaffected.
	other := newTestEvent(t, e, 5)
	if _, err := e.Reserve(ctx, other.ID, 1, 1); err != nil {
		t.Errorf("unrelated event should keep working, got %v", err)
	}
}

// slowStore delays a transaction's event read until the gate is closed so a
// test can keep the per-event lock held.
type slowStore struct {
	*MemoryStore
	gate chan struct{}
}

func (s *slowStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.MemoryStore.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &slowTx{Tx: tx, gate: s.gate}, nil
}

type slowTx struct {
	Tx
	gate chan struct{}
}

func (t *slowTx) GetEvent(ctx context.Context, eventID uint64) (*model.Event, error) {
	<-t.gate
	return t.Tx.GetEvent(ctx, eventID)
}

func TestReserve_LockTimeout(t *testing.T) {
	mem := NewMemoryStore()
	setup := NewEngine(mem)
	ev := newTestEvent(t, setup, 5)

	gate := make(chan struct{})
	e := NewEngine(&slowStore{MemoryStore: mem, gate: gate})

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		close(started)
		_, err := e.Reserve(context.Background(), ev.ID, 1, 1)
		done <- err
	}()
	<-started
	time.Sleep(20 * time.Millisecond) // let the goroutine take the event lock

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := e.Reserve(ctx, ev.ID, 2, 1)
	if !errors.Is(err, ErrLockTimeout) {
		t.Errorf("expected ErrLockTimeout, got %v", err)
	}

	close(gate)
	if err := <-done; err != nil {
		t.Errorf("first reserve should have succeeded, got %v", err)
	}
}
