package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/eventease/eventease/internal/model"
)

func seedEvent(t *testing.T, s *MemoryStore, seats uint32) uint64 {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	ev := &model.Event{Name: "seed", Venue: "hall", Status: model.EventStatusUpcoming, TotalSeats: seats}
	if err := tx.InsertEvent(ctx, ev); err != nil {
		t.Fatalf("insert event: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return ev.ID
}

func TestMemoryStore_RollbackRestoresState(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := seedEvent(t, s, 10)

	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	b := &model.Booking{ID: "r-1", EventID: id, UserID: 1, Seats: 4, Status: model.BookingStatusActive, CreatedAt: time.Now().UTC()}
	if err := tx.InsertBooking(ctx, b); err != nil {
		t.Fatalf("insert booking: %v", err)
	}
	if err := tx.SetBookedSeats(ctx, id, 4); err != nil {
		t.Fatalf("set booked: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	ev, err := s.GetEvent(ctx, id)
	if err != nil {
		t.Fatalf("get event: %v", err)
	}
	if ev.BookedSeats != 0 {
		t.Errorf("expected booked_seats restored to 0, got %d", ev.BookedSeats)
	}
	if _, err := s.GetBooking(ctx, "r-1"); !errors.Is(err, ErrReservationNotFound) {
		t.Errorf("expected inserted booking rolled back, got %v", err)
	}
}

func TestMemoryStore_DuplicateBookingID(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := seedEvent(t, s, 10)

	tx, _ := s.Begin(ctx)
	b := &model.Booking{ID: "dup", EventID: id, UserID: 1, Seats: 1, Status: model.BookingStatusActive, CreatedAt: time.Now().UTC()}
	if err := tx.InsertBooking(ctx, b); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	tx, _ = s.Begin(ctx)
	defer tx.Rollback()
	if err := tx.InsertBooking(ctx, b); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
}

func TestMemoryStore_ListsInCreationOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := seedEvent(t, s, 10)

	for i, bid := range []string{"a", "b", "c"} {
		tx, _ := s.Begin(ctx)
		b := &model.Booking{ID: bid, EventID: id, UserID: uint64(i + 1), Seats: 1, Status: model.BookingStatusActive, CreatedAt: time.Now().UTC()}
		if err := tx.InsertBooking(ctx, b); err != nil {
			t.Fatalf("insert %s: %v", bid, err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("commit: %v", err)
		}
	}

	list, err := s.ListBookingsByEvent(ctx, id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ID != "a" || list[1].ID != "b" || list[2].ID != "c" {
		t.Errorf("expected creation order a,b,c, got %+v", list)
	}
}
