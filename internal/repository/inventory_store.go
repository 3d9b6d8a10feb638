package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/eventease/eventease/internal/inventory"
	"github.com/eventease/eventease/internal/model"
)

const bookingColumns = "id, event_id, user_id, seats, status, created_at, cancelled_at"

// InventoryStore implements inventory.Store on MySQL. Transactions use
// SELECT ... FOR UPDATE so the event row is exclusively locked from the
// first read until commit; combined with the engine's per-event lock this
// makes the read-decide-write sequence of a reservation serializable per
// event. A partial failure between the ledger insert and the counter
// update is impossible: both ride in one transaction.
type InventoryStore struct{ DB *sql.DB }

func NewInventoryStore(db *sql.DB) *InventoryStore { return &InventoryStore{DB: db} }

// Begin opens a database transaction.
func (s *InventoryStore) Begin(ctx context.Context) (inventory.Tx, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &invTx{tx: tx}, nil
}

// GetEvent returns the event without locking it.
func (s *InventoryStore) GetEvent(ctx context.Context, eventID uint64) (*model.Event, error) {
	row := s.DB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id = ?", eventID)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrEventNotFound
	}
	return ev, err
}

// GetBooking returns a ledger entry by id.
func (s *InventoryStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return scanBookingRow(s.DB.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id))
}

// ListBookingsByEvent returns the event's ledger entries in creation order.
func (s *InventoryStore) ListBookingsByEvent(ctx context.Context, eventID uint64) ([]model.Booking, error) {
	return s.listBookings(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE event_id = ? ORDER BY created_at ASC, id ASC", eventID)
}

// ListBookingsByUser returns the user's ledger entries in creation order.
func (s *InventoryStore) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.listBookings(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE user_id = ? ORDER BY created_at ASC, id ASC", userID)
}

func (s *InventoryStore) listBookings(ctx context.Context, query string, arg any) ([]model.Booking, error) {
	rows, err := s.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// invTx wraps one *sql.Tx as an inventory.Tx.
type invTx struct{ tx *sql.Tx }

// GetEvent locks the event row for the remainder of the transaction.
func (t *invTx) GetEvent(ctx context.Context, eventID uint64) (*model.Event, error) {
	row := t.tx.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id = ? FOR UPDATE", eventID)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrEventNotFound
	}
	return ev, err
}

func (t *invTx) InsertEvent(ctx context.Context, ev *model.Event) error {
	tags, err := json.Marshal(ev.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO events (name, about, tags, organization, venue, starts_at, status, total_seats, booked_seats, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Name, ev.About, string(tags), ev.Organization, ev.Venue, ev.StartsAt,
		ev.Status, ev.TotalSeats, ev.BookedSeats, ev.CreatedBy, ev.CreatedAt, ev.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)
	return nil
}

func (t *invTx) DeleteEvent(ctx context.Context, eventID uint64) error {
	res, err := t.tx.ExecContext(ctx, "DELETE FROM events WHERE id = ?", eventID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return inventory.ErrEventNotFound
	}
	return nil
}

func (t *invTx) SetBookedSeats(ctx context.Context, eventID uint64, booked uint32) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE events SET booked_seats = ?, updated_at = NOW() WHERE id = ?", booked, eventID)
	return err
}

func (t *invTx) SetTotalSeats(ctx context.Context, eventID uint64, total uint32) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE events SET total_seats = ?, updated_at = NOW() WHERE id = ?", total, eventID)
	return err
}

func (t *invTx) FindActiveBooking(ctx context.Context, eventID, userID uint64) (*model.Booking, error) {
	b, err := scanBookingRow(t.tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE event_id = ? AND user_id = ? AND status = ? LIMIT 1",
		eventID, userID, model.BookingStatusActive))
	if errors.Is(err, inventory.ErrReservationNotFound) {
		return nil, nil
	}
	return b, err
}

func (t *invTx) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return scanBookingRow(t.tx.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id))
}

func (t *invTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO bookings (id, event_id, user_id, seats, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		b.ID, b.EventID, b.UserID, b.Seats, b.Status, b.CreatedAt)
	if err != nil {
		// 1062 = duplicate key on the primary key
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return inventory.ErrDuplicateID
		}
		return err
	}
	return nil
}

func (t *invTx) MarkCancelled(ctx context.Context, id string, cancelledAt time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE bookings SET status = ?, cancelled_at = ? WHERE id = ?",
		model.BookingStatusCancelled, cancelledAt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return inventory.ErrReservationNotFound
	}
	return nil
}

func (t *invTx) Commit() error   { return t.tx.Commit() }
func (t *invTx) Rollback() error { return t.tx.Rollback() }

func scanBooking(s rowScanner) (*model.Booking, error) {
	var (
		b           model.Booking
		cancelledAt sql.NullTime
	)
	err := s.Scan(&b.ID, &b.EventID, &b.UserID, &b.Seats, &b.Status, &b.CreatedAt, &cancelledAt)
	if err != nil {
		return nil, err
	}
	if cancelledAt.Valid {
		at := cancelledAt.Time
		b.CancelledAt = &at
	}
	return &b, nil
}

func scanBookingRow(row *sql.Row) (*model.Booking, error) {
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrReservationNotFound
	}
	return b, err
}
