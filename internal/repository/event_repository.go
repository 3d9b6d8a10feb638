package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/eventease/eventease/internal/model"
)

const eventColumns = "id, name, about, tags, organization, venue, starts_at, status, total_seats, booked_seats, created_by, created_at, updated_at"

// EventRepo provides read and metadata-write access to the 'events' table.
// Capacity fields (total_seats, booked_seats) are read-only here: every
// write to them goes through the inventory engine, which is the only
// component allowed to mutate seat accounting.
type EventRepo struct{ DB *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{DB: db} }

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface{ Scan(dest ...any) error }

// scanEvent decodes one events row, including the JSON-encoded tags column.
func scanEvent(s rowScanner) (*model.Event, error) {
	var (
		ev      model.Event
		about   sql.NullString
		tagsRaw sql.NullString
		org     sql.NullString
	)
	err := s.Scan(&ev.ID, &ev.Name, &about, &tagsRaw, &org, &ev.Venue, &ev.StartsAt,
		&ev.Status, &ev.TotalSeats, &ev.BookedSeats, &ev.CreatedBy, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ev.About = about.String
	ev.Organization = org.String
	if tagsRaw.Valid && tagsRaw.String != "" {
		if err := json.Unmarshal([]byte(tagsRaw.String), &ev.Tags); err != nil {
			return nil, fmt.Errorf("decode tags for event %d: %w", ev.ID, err)
		}
	}
	ev.NormalizeTags()
	return &ev, nil
}

// GetByID returns a single event or ErrNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id = ?", id)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ev, err
}

// List returns all events ordered by start time. When upcomingOnly is set,
// only events with status UPCOMING are returned.
func (r *EventRepo) List(ctx context.Context, upcomingOnly bool) ([]model.Event, error) {
	q := "SELECT " + eventColumns + " FROM events"
	var args []any
	if upcomingOnly {
		q += " WHERE status = ?"
		args = append(args, model.EventStatusUpcoming)
	}
	q += " ORDER BY starts_at ASC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// Search returns events whose name, venue or organization matches the given
// term, ordered by start time. An empty term behaves like List.
func (r *EventRepo) Search(ctx context.Context, term string) ([]model.Event, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.List(ctx, false)
	}
	like := "%" + term + "%"
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+eventColumns+` FROM events
		 WHERE name LIKE ? OR venue LIKE ? OR organization LIKE ?
		 ORDER BY starts_at ASC`,
		like, like, like)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// ListByCreator returns events published by the given admin user.
func (r *EventRepo) ListByCreator(ctx context.Context, userID uint64) ([]model.Event, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE created_by = ? ORDER BY starts_at ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("list events by creator: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// UpdateMeta rewrites the descriptive fields of an event. Seat counters are
// deliberately absent from the statement.
func (r *EventRepo) UpdateMeta(ctx context.Context, ev *model.Event) error {
	ev.NormalizeTags()
	tags, err := json.Marshal(ev.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	res, err := r.DB.ExecContext(ctx,
		`UPDATE events
		 SET name=?, about=?, tags=?, organization=?, venue=?, starts_at=?, status=?, updated_at=NOW()
		 WHERE id=?`,
		ev.Name, ev.About, string(tags), ev.Organization, ev.Venue, ev.StartsAt, ev.Status, ev.ID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
