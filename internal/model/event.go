package model

import "time"

// Event statuses as stored in the events.status column.
const (
	EventStatusUpcoming  = "UPCOMING"
	EventStatusCompleted = "COMPLETED"
	EventStatusCancelled = "CANCELLED"
)

// Event represents a bookable occasion with a fixed seating capacity.
// Capacity bookkeeping (TotalSeats/BookedSeats) is owned by the inventory
// engine: nothing else may write those two fields.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name of the event.
//  About        – optional long description.
//  Tags         – optional labels; always serialized, empty list by default.
//  Organization – optional organizer display name.
//  Venue        – where the event takes place.
//  StartsAt     – start time in UTC.
//  Status       – UPCOMING, COMPLETED or CANCELLED.
//  TotalSeats   – configured capacity, changed only by an explicit
//                 capacity adjustment.
//  BookedSeats  – seats currently held by ACTIVE bookings.
//  CreatedBy    – admin user who published the event.
type Event struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	About        string    `json:"about,omitempty"`
	Tags         []string  `json:"tags"`
	Organization string    `json:"organization,omitempty"`
	Venue        string    `json:"venue"`
	StartsAt     time.Time `json:"starts_at"`
	Status       string    `json:"status"`
	TotalSeats   uint32    `json:"total_seats"`
	BookedSeats  uint32    `json:"booked_seats"`
	CreatedBy    uint64    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Remaining returns the number of seats still available.
func (e *Event) Remaining() uint32 {
	if e.BookedSeats > e.TotalSeats {
		return 0
	}
	return e.TotalSeats - e.BookedSeats
}

// NormalizeTags guarantees that Tags is non-nil so JSON output always
// contains an explicit (possibly empty) list rather than null.
func (e *Event) NormalizeTags() {
	if e.Tags == nil {
		e.Tags = []string{}
	}
}
