// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a booking is successfully confirmed.
// It carries enough information for downstream consumers to log, notify, or
// feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   string `json:"booking_id"`
	UserID      uint64 `json:"user_id"`
	EventID     uint64 `json:"event_id"`
	EventName   string `json:"event_name"`
	Venue       string `json:"venue"`
	StartsAt    string `json:"starts_at"`
	Seats       uint32 `json:"seats"`
	Remaining   uint32 `json:"remaining"`
	ConfirmedAt string `json:"confirmed_at"`
}

// BookingCancelledEvent is published when an active booking is cancelled and
// its seats returned to the pool.
type BookingCancelledEvent struct {
	BookingID   string `json:"booking_id"`
	UserID      uint64 `json:"user_id"`
	EventID     uint64 `json:"event_id"`
	EventName   string `json:"event_name"`
	Seats       uint32 `json:"seats"`
	ByAdmin     bool   `json:"by_admin"`
	CancelledAt string `json:"cancelled_at"`
}
