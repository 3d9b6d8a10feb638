package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventease/eventease/internal/config"
	"github.com/eventease/eventease/internal/inventory"
	"github.com/eventease/eventease/internal/model"
	"github.com/eventease/eventease/internal/queue"
	queuepublisher "github.com/eventease/eventease/internal/service"
)

// BookingHandler serves the authenticated booking endpoints. All seat
// accounting goes through the inventory engine; this layer only parses
// requests, maps errors and publishes notification events.
type BookingHandler struct {
	Cfg    config.Config
	Engine *inventory.Engine
}

func NewBookingHandler(cfg config.Config, engine *inventory.Engine) *BookingHandler {
	if engine == nil {
		panic("nil engine passed to NewBookingHandler")
	}
	return &BookingHandler{Cfg: cfg, Engine: engine}
}

type reserveReq struct {
	Seats uint32 `json:"seats"`
}

// Reserve handles POST /v1/events/:id/bookings. The request either commits
// in full or leaves no trace, so a 409 response means nothing was booked.
func (h *BookingHandler) Reserve(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	eventID, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req reserveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	// Bound how long a request may wait on the per-event lock.
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Cfg.BookingWait)
	defer cancel()

	booking, err := h.Engine.Reserve(ctx, eventID, userID, req.Seats)
	if err != nil {
		return engineError(c, err)
	}

	if ev, gerr := h.Engine.GetEvent(ctx, eventID); gerr == nil {
		h.publishConfirmed(booking, ev)
	}
	return c.JSON(http.StatusCreated, booking)
}

// Cancel handles DELETE /v1/bookings/:id. Owners cancel their own bookings;
// admins may cancel anyone's.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID := c.Param("id")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Cfg.BookingWait)
	defer cancel()

	admin := isAdmin(c)
	booking, err := h.Engine.Cancel(ctx, bookingID, userID, admin)
	if err != nil {
		return engineError(c, err)
	}

	if ev, gerr := h.Engine.GetEvent(ctx, booking.EventID); gerr == nil {
		h.publishCancelled(booking, ev, admin)
	}
	return c.JSON(http.StatusOK, booking)
}

// GetBooking handles GET /v1/bookings/:id. A booking is visible to its
// owner and to admins only.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID := c.Param("id")
	if bookingID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	booking, err := h.Engine.GetBooking(c.Request().Context(), bookingID)
	if err != nil {
		return engineError(c, err)
	}
	if booking.UserID != userID && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, booking)
}

// MyBookings handles GET /v1/my-bookings and lists the caller's bookings
// in creation order, cancelled ones included.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.Engine.ListBookingsByUser(c.Request().Context(), userID)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// Publishing is best effort and runs off the request path: a broker outage
// must never fail or delay a booking.

func (h *BookingHandler) publishConfirmed(b *model.Booking, ev *model.Event) {
	msg := queue.BookingConfirmedEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		EventID:     ev.ID,
		EventName:   ev.Name,
		Venue:       ev.Venue,
		StartsAt:    ev.StartsAt.UTC().Format(time.RFC3339),
		Seats:       b.Seats,
		Remaining:   ev.Remaining(),
		ConfirmedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queuepublisher.PublishBookingConfirmed(ctx, msg)
	}()
}

func (h *BookingHandler) publishCancelled(b *model.Booking, ev *model.Event, byAdmin bool) {
	cancelledAt := time.Now().UTC()
	if b.CancelledAt != nil {
		cancelledAt = b.CancelledAt.UTC()
	}
	msg := queue.BookingCancelledEvent{
		BookingID:   b.ID,
		UserID:      b.UserID,
		EventID:     ev.ID,
		EventName:   ev.Name,
		Seats:       b.Seats,
		ByAdmin:     byAdmin,
		CancelledAt: cancelledAt.Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queuepublisher.PublishBookingCancelled(ctx, msg)
	}()
}
