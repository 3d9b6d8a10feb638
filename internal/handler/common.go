package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eventease/eventease/internal/inventory"
)

// getUserID extracts the authenticated user id placed in the context by the
// JWT middleware. The claim may arrive in several numeric encodings.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// isAdmin reports whether the JWT middleware stored the ADMIN role.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "ADMIN"
}

func parseID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// engineError translates inventory errors into the API's HTTP responses.
// Capacity conflicts include the live remaining count so clients can retry
// with a smaller request.
func engineError(c echo.Context, err error) error {
	var capErr *inventory.CapacityError
	if errors.As(err, &capErr) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "not enough seats",
			"requested": capErr.Requested,
			"remaining": capErr.Remaining,
		})
	}
	switch {
	case errors.Is(err, inventory.ErrEventNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	case errors.Is(err, inventory.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, inventory.ErrDuplicateBooking):
		return c.JSON(http.StatusConflict, echo.Map{"error": "an active booking already exists for this event"})
	case errors.Is(err, inventory.ErrNotCancellable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking is not active"})
	case errors.Is(err, inventory.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, inventory.ErrCapacityBelowBooked):
		return c.JSON(http.StatusConflict, echo.Map{"error": "capacity below booked seats"})
	case errors.Is(err, inventory.ErrActiveBookings):
		return c.JSON(http.StatusConflict, echo.Map{"error": "event has active bookings"})
	case errors.Is(err, inventory.ErrEventNotBookable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "event is not open for booking"})
	case errors.Is(err, inventory.ErrInvalidSeats),
		errors.Is(err, inventory.ErrInvalidUser),
		errors.Is(err, inventory.ErrInvalidCapacity):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, inventory.ErrLockTimeout):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "event is busy, try again"})
	case errors.Is(err, inventory.ErrInvariant):
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "event temporarily unavailable"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
