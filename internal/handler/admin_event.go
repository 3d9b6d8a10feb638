package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eventease/eventease/internal/inventory"
	"github.com/eventease/eventease/internal/model"
	"github.com/eventease/eventease/internal/repository"
)

// AdminHandler serves the event management endpoints. Metadata edits go
// through the repository; anything that touches seat counts goes through
// the engine.
type AdminHandler struct {
	Events *repository.EventRepo
	Engine *inventory.Engine
}

func NewAdminHandler(events *repository.EventRepo, engine *inventory.Engine) *AdminHandler {
	if events == nil || engine == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Events: events, Engine: engine}
}

type createEventReq struct {
	Name         string   `json:"name"`
	About        string   `json:"about"`
	Tags         []string `json:"tags"`
	Organization string   `json:"organization"`
	Venue        string   `json:"venue"`
	StartsAt     string   `json:"starts_at"` // RFC 3339
	TotalSeats   uint32   `json:"total_seats"`
}

type updateEventReq struct {
	Name         *string   `json:"name"`
	About        *string   `json:"about"`
	Tags         *[]string `json:"tags"`
	Organization *string   `json:"organization"`
	Venue        *string   `json:"venue"`
	StartsAt     *string   `json:"starts_at"`
	Status       *string   `json:"status"`
}

type capacityReq struct {
	TotalSeats uint32 `json:"total_seats"`
}

// CreateEvent handles POST /v1/events.
func (h *AdminHandler) CreateEvent(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Venue = strings.TrimSpace(req.Venue)
	if req.Name == "" || req.Venue == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and venue are required"})
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC 3339"})
	}

	ev := &model.Event{
		Name:         req.Name,
		About:        strings.TrimSpace(req.About),
		Tags:         req.Tags,
		Organization: strings.TrimSpace(req.Organization),
		Venue:        req.Venue,
		StartsAt:     startsAt.UTC(),
		TotalSeats:   req.TotalSeats,
		CreatedBy:    userID,
	}
	if err := h.Engine.CreateEvent(c.Request().Context(), ev); err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusCreated, ev)
}

// UpdateEvent handles PATCH /v1/events/:id. Only metadata fields may be
// changed here; capacity has its own endpoint.
func (h *AdminHandler) UpdateEvent(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req updateEventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	ev, err := h.Events.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			ev.Name = name
		}
	}
	if req.About != nil {
		ev.About = strings.TrimSpace(*req.About)
	}
	if req.Tags != nil {
		ev.Tags = *req.Tags
	}
	if req.Organization != nil {
		ev.Organization = strings.TrimSpace(*req.Organization)
	}
	if req.Venue != nil {
		if venue := strings.TrimSpace(*req.Venue); venue != "" {
			ev.Venue = venue
		}
	}
	if req.StartsAt != nil {
		startsAt, perr := time.Parse(time.RFC3339, *req.StartsAt)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC 3339"})
		}
		ev.StartsAt = startsAt.UTC()
	}
	if req.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*req.Status))
		switch status {
		case model.EventStatusUpcoming, model.EventStatusCompleted, model.EventStatusCancelled:
			ev.Status = status
		default:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		}
	}
	ev.NormalizeTags()

	if err := h.Events.UpdateMeta(ctx, ev); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, ev)
}

// AdjustCapacity handles PUT /v1/events/:id/capacity. Raising capacity is
// always allowed; lowering it below the booked count is rejected.
func (h *AdminHandler) AdjustCapacity(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req capacityReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ev, err := h.Engine.AdjustCapacity(c.Request().Context(), id, req.TotalSeats)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

// DeleteEvent handles DELETE /v1/events/:id. Events with active bookings
// cannot be removed.
func (h *AdminHandler) DeleteEvent(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	if err := h.Engine.DeleteEvent(c.Request().Context(), id); err != nil {
		return engineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListEventBookings handles GET /v1/events/:id/bookings and returns the
// full ledger of an event, cancelled entries included.
func (h *AdminHandler) ListEventBookings(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	bookings, err := h.Engine.ListBookingsByEvent(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}
