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

// PublicHandler serves the unauthenticated event browsing endpoints.
// Listings come from the repository; per-event availability goes through
// the inventory engine so the number reflects committed bookings.
type PublicHandler struct {
	Events *repository.EventRepo
	Engine *inventory.Engine
}

func NewPublicHandler(events *repository.EventRepo, engine *inventory.Engine) *PublicHandler {
	if events == nil || engine == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{Events: events, Engine: engine}
}

type eventSummary struct {
	ID           uint64   `json:"id"`
	Name         string   `json:"name"`
	Tags         []string `json:"tags"`
	Organization string   `json:"organization,omitempty"`
	Venue        string   `json:"venue"`
	StartsAt     string   `json:"starts_at"`
	Status       string   `json:"status"`
	TotalSeats   uint32   `json:"total_seats"`
	Remaining    uint32   `json:"remaining"`
}

func summarize(ev *model.Event) eventSummary {
	ev.NormalizeTags()
	return eventSummary{
		ID:           ev.ID,
		Name:         ev.Name,
		Tags:         ev.Tags,
		Organization: ev.Organization,
		Venue:        ev.Venue,
		StartsAt:     ev.StartsAt.UTC().Format(time.RFC3339),
		Status:       ev.Status,
		TotalSeats:   ev.TotalSeats,
		Remaining:    ev.Remaining(),
	}
}

// ListEvents handles GET /v1/events. Supports ?q= free-text search over
// name, venue and organization, and ?upcoming=true to hide past events.
func (h *PublicHandler) ListEvents(c echo.Context) error {
	ctx := c.Request().Context()
	q := strings.TrimSpace(c.QueryParam("q"))

	var (
		events []model.Event
		err    error
	)
	if q != "" {
		events, err = h.Events.Search(ctx, q)
	} else {
		upcoming := strings.EqualFold(c.QueryParam("upcoming"), "true")
		events, err = h.Events.List(ctx, upcoming)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	out := make([]eventSummary, 0, len(events))
	for i := range events {
		out = append(out, summarize(&events[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// GetEvent handles GET /v1/events/:id and returns the full event record.
func (h *PublicHandler) GetEvent(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ev, err := h.Events.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	ev.NormalizeTags()
	return c.JSON(http.StatusOK, ev)
}

// Availability handles GET /v1/events/:id/availability.
func (h *PublicHandler) Availability(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	remaining, err := h.Engine.RemainingSeats(c.Request().Context(), id)
	if err != nil {
		return engineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_id":  id,
		"remaining": remaining,
	})
}
