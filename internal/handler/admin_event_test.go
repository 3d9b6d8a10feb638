package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/eventease/eventease/internal/model"
)

// Admin capacity and deletion rules are enforced by the engine; these tests
// cover the HTTP mapping on top of it. Metadata endpoints (create via
// repository-backed engine, PATCH) need MySQL and are exercised against the
// in-memory store only where the engine owns the write.

func TestAdjustCapacityEndpoint(t *testing.T) {
	engine, ev := newTestEngine(t, 10)
	if _, err := engine.Reserve(context.Background(), ev.ID, 42, 6); err != nil {
		t.Fatalf("seed reserve: %v", err)
	}
	h := &AdminHandler{Engine: engine, Events: nil}

	// Shrinking below the booked count is refused.
	c, rec := request(http.MethodPut, "/v1/events/1/capacity", `{"total_seats":5}`, 1, model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.AdjustCapacity(c); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", rec.Code, rec.Body.String())
	}

	// Growing is always fine.
	c, rec = request(http.MethodPut, "/v1/events/1/capacity", `{"total_seats":20}`, 1, model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.AdjustCapacity(c); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var got model.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.TotalSeats != 20 {
		t.Fatalf("total_seats = %d, want 20", got.TotalSeats)
	}
}

func TestDeleteEventEndpoint_ActiveBookings(t *testing.T) {
	engine, ev := newTestEngine(t, 10)
	b, err := engine.Reserve(context.Background(), ev.ID, 42, 2)
	if err != nil {
		t.Fatalf("seed reserve: %v", err)
	}
	h := &AdminHandler{Engine: engine, Events: nil}

	c, rec := request(http.MethodDelete, "/v1/events/1", "", 1, model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.DeleteEvent(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 while bookings are active", rec.Code)
	}

	if _, err := engine.Cancel(context.Background(), b.ID, 42, false); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	c, rec = request(http.MethodDelete, "/v1/events/1", "", 1, model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.DeleteEvent(c); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204 after cancellation", rec.Code)
	}
}

func TestListEventBookingsEndpoint(t *testing.T) {
	engine, ev := newTestEngine(t, 10)
	if _, err := engine.Reserve(context.Background(), ev.ID, 42, 2); err != nil {
		t.Fatalf("seed reserve: %v", err)
	}
	if _, err := engine.Reserve(context.Background(), ev.ID, 43, 1); err != nil {
		t.Fatalf("seed reserve: %v", err)
	}
	h := &AdminHandler{Engine: engine, Events: nil}

	c, rec := request(http.MethodGet, "/v1/events/1/bookings", "", 1, model.RoleAdmin)
	c.SetParamNames("id")
	c.SetParamValues("1")
	if err := h.ListEventBookings(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Bookings []model.Booking `json:"bookings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(resp.Bookings) != 2 {
		t.Fatalf("got %d bookings, want 2", len(resp.Bookings))
	}
	if resp.Bookings[0].UserID != 42 || resp.Bookings[1].UserID != 43 {
		t.Fatalf("bookings out of creation order: %+v", resp.Bookings)
	}
}
