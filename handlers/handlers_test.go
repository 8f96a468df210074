package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"esg-engagement/engine"
	"esg-engagement/middleware"
	"esg-engagement/models"
	"esg-engagement/services"
)

type fakeEvents struct {
	events  map[string]models.Event
	created models.NewEventInput
}

func (f *fakeEvents) List(_ context.Context, category *models.Category) ([]models.Event, error) {
	var out []models.Event
	for _, e := range f.events {
		if category == nil || e.Category == *category {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) Get(_ context.Context, id string) (models.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return models.Event{}, fmt.Errorf("load event %s: %w", id, gorm.ErrRecordNotFound)
	}
	return e, nil
}

func (f *fakeEvents) Create(_ context.Context, input models.NewEventInput) (models.Event, error) {
	f.created = input
	input.ID = "new"
	return models.NewEvent(input)
}

func (f *fakeEvents) Publish(_ context.Context, id string) (models.Event, error) {
	return engine.Publish(f.events[id], time.Now())
}

func (f *fakeEvents) RevisePoints(_ context.Context, id string, points int64) (models.Event, error) {
	return engine.RevisePointValue(f.events[id], points)
}

type fakeParticipations struct {
	registerErr error
	memberID    string
}

func (f *fakeParticipations) Register(_ context.Context, memberID, eventID string) (models.Participation, error) {
	f.memberID = memberID
	if f.registerErr != nil {
		return models.Participation{}, f.registerErr
	}
	return models.NewParticipation("p1", memberID, eventID, time.Now())
}

func (f *fakeParticipations) ListForMember(context.Context, string) ([]models.Participation, error) {
	return nil, nil
}

func (f *fakeParticipations) Cancel(_ context.Context, memberID, id string) (models.Participation, error) {
	return models.Participation{}, fmt.Errorf("participation %s: %w", id, gorm.ErrRecordNotFound)
}

func (f *fakeParticipations) MarkAttended(context.Context, string) (models.Participation, error) {
	return models.Participation{}, fmt.Errorf("%w: not started", engine.ErrInvalidTransition)
}

func (f *fakeParticipations) Complete(_ context.Context, id string, rating *int, _ *string) (models.Participation, engine.Progression, error) {
	points := int64(50)
	return models.Participation{ID: id, Status: models.ParticipationCompleted, PointsEarned: &points, Rating: rating},
		engine.Progression{Level: "Activist"}, nil
}

func (f *fakeParticipations) MarkMissed(context.Context, string) (models.Participation, error) {
	return models.Participation{}, nil
}

type fakeLeaderboard struct{}

func (fakeLeaderboard) Top(_ context.Context, limit int) ([]models.LeaderboardEntry, error) {
	entries := []models.LeaderboardEntry{{MemberID: "a", Rank: 1, Score: 1250}, {MemberID: "b", Rank: 2, Score: 1180}}
	return engine.Top(entries, limit), nil
}

func (fakeLeaderboard) Around(_ context.Context, memberID string, _ int) ([]models.LeaderboardEntry, error) {
	return nil, fmt.Errorf("member %s is not ranked: %w", memberID, gorm.ErrRecordNotFound)
}

func (fakeLeaderboard) Snapshot(context.Context) (services.SnapshotResult, error) {
	return services.SnapshotResult{}, nil
}

func newTestApp(events EventStore, parts ParticipationStore) *fiber.App {
	app := fiber.New()
	secured := app.Group("/", middleware.UserContextMiddleware(""))
	SetupEventRoutes(secured, events, parts)
	SetupLeaderboardRoutes(secured, fakeLeaderboard{})
	SetupAdminRoutes(secured.Group("/admin", middleware.RequireRole("organizer", "admin")), events, parts, fakeLeaderboard{})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, body string, roles string) (int, map[string]any, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-User-ID", "u1")
	if roles != "" {
		req.Header.Set("X-User-Roles", roles)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var obj map[string]any
	_ = json.Unmarshal(raw, &obj)
	return resp.StatusCode, obj, raw
}

func sampleEvents() *fakeEvents {
	capacity := int64(50)
	return &fakeEvents{events: map[string]models.Event{
		"e1": {ID: "e1", Title: "Campus Clean-Up Day", Category: models.CategoryEnvironmental, PointValue: 50,
			Status: models.EventStatusUpcoming, StartsAt: time.Now().Add(72 * time.Hour), Capacity: &capacity, CurrentParticipants: 50},
		"e2": {ID: "e2", Title: "Student Council Election", Category: models.CategoryGovernance, PointValue: 40,
			Status: models.EventStatusUpcoming, StartsAt: time.Now().Add(24 * time.Hour)},
	}}
}

func TestJoinMapsEngineErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"ok", nil, fiber.StatusCreated, ""},
		{"full", fmt.Errorf("wrap: %w", engine.ErrCapacityExceeded), fiber.StatusConflict, "CAPACITY_EXCEEDED"},
		{"duplicate", engine.ErrAlreadyRegistered, fiber.StatusConflict, "ALREADY_REGISTERED"},
		{"closed", engine.ErrEventNotJoinable, fiber.StatusUnprocessableEntity, "EVENT_NOT_JOINABLE"},
		{"missing", fmt.Errorf("load event: %w", gorm.ErrRecordNotFound), fiber.StatusNotFound, "NOT_FOUND"},
		{"db down", fmt.Errorf("connection refused"), fiber.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := &fakeParticipations{registerErr: tt.err}
			app := newTestApp(sampleEvents(), parts)
			status, body, _ := call(t, app, "POST", "/events/e2/join", "", "")
			if status != tt.status {
				t.Fatalf("expected %d, got %d (%v)", tt.status, status, body)
			}
			if tt.code != "" && body["code"] != tt.code {
				t.Fatalf("expected code %s, got %v", tt.code, body["code"])
			}
			if parts.memberID != "u1" {
				t.Fatalf("expected caller id forwarded, got %q", parts.memberID)
			}
		})
	}
}

func TestEventDetailIncludesPredicates(t *testing.T) {
	app := newTestApp(sampleEvents(), &fakeParticipations{})
	status, body, _ := call(t, app, "GET", "/events/e1", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["is_full"] != true || body["can_join"] != false || body["points"] != float64(50) {
		t.Fatalf("unexpected detail %v", body)
	}
	if status, _, _ := call(t, app, "GET", "/events/nope", "", ""); status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestListEventsFiltersCategory(t *testing.T) {
	app := newTestApp(sampleEvents(), &fakeParticipations{})
	status, _, raw := call(t, app, "GET", "/events?category=governance", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 || list[0]["id"] != "e2" {
		t.Fatalf("unexpected list %v", list)
	}
	if status, _, _ := call(t, app, "GET", "/events?category=economic", "", ""); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %d", status)
	}
}

func TestAdminRoutes(t *testing.T) {
	events := sampleEvents()
	app := newTestApp(events, &fakeParticipations{})

	if status, _, _ := call(t, app, "POST", "/admin/participations/p1/attend", "", ""); status != fiber.StatusForbidden {
		t.Fatalf("expected 403 without role, got %d", status)
	}
	if status, body, _ := call(t, app, "POST", "/admin/participations/p1/attend", "", "organizer"); status != fiber.StatusUnprocessableEntity || body["code"] != "INVALID_TRANSITION" {
		t.Fatalf("expected 422 INVALID_TRANSITION, got %d %v", status, body)
	}

	status, body, _ := call(t, app, "POST", "/admin/participations/p1/complete", `{"rating":4}`, "admin")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d %v", status, body)
	}
	part := body["participation"].(map[string]any)
	if part["points_earned"] != float64(50) || part["rating"] != float64(4) {
		t.Fatalf("unexpected completion %v", part)
	}

	event := `{"title":"Tree Planting","category":"environmental","date":"2030-04-01T09:00:00Z","points":60,"max_participants":30}`
	if status, body, _ := call(t, app, "POST", "/admin/events", event, "organizer"); status != fiber.StatusCreated || body["category"] != "Environmental" {
		t.Fatalf("expected created event, got %d %v", status, body)
	}
	if events.created.Capacity == nil || *events.created.Capacity != 30 {
		t.Fatalf("capacity not forwarded")
	}
	if status, _, _ := call(t, app, "POST", "/admin/events", `{"title":"x","category":"social","date":"2030-04-01T09:00:00Z","points":0}`, "organizer"); status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for zero points, got %d", status)
	}

	published := events.events["e2"]
	now := time.Now()
	published.PublishedAt = &now
	events.events["e2"] = published
	if status, body, _ := call(t, app, "PATCH", "/admin/events/e2/points", `{"points":80}`, "organizer"); status != fiber.StatusBadRequest || body["code"] != "INVALID_STATE" {
		t.Fatalf("expected frozen points, got %d %v", status, body)
	}
}

func TestLeaderboardRoutes(t *testing.T) {
	app := newTestApp(sampleEvents(), &fakeParticipations{})
	status, _, raw := call(t, app, "GET", "/leaderboard?limit=1", "", "")
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0]["medal"] != "🥇" || rows[0]["user_id"] != "a" {
		t.Fatalf("unexpected rows %v", rows)
	}
	if status, _, _ := call(t, app, "GET", "/leaderboard/me", "", ""); status != fiber.StatusNotFound {
		t.Fatalf("expected 404 for unranked member, got %d", status)
	}
}
