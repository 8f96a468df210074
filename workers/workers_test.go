package workers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"esg-engagement/models"
)

func TestFetchProfiles(t *testing.T) {
	var gotToken, gotSince, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Service-Token")
		gotSince = r.URL.Query().Get("since")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"users":[{"external_id":"u1","username":"kassi","first_name":"Kassi","last_name":"Bek","account_status":"active","created_at":"2025-09-01T00:00:00Z"}]}`))
	}))
	defer srv.Close()

	w := NewMemberSyncWorker(nil, srv.Client(), srv.URL, "svc-token")
	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	profiles, err := w.FetchProfiles(context.Background(), since)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotToken != "svc-token" || gotSince != "2026-03-01T00:00:00Z" || gotPath != "/api/v1/public/profiles" {
		t.Fatalf("unexpected request token=%q since=%q path=%q", gotToken, gotSince, gotPath)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected one profile, got %d", len(profiles))
	}
	m := profiles[0].Member()
	if m.ID != "u1" || m.DisplayName != "Kassi Bek" || !m.IsActive || m.TotalScore != 0 {
		t.Fatalf("unexpected member %+v", m)
	}
}

func TestFetchProfilesNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	w := NewMemberSyncWorker(nil, srv.Client(), srv.URL, "wrong")
	_, err := w.FetchProfiles(context.Background(), time.Time{})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}

func TestDisplayNameFallsBackToUsername(t *testing.T) {
	blank := "  "
	p := RemoteProfile{Username: "eco_fan", FirstName: &blank}
	if p.DisplayName() != "eco_fan" {
		t.Fatalf("unexpected display name %q", p.DisplayName())
	}
	if (RemoteProfile{AccountStatus: "suspended"}).Member().IsActive {
		t.Fatalf("suspended profiles are inactive")
	}
}

func TestGetChangedEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/public/events" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"events":[
			{"id":"e1","title":"Campus Clean-Up Day","category":"environmental","date":"2026-03-10T09:00:00Z","points":50,"max_participants":50,"status":"Upcoming"},
			{"id":"e2","title":"Broken","category":"economic","date":"2026-03-10T09:00:00Z","points":10}
		]}`))
	}))
	defer srv.Close()

	c := NewEventSyncClient(nil, srv.Client(), srv.URL, "svc-token")
	remote, err := c.GetChangedEvents(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(remote) != 2 {
		t.Fatalf("expected 2 events, got %d", len(remote))
	}
	e, err := remote[0].Event()
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if e.Category != models.CategoryEnvironmental || *e.Capacity != 50 || e.Status != models.EventStatusUpcoming {
		t.Fatalf("unexpected event %+v", e)
	}
	if _, err := remote[1].Event(); err == nil {
		t.Fatalf("unknown category must be rejected")
	}
}

func TestEventColumnsNeverOverwriteCounters(t *testing.T) {
	for _, col := range eventColumns {
		switch col {
		case "point_value", "current_participants", "max_participants", "published_at":
			t.Fatalf("sync must not overwrite %s", col)
		}
	}
	for _, col := range profileColumns {
		if strings.Contains(col, "score") || strings.Contains(col, "streak") {
			t.Fatalf("profile sync must not overwrite %s", col)
		}
	}
}

func TestStatusOverwrittenOnlyWhenRemoteSendsOne(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{"", false},
		{"Archived", false},
		{"Cancelled", true},
		{"Completed", true},
	}
	for _, tt := range tests {
		r := RemoteEvent{ID: "e1", Title: "Town Hall", Category: "Governance", Date: time.Now(), Points: 20, Status: tt.status}
		if r.HasStatus() != tt.want || slices.Contains(updateColumns(r.HasStatus()), "status") != tt.want {
			t.Fatalf("status %q: expected overwrite=%v", tt.status, tt.want)
		}
		e, err := r.Event()
		if err != nil {
			t.Fatalf("convert: %v", err)
		}
		if !tt.want && e.Status != models.EventStatusUpcoming {
			t.Fatalf("status %q: new rows default to Upcoming, got %s", tt.status, e.Status)
		}
	}
	if slices.Contains(eventColumns, "status") {
		t.Fatalf("base columns must not include status")
	}
}

func TestNextWatermarkFollowsRemoteClock(t *testing.T) {
	since := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	polledAt := since.Add(time.Minute)

	// a local completion bumping members.updated_at must not matter; only
	// remote timestamps move the watermark
	profiles := []RemoteProfile{
		{ExternalID: "u1", UpdatedAt: since.Add(5 * time.Second)},
		{ExternalID: "u2", UpdatedAt: since.Add(3 * time.Second)},
	}
	if got := nextWatermark(since, polledAt, profiles); !got.Equal(since.Add(5 * time.Second)) {
		t.Fatalf("expected newest remote update, got %s", got)
	}

	if got := nextWatermark(since, polledAt, []RemoteProfile{{ExternalID: "u1"}}); !got.Equal(polledAt) {
		t.Fatalf("expected poll time without remote stamps, got %s", got)
	}

	stale := []RemoteProfile{{ExternalID: "u1", UpdatedAt: since.Add(-time.Hour)}}
	if got := nextWatermark(since, polledAt, stale); !got.Equal(since) {
		t.Fatalf("watermark must never move back, got %s", got)
	}
}
