// workers/event_sync_worker.go
package workers

import (
	"context"
	"log"
	"net/http"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"esg-engagement/models"
)

// RemoteEvent is an event as published by the organizer service.
type RemoteEvent struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Date            time.Time  `json:"date"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	Points          int64      `json:"points"`
	MaxParticipants *int64     `json:"max_participants,omitempty"`
	Status          string     `json:"status"`
	Location        *string    `json:"location,omitempty"`
	Organizer       *string    `json:"organizer,omitempty"`
	ImageURL        *string    `json:"image_url,omitempty"`
	Requirements    *string    `json:"requirements,omitempty"`
	IsOnline        bool       `json:"is_online"`
	Tags            []string   `json:"tags"`
}

// Event validates the remote record. Capacity and point value only apply
// to events created by the sync; existing rows keep theirs.
func (r RemoteEvent) Event() (models.Event, error) {
	category, err := models.ParseCategory(r.Category)
	if err != nil {
		return models.Event{}, err
	}
	e, err := models.NewEvent(models.NewEventInput{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Category:     category,
		StartsAt:     r.Date,
		EndsAt:       r.EndDate,
		PointValue:   r.Points,
		Capacity:     r.MaxParticipants,
		Location:     r.Location,
		Organizer:    r.Organizer,
		ImageURL:     r.ImageURL,
		Requirements: r.Requirements,
		IsOnline:     r.IsOnline,
		Tags:         r.Tags,
	})
	if err != nil {
		return models.Event{}, err
	}
	if r.HasStatus() {
		e.Status = models.EventStatus(r.Status)
	}
	return e, nil
}

// eventColumns are overwritten on conflict. point_value, max_participants
// and current_participants are owned by this service.
var eventColumns = []string{
	"title", "description", "category", "starts_at", "ends_at",
	"location", "organizer", "image_url", "requirements", "is_online", "tags", "updated_at",
}

// HasStatus reports whether the remote record carries a valid status.
func (r RemoteEvent) HasStatus() bool {
	return models.EventStatus(r.Status).Valid()
}

// updateColumns adds status only for records that carry one, so a record
// without status never reopens or rewinds a local event.
func updateColumns(withStatus bool) []string {
	if !withStatus {
		return eventColumns
	}
	return append(slices.Clone(eventColumns), "status")
}

type EventSyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

func NewEventSyncClient(db *gorm.DB, httpClient *http.Client, baseURL, token string) *EventSyncClient {
	return &EventSyncClient{BaseURL: baseURL, Token: token, HTTPClient: httpClient, DB: db}
}

func (c *EventSyncClient) GetChangedEvents(ctx context.Context, since time.Time) ([]RemoteEvent, error) {
	var response struct {
		Events []RemoteEvent `json:"events"`
	}
	if err := getJSON(ctx, c.HTTPClient, c.BaseURL, "/api/v1/public/events", c.Token, since, &response); err != nil {
		return nil, err
	}
	return response.Events, nil
}

// Upsert stores the valid events and returns how many were written.
func (c *EventSyncClient) Upsert(ctx context.Context, remote []RemoteEvent) (int, error) {
	var withStatus, withoutStatus []models.Event
	for _, r := range remote {
		e, err := r.Event()
		if err != nil {
			log.Printf("[EVENT_SYNC] ⚠️ Skipping event %q: %v", r.ID, err)
			continue
		}
		if r.HasStatus() {
			withStatus = append(withStatus, e)
		} else {
			withoutStatus = append(withoutStatus, e)
		}
	}
	if len(withStatus)+len(withoutStatus) == 0 {
		return 0, nil
	}

	err := c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		batches := []struct {
			events  []models.Event
			columns []string
		}{
			{withStatus, updateColumns(true)},
			{withoutStatus, updateColumns(false)},
		}
		for _, b := range batches {
			if len(b.events) == 0 {
				continue
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns(b.columns),
			}).Create(&b.events).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(withStatus) + len(withoutStatus), nil
}

// PollEvents mirrors organizer-service events into the events table.
func PollEvents(ctx context.Context, client *EventSyncClient, pollInterval time.Duration) {
	log.Println("Starting event polling (DB-backed)...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Event polling stopped.")
			return
		case <-ticker.C:
			pollTime := time.Now().UTC()
			remote, err := client.GetChangedEvents(ctx, lastSyncTime)
			if err != nil {
				log.Printf("❌ Error polling events: %v", err)
				continue
			}
			if len(remote) == 0 {
				continue
			}
			n, err := client.Upsert(ctx, remote)
			if err != nil {
				// keep lastSyncTime so the same window is retried
				log.Printf("❌ Failed to upsert %d event(s): %v", len(remote), err)
				continue
			}
			lastSyncTime = pollTime
			log.Printf("✅ Upserted %d event(s) from organizer service.", n)
		}
	}
}
