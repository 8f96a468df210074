package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"esg-engagement/engine"
	"esg-engagement/models"
)

type EventService struct {
	DB  *gorm.DB
	Now func() time.Time

	// Grace is how long an event without an end time stays Ongoing.
	Grace time.Duration
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{DB: db, Now: time.Now, Grace: DefaultMissedGrace}
}

// Create stores a new unpublished event. An id is generated when none is given.
func (s *EventService) Create(ctx context.Context, input models.NewEventInput) (models.Event, error) {
	if strings.TrimSpace(input.ID) == "" {
		input.ID = uuid.NewString()
	}
	event, err := models.NewEvent(input)
	if err != nil {
		return models.Event{}, err
	}
	if err := s.DB.WithContext(ctx).Create(&event).Error; err != nil {
		return models.Event{}, fmt.Errorf("create event: %w", err)
	}
	log.Printf("📅 [EVENTS] Created %s event %q (%d pts)", event.Category, event.Title, event.PointValue)
	return event, nil
}

// List returns events by start time, optionally filtered by category.
func (s *EventService) List(ctx context.Context, category *models.Category) ([]models.Event, error) {
	var events []models.Event
	db := s.DB.WithContext(ctx).Order("starts_at ASC")
	if category != nil {
		db = db.Where("category = ?", *category)
	}
	if err := db.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *EventService) Get(ctx context.Context, id string) (models.Event, error) {
	var event models.Event
	if err := s.DB.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return models.Event{}, fmt.Errorf("load event %s: %w", id, err)
	}
	return event, nil
}

// Publish freezes the event's point value.
func (s *EventService) Publish(ctx context.Context, id string) (models.Event, error) {
	return s.mutate(ctx, id, func(e models.Event) (models.Event, error) {
		return engine.Publish(e, s.Now())
	})
}

// RevisePoints changes the point value of an unpublished event.
func (s *EventService) RevisePoints(ctx context.Context, id string, points int64) (models.Event, error) {
	return s.mutate(ctx, id, func(e models.Event) (models.Event, error) {
		return engine.RevisePointValue(e, points)
	})
}

func (s *EventService) mutate(ctx context.Context, id string, fn func(models.Event) (models.Event, error)) (models.Event, error) {
	var out models.Event
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := forUpdate(tx).First(&event, "id = ?", id).Error; err != nil {
			return fmt.Errorf("load event %s: %w", id, err)
		}
		updated, err := fn(event)
		if err != nil {
			return err
		}
		if err := tx.Model(&updated).Select("point_value", "published_at").Updates(&updated).Error; err != nil {
			return fmt.Errorf("save event: %w", err)
		}
		out = updated
		return nil
	})
	return out, err
}

// AdvanceStatuses moves events along Upcoming → Ongoing → Completed by the clock.
// Cancelled events are left alone.
func (s *EventService) AdvanceStatuses(ctx context.Context) (started, finished int64, err error) {
	now := s.Now()
	db := s.DB.WithContext(ctx)

	q := db.Model(&models.Event{}).
		Where("status IN ?", []models.EventStatus{models.EventStatusUpcoming, models.EventStatusOngoing})
	res := closesBefore(q, s.Grace, now).
		Update("status", models.EventStatusCompleted)
	if res.Error != nil {
		return 0, 0, fmt.Errorf("complete events: %w", res.Error)
	}
	finished = res.RowsAffected

	res = db.Model(&models.Event{}).
		Where("status = ? AND starts_at <= ?", models.EventStatusUpcoming, now).
		Update("status", models.EventStatusOngoing)
	if res.Error != nil {
		return 0, finished, fmt.Errorf("start events: %w", res.Error)
	}
	return res.RowsAffected, finished, nil
}
