package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"esg-engagement/engine"
	"esg-engagement/models"
)

// ParticipationService runs lifecycle transitions inside database
// transactions. Rows an operation depends on are locked FOR UPDATE so the
// capacity counter and the one-active-registration rule hold under
// concurrent requests.
type ParticipationService struct {
	DB      *gorm.DB
	Badges  *BadgeService
	Catalog models.Catalog
	Now     func() time.Time
	NewID   engine.IDGenerator

	// MissedGrace is how long after its start an event without an end time
	// stays open for attendance before the sweep closes its registrations.
	MissedGrace time.Duration
}

// DefaultMissedGrace leaves organizers a day to record attendance for
// events that have no end time.
const DefaultMissedGrace = 24 * time.Hour

func NewParticipationService(db *gorm.DB, badges *BadgeService, catalog models.Catalog) *ParticipationService {
	return &ParticipationService{DB: db, Badges: badges, Catalog: catalog, Now: time.Now, MissedGrace: DefaultMissedGrace}
}

// closesBefore matches events that ended before now. An event without an
// end time counts as ending grace after its start.
func closesBefore(db *gorm.DB, grace time.Duration, now time.Time) *gorm.DB {
	return db.Where("COALESCE(events.ends_at, events.starts_at + make_interval(secs => ?)) < ?", grace.Seconds(), now)
}

func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// Register signs memberID up for eventID.
func (s *ParticipationService) Register(ctx context.Context, memberID, eventID string) (models.Participation, error) {
	var created models.Participation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		if err := forUpdate(tx).First(&event, "id = ?", eventID).Error; err != nil {
			return fmt.Errorf("load event %s: %w", eventID, err)
		}
		var member models.Member
		if err := tx.First(&member, "id = ?", memberID).Error; err != nil {
			return fmt.Errorf("load member %s: %w", memberID, err)
		}
		if !member.IsActive {
			return fmt.Errorf("%w: member %s is deactivated", engine.ErrEventNotJoinable, memberID)
		}

		var existing []models.Participation
		if err := tx.Where("member_id = ? AND event_id = ?", memberID, eventID).Find(&existing).Error; err != nil {
			return fmt.Errorf("load participations: %w", err)
		}

		p, updated, err := engine.Register(member, event, existing, s.Now(), s.NewID)
		if err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: member %s, event %s", engine.ErrAlreadyRegistered, memberID, eventID)
			}
			return fmt.Errorf("create participation: %w", err)
		}
		if err := tx.Model(&models.Event{}).Where("id = ?", eventID).
			Update("current_participants", updated.CurrentParticipants).Error; err != nil {
			return fmt.Errorf("update participant count: %w", err)
		}
		created = p
		return nil
	})
	if err != nil {
		return models.Participation{}, err
	}
	log.Printf("📝 [PARTICIPATION] %s registered for %s (%s)", memberID, eventID, created.ID)
	return created, nil
}

// loadForTransition locks the participation and loads its event.
func loadForTransition(tx *gorm.DB, participationID string) (models.Participation, models.Event, error) {
	var p models.Participation
	if err := forUpdate(tx).First(&p, "id = ?", participationID).Error; err != nil {
		return p, models.Event{}, fmt.Errorf("load participation %s: %w", participationID, err)
	}
	var event models.Event
	if err := forUpdate(tx).First(&event, "id = ?", p.EventID).Error; err != nil {
		return p, event, fmt.Errorf("load event %s: %w", p.EventID, err)
	}
	return p, event, nil
}

// MarkAttended records that the member showed up.
func (s *ParticipationService) MarkAttended(ctx context.Context, participationID string) (models.Participation, error) {
	var out models.Participation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, event, err := loadForTransition(tx, participationID)
		if err != nil {
			return err
		}
		attended, err := engine.MarkAttended(p, event, s.Now())
		if err != nil {
			return err
		}
		if err := tx.Model(&attended).Update("status", attended.Status).Error; err != nil {
			return fmt.Errorf("update participation: %w", err)
		}
		out = attended
		return nil
	})
	return out, err
}

// Complete scores an attended participation, then resolves and stores any
// badges the new score unlocks.
func (s *ParticipationService) Complete(ctx context.Context, participationID string, rating *int, feedback *string) (models.Participation, engine.Progression, error) {
	var (
		out  models.Participation
		prog engine.Progression
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, event, err := loadForTransition(tx, participationID)
		if err != nil {
			return err
		}
		var member models.Member
		if err := forUpdate(tx).Preload("UnlockedBadges").First(&member, "id = ?", p.MemberID).Error; err != nil {
			return fmt.Errorf("load member %s: %w", p.MemberID, err)
		}

		now := s.Now()
		completed, scored, err := engine.Complete(p, member, event, rating, feedback, now)
		if err != nil {
			return err
		}
		prog, err = engine.Resolve(scored, s.Catalog, now)
		if err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Save(&scored).Error; err != nil {
			return fmt.Errorf("save member: %w", err)
		}
		if err := tx.Omit(clause.Associations).Save(&completed).Error; err != nil {
			return fmt.Errorf("save participation: %w", err)
		}
		if _, err := s.Badges.StoreUnlocks(tx, prog); err != nil {
			return err
		}

		log.Printf("🌱 [SCORING] %s +%d %s points → total=%d, streak=%d (event %s)",
			scored.ID, event.PointValue, event.Category, scored.TotalScore, scored.CurrentStreak, event.ID)
		out = completed
		return nil
	})
	if err != nil {
		return models.Participation{}, engine.Progression{}, err
	}
	return out, prog, nil
}

// MarkMissed closes a registration whose event ended without attendance.
func (s *ParticipationService) MarkMissed(ctx context.Context, participationID string) (models.Participation, error) {
	var out models.Participation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, event, err := loadForTransition(tx, participationID)
		if err != nil {
			return err
		}
		missed, err := engine.MarkMissed(p, event, s.Now())
		if err != nil {
			return err
		}
		if err := tx.Model(&missed).Update("status", missed.Status).Error; err != nil {
			return fmt.Errorf("update participation: %w", err)
		}
		out = missed
		return nil
	})
	return out, err
}

// Cancel withdraws the caller's own registration and frees the seat.
func (s *ParticipationService) Cancel(ctx context.Context, memberID, participationID string) (models.Participation, error) {
	var out models.Participation
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, event, err := loadForTransition(tx, participationID)
		if err != nil {
			return err
		}
		if p.MemberID != memberID {
			return fmt.Errorf("participation %s: %w", participationID, gorm.ErrRecordNotFound)
		}
		cancelled, updated, err := engine.Cancel(p, event, s.Now())
		if err != nil {
			return err
		}
		if err := tx.Model(&cancelled).Update("status", cancelled.Status).Error; err != nil {
			return fmt.Errorf("update participation: %w", err)
		}
		if err := tx.Model(&models.Event{}).Where("id = ?", event.ID).
			Update("current_participants", updated.CurrentParticipants).Error; err != nil {
			return fmt.Errorf("update participant count: %w", err)
		}
		out = cancelled
		return nil
	})
	if err == nil {
		log.Printf("↩️ [PARTICIPATION] %s cancelled %s", memberID, participationID)
	}
	return out, err
}

// ListForMember returns the member's participations, newest first, with events.
func (s *ParticipationService) ListForMember(ctx context.Context, memberID string) ([]models.Participation, error) {
	var parts []models.Participation
	err := s.DB.WithContext(ctx).
		Preload("Event").
		Where("member_id = ?", memberID).
		Order("registered_at DESC").
		Find(&parts).Error
	return parts, err
}

// SweepMissed marks every registration of a closed event as missed.
func (s *ParticipationService) SweepMissed(ctx context.Context) (int, error) {
	now := s.Now()
	var ids []string
	q := s.DB.WithContext(ctx).
		Model(&models.Participation{}).
		Joins("JOIN events ON events.id = participations.event_id").
		Where("participations.status = ?", models.ParticipationRegistered)
	err := closesBefore(q, s.MissedGrace, now).
		Pluck("participations.id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("find stale registrations: %w", err)
	}

	var swept int
	for _, id := range ids {
		if _, err := s.MarkMissed(ctx, id); err != nil {
			// attendance may have been recorded since the query
			if errors.Is(err, engine.ErrInvalidTransition) {
				continue
			}
			log.Printf("⚠️ [SWEEP] failed to mark %s missed: %v", id, err)
			continue
		}
		swept++
	}
	return swept, nil
}
