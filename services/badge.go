package services

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"esg-engagement/engine"
	"esg-engagement/models"
)

type BadgeService struct {
	DB      *gorm.DB
	Catalog models.Catalog
}

func NewBadgeService(db *gorm.DB, catalog models.Catalog) *BadgeService {
	return &BadgeService{DB: db, Catalog: catalog}
}

// StoreUnlocks inserts the rows for badges first unlocked in p and returns
// the badge ids this call actually stored. Rows are never updated or
// deleted, so an unlock keeps its original timestamp; a row another request
// stored first is skipped.
func (s *BadgeService) StoreUnlocks(tx *gorm.DB, p engine.Progression) ([]string, error) {
	if len(p.NewlyUnlocked) == 0 {
		return nil, nil
	}
	fresh := make(map[string]bool, len(p.NewlyUnlocked))
	for _, id := range p.NewlyUnlocked {
		fresh[id] = true
	}

	var awarded []string
	for _, b := range p.UnlockedBadges {
		if !fresh[b.BadgeID] {
			continue
		}
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "member_id"}, {Name: "badge_id"}},
			DoNothing: true,
		}).Create(&b)
		if res.Error != nil {
			return awarded, fmt.Errorf("store badge unlock %s: %w", b.BadgeID, res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}
		awarded = append(awarded, b.BadgeID)

		title := b.BadgeID
		if def, ok := s.Catalog.Badge(b.BadgeID); ok {
			title = def.Title
		}
		log.Printf("🎖️ Badge awarded: %s → %s", title, b.MemberID)
	}
	return awarded, nil
}

// Statuses returns every catalog badge with the member's unlock state.
func (s *BadgeService) Statuses(ctx context.Context, memberID string) ([]models.BadgeStatus, error) {
	var member models.Member
	if err := s.DB.WithContext(ctx).Preload("UnlockedBadges").First(&member, "id = ?", memberID).Error; err != nil {
		return nil, fmt.Errorf("load member %s: %w", memberID, err)
	}
	p, err := engine.Resolve(member, s.Catalog, timeNow())
	if err != nil {
		return nil, err
	}
	if _, err := s.StoreUnlocks(s.DB.WithContext(ctx), p); err != nil {
		return nil, err
	}
	return p.Badges, nil
}
