package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"esg-engagement/engine"
	"esg-engagement/models"
)

var timeNow = time.Now

// ProgressView is what a member sees on their progress screen.
type ProgressView struct {
	engine.Progression
	EnvironmentalScore int64                  `json:"environmental_score"`
	SocialScore        int64                  `json:"social_score"`
	GovernanceScore    int64                  `json:"governance_score"`
	EventsAttended     int64                  `json:"events_attended"`
	EventsCompleted    int64                  `json:"events_completed"`
	CurrentStreak      int64                  `json:"current_streak"`
	LongestStreak      int64                  `json:"longest_streak"`
	Balance            int64                  `json:"points_balance"`
	RecentCompletions  []models.Participation `json:"recent_completions"`
}

// HistoryPage is one page of completed participations.
type HistoryPage struct {
	Items      []models.Participation `json:"items"`
	Page       int                    `json:"page"`
	Size       int                    `json:"size"`
	TotalItems int64                  `json:"total_items"`
	TotalPages int                    `json:"total_pages"`
}

type ProgressionService struct {
	DB     *gorm.DB
	Badges *BadgeService
	Shop   *ShopService
}

func NewProgressionService(db *gorm.DB, badges *BadgeService, shop *ShopService) *ProgressionService {
	return &ProgressionService{DB: db, Badges: badges, Shop: shop}
}

// GetProgress resolves the member's level and badges. Badges that qualify
// for the first time are stored as a side effect, as they would have been on
// the completion that earned them.
func (s *ProgressionService) GetProgress(ctx context.Context, memberID string) (ProgressView, error) {
	db := s.DB.WithContext(ctx)
	var member models.Member
	if err := db.Preload("UnlockedBadges").First(&member, "id = ?", memberID).Error; err != nil {
		return ProgressView{}, fmt.Errorf("load member %s: %w", memberID, err)
	}

	p, err := engine.Resolve(member, s.Badges.Catalog, timeNow())
	if err != nil {
		return ProgressView{}, err
	}
	if _, err := s.Badges.StoreUnlocks(db, p); err != nil {
		return ProgressView{}, err
	}

	recent, err := s.GetRecentCompletions(ctx, memberID, 30)
	if err != nil {
		return ProgressView{}, err
	}
	balance := member.TotalScore
	if s.Shop != nil {
		if balance, err = s.Shop.Balance(ctx, member); err != nil {
			return ProgressView{}, err
		}
	}

	return ProgressView{
		Progression:        p,
		EnvironmentalScore: member.EnvironmentalScore,
		SocialScore:        member.SocialScore,
		GovernanceScore:    member.GovernanceScore,
		EventsAttended:     member.EventsAttended,
		EventsCompleted:    member.EventsCompleted,
		CurrentStreak:      member.CurrentStreak,
		LongestStreak:      member.LongestStreak,
		Balance:            balance,
		RecentCompletions:  recent,
	}, nil
}

// GetRecentCompletions returns completions in the last N days.
func (s *ProgressionService) GetRecentCompletions(ctx context.Context, memberID string, days int) ([]models.Participation, error) {
	var parts []models.Participation
	since := timeNow().AddDate(0, 0, -days)
	err := s.DB.WithContext(ctx).
		Preload("Event").
		Where("member_id = ? AND status = ? AND completed_at >= ?", memberID, models.ParticipationCompleted, since).
		Order("completed_at DESC").
		Find(&parts).Error
	return parts, err
}

// GetHistory returns the member's completed participations, paginated.
func (s *ProgressionService) GetHistory(ctx context.Context, memberID string, page, size int) (HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	completed := func() *gorm.DB {
		return s.DB.WithContext(ctx).Model(&models.Participation{}).
			Where("member_id = ? AND status = ?", memberID, models.ParticipationCompleted)
	}

	var total int64
	if err := completed().Count(&total).Error; err != nil {
		return HistoryPage{}, fmt.Errorf("count history: %w", err)
	}

	var items []models.Participation
	if err := completed().Preload("Event").
		Order("completed_at DESC").
		Limit(size).Offset(offset).
		Find(&items).Error; err != nil {
		return HistoryPage{}, fmt.Errorf("load history: %w", err)
	}

	return HistoryPage{
		Items:      items,
		Page:       page,
		Size:       size,
		TotalItems: total,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}
