package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"esg-engagement/engine"
	"esg-engagement/models"
)

// Exporter publishes a JSON document and returns where it can be fetched.
type Exporter interface {
	PutJSON(ctx context.Context, key string, v any) (string, error)
}

// SnapshotResult describes one stored ranking.
type SnapshotResult struct {
	PeriodStart time.Time                 `json:"period_start"`
	Entries     []models.LeaderboardEntry `json:"entries"`
	ExportURL   string                    `json:"export_url,omitempty"`
}

type LeaderboardService struct {
	DB       *gorm.DB
	Exporter Exporter // nil disables exports
	Now      func() time.Time
}

func NewLeaderboardService(db *gorm.DB, exporter Exporter) *LeaderboardService {
	return &LeaderboardService{DB: db, Exporter: exporter, Now: time.Now}
}

// Compute ranks all active members against the most recent snapshot taken
// before the current week.
func (s *LeaderboardService) Compute(ctx context.Context) ([]models.LeaderboardEntry, error) {
	db := s.DB.WithContext(ctx)

	var members []models.Member
	if err := db.Where("is_active = ?", true).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}

	previous, err := s.previousRanking(db, engine.WeekStart(s.Now()))
	if err != nil {
		return nil, err
	}
	return engine.Rank(members, previous), nil
}

func (s *LeaderboardService) previousRanking(db *gorm.DB, before time.Time) ([]models.LeaderboardEntry, error) {
	var latest models.LeaderboardSnapshot
	err := db.Where("period_start < ?", before).Order("period_start DESC").Limit(1).Find(&latest).Error
	if err != nil {
		return nil, fmt.Errorf("find previous snapshot: %w", err)
	}
	if latest.ID == "" {
		return nil, nil
	}

	var rows []models.LeaderboardSnapshot
	if err := db.Where("period_start = ?", latest.PeriodStart).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load previous snapshot: %w", err)
	}
	prev := make([]models.LeaderboardEntry, len(rows))
	for i, r := range rows {
		prev[i] = models.LeaderboardEntry{MemberID: r.MemberID, Rank: r.Rank, Score: r.Score}
	}
	return prev, nil
}

// Top returns the leading entries.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	entries, err := s.Compute(ctx)
	if err != nil {
		return nil, err
	}
	return engine.Top(entries, limit), nil
}

// Around returns the window of entries within radius ranks of memberID.
func (s *LeaderboardService) Around(ctx context.Context, memberID string, radius int) ([]models.LeaderboardEntry, error) {
	entries, err := s.Compute(ctx)
	if err != nil {
		return nil, err
	}
	window := engine.Around(entries, memberID, radius)
	if window == nil {
		return nil, fmt.Errorf("member %s is not ranked: %w", memberID, gorm.ErrRecordNotFound)
	}
	return window, nil
}

// Snapshot stores the current ranking for this week, replacing any earlier
// snapshot of the same week, and exports it when an exporter is configured.
func (s *LeaderboardService) Snapshot(ctx context.Context) (SnapshotResult, error) {
	entries, err := s.Compute(ctx)
	if err != nil {
		return SnapshotResult{}, err
	}
	periodStart := engine.WeekStart(s.Now())

	if len(entries) > 0 {
		rows := make([]models.LeaderboardSnapshot, len(entries))
		for i, e := range entries {
			rows[i] = models.LeaderboardSnapshot{
				ID:          uuid.NewString(),
				PeriodStart: periodStart,
				MemberID:    e.MemberID,
				Rank:        e.Rank,
				Score:       e.Score,
			}
		}
		if err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "period_start"}, {Name: "member_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rank", "score", "updated_at"}),
		}).CreateInBatches(&rows, 500).Error; err != nil {
			return SnapshotResult{}, fmt.Errorf("failed to save leaderboard snapshot: %w", err)
		}
	}

	result := SnapshotResult{PeriodStart: periodStart, Entries: entries}
	if s.Exporter == nil {
		log.Printf("[LEADERBOARD] R2 not configured, skipping export of %d entries", len(entries))
		return result, nil
	}
	key := fmt.Sprintf("leaderboards/%s.json", periodStart.Format("2006-01-02"))
	url, err := s.Exporter.PutJSON(ctx, key, result)
	if err != nil {
		return result, fmt.Errorf("export leaderboard: %w", err)
	}
	result.ExportURL = url
	log.Printf("[SUCCESS] Leaderboard snapshot for week %s: %d entries → %s",
		periodStart.Format("2006-01-02"), len(entries), url)
	return result, nil
}
