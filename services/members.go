package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"esg-engagement/models"
	"esg-engagement/utils"
)

var ErrMemberExists = errors.New("member already exists")

// RegisterMemberInput is what a member submits when joining the program.
type RegisterMemberInput struct {
	ID        string  `json:"-"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	StudentID *string `json:"student_id"`
	Faculty   *string `json:"faculty"`
	AvatarURL *string `json:"avatar"`
}

// MemberSummary is the public search result for a member.
type MemberSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Faculty    *string `json:"faculty,omitempty"`
	AvatarURL  *string `json:"avatar,omitempty"`
	TotalScore int64   `json:"total_esg_score"`
}

type MemberService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{DB: db, Now: time.Now}
}

// Register validates the sign-up fields and creates a zero-score member.
func (s *MemberService) Register(ctx context.Context, input RegisterMemberInput) (models.Member, error) {
	if err := utils.ValidateName(input.Name); err != nil {
		return models.Member{}, err
	}
	if input.Email != "" {
		if err := utils.ValidateEmail(input.Email); err != nil {
			return models.Member{}, err
		}
	}
	if input.StudentID != nil {
		if err := utils.ValidateStudentID(*input.StudentID); err != nil {
			return models.Member{}, err
		}
	}

	member, err := models.NewMember(models.NewMemberInput{
		ID:          input.ID,
		DisplayName: input.Name,
		Email:       input.Email,
		StudentID:   input.StudentID,
		Faculty:     input.Faculty,
		AvatarURL:   input.AvatarURL,
	}, s.Now())
	if err != nil {
		return models.Member{}, err
	}
	if err := s.DB.WithContext(ctx).Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Member{}, fmt.Errorf("%w: %s", ErrMemberExists, member.ID)
		}
		return models.Member{}, fmt.Errorf("create member: %w", err)
	}
	return member, nil
}

func (s *MemberService) Get(ctx context.Context, id string) (models.Member, error) {
	var member models.Member
	if err := s.DB.WithContext(ctx).Preload("UnlockedBadges").First(&member, "id = ?", id).Error; err != nil {
		return models.Member{}, fmt.Errorf("load member %s: %w", id, err)
	}
	return member, nil
}

// Search matches active members by display name or email.
func (s *MemberService) Search(ctx context.Context, query string, limit int) ([]MemberSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var members []models.Member
	db := s.DB.WithContext(ctx).Model(&models.Member{}).
		Where("is_active = ?", true).
		Order("display_name ASC").
		Limit(limit)

	if query != "" {
		searchTerm := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		db = db.Where("LOWER(display_name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}

	if err := db.Find(&members).Error; err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	res := make([]MemberSummary, len(members))
	for i, m := range members {
		res[i] = MemberSummary{
			ID:         m.ID,
			Name:       m.DisplayName,
			Faculty:    m.Faculty,
			AvatarURL:  m.AvatarURL,
			TotalScore: m.TotalScore,
		}
	}
	return res, nil
}
