package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"esg-engagement/models"
)

var (
	ErrItemUnavailable     = errors.New("shop item is not available")
	ErrInsufficientBalance = errors.New("not enough points")
)

// ShopService redeems points for shop items. Redemptions never touch a
// member's scores; the spendable balance is the total score minus everything
// already spent.
type ShopService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewShopService(db *gorm.DB) *ShopService {
	return &ShopService{DB: db, Now: time.Now}
}

// ListItems returns the items currently on offer, cheapest first.
func (s *ShopService) ListItems(ctx context.Context) ([]models.ShopItem, error) {
	var items []models.ShopItem
	err := s.DB.WithContext(ctx).
		Where("is_available = ?", true).
		Where("valid_until IS NULL OR valid_until > ?", s.Now()).
		Order("cost ASC").
		Find(&items).Error
	return items, err
}

// Balance returns the member's spendable points.
func (s *ShopService) Balance(ctx context.Context, member models.Member) (int64, error) {
	return spendable(s.DB.WithContext(ctx), member)
}

func spendable(db *gorm.DB, member models.Member) (int64, error) {
	var spent int64
	if err := db.Model(&models.Redemption{}).
		Where("member_id = ?", member.ID).
		Select("COALESCE(SUM(points_spent), 0)").
		Scan(&spent).Error; err != nil {
		return 0, fmt.Errorf("sum redemptions: %w", err)
	}
	return member.TotalScore - spent, nil
}

// Purchase redeems itemID for memberID and returns the remaining balance.
func (s *ShopService) Purchase(ctx context.Context, memberID, itemID string) (models.Redemption, int64, error) {
	var (
		redemption models.Redemption
		remaining  int64
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.ShopItem
		if err := forUpdate(tx).First(&item, "id = ?", itemID).Error; err != nil {
			return fmt.Errorf("load shop item %s: %w", itemID, err)
		}
		var member models.Member
		if err := forUpdate(tx).First(&member, "id = ?", memberID).Error; err != nil {
			return fmt.Errorf("load member %s: %w", memberID, err)
		}
		balance, err := spendable(tx, member)
		if err != nil {
			return err
		}

		now := s.Now()
		if !item.CanPurchase(balance, now) {
			if item.Cost > balance {
				return fmt.Errorf("%w: %s costs %d, balance %d", ErrInsufficientBalance, item.Title, item.Cost, balance)
			}
			return fmt.Errorf("%w: %s", ErrItemUnavailable, item.Title)
		}

		if item.StockAvailable != nil {
			if err := tx.Model(&item).Update("stock_available", gorm.Expr("stock_available - 1")).Error; err != nil {
				return fmt.Errorf("update stock: %w", err)
			}
		}

		redemption = models.Redemption{
			ID:          uuid.NewString(),
			MemberID:    member.ID,
			ShopItemID:  item.ID,
			PointsSpent: item.Cost,
			RedeemedAt:  now.UTC(),
		}
		if err := tx.Create(&redemption).Error; err != nil {
			return fmt.Errorf("create redemption: %w", err)
		}
		remaining = balance - item.Cost
		log.Printf("🛍️ [SHOP] %s redeemed %q for %d pts (balance %d)", member.ID, item.Title, item.Cost, remaining)
		return nil
	})
	if err != nil {
		return models.Redemption{}, 0, err
	}
	return redemption, remaining, nil
}
