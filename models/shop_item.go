package models

import (
	"fmt"
	"strings"
	"time"

	gorm "gorm.io/gorm"
)

// ShopItemCategory groups items in the points shop
type ShopItemCategory string

const (
	ShopCategoryMerchandise ShopItemCategory = "Merchandise"
	ShopCategoryDiscounts   ShopItemCategory = "Discounts"
	ShopCategoryPrivileges  ShopItemCategory = "Privileges"
	ShopCategoryExperiences ShopItemCategory = "Experiences"
)

var shopCategories = []ShopItemCategory{
	ShopCategoryMerchandise, ShopCategoryDiscounts, ShopCategoryPrivileges, ShopCategoryExperiences,
}

// ParseShopItemCategory matches s ignoring case.
func ParseShopItemCategory(s string) (ShopItemCategory, error) {
	want := folder.String(strings.TrimSpace(s))
	for _, c := range shopCategories {
		if folder.String(string(c)) == want {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown shop category %q", s)
}

// ShopItem is something members can redeem points for
type ShopItem struct {
	ID             string           `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Title          string           `gorm:"not null" json:"title"`
	Cost           int64            `gorm:"not null" json:"cost"` // ESG points
	Description    string           `gorm:"type:text" json:"description"`
	ImageURL       *string          `gorm:"type:text" json:"image_url,omitempty"`
	Category       ShopItemCategory `gorm:"type:varchar(16);not null" json:"category"`
	StockAvailable *int64           `json:"stock_available,omitempty"` // nil = unlimited
	IsAvailable    bool             `gorm:"default:true" json:"is_available"`
	ValidUntil     *time.Time       `json:"valid_until,omitempty"`
	Terms          *string          `gorm:"type:text" json:"terms_and_conditions,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"-"`
}

// CanPurchase reports whether a member holding balance points may redeem the item at now.
func (s ShopItem) CanPurchase(balance int64, now time.Time) bool {
	if !s.IsAvailable || s.Cost > balance {
		return false
	}
	if s.StockAvailable != nil && *s.StockAvailable <= 0 {
		return false
	}
	if s.ValidUntil != nil && s.ValidUntil.Before(now) {
		return false
	}
	return true
}

// Redemption records points spent on a shop item. Scores are never reduced;
// the spendable balance is total score minus all redemptions.
type Redemption struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	MemberID    string    `gorm:"index;not null" json:"user_id"`
	ShopItemID  string    `gorm:"index;not null" json:"item_id"`
	PointsSpent int64     `gorm:"not null" json:"points_spent"`
	RedeemedAt  time.Time `gorm:"not null" json:"redeemed_at"`
}
