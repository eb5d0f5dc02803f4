package model

import (
	"math"
	"time"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

type Coupon struct {
	ID             uint         `gorm:"primarykey" json:"id"`
	Code           string       `gorm:"size:50;uniqueIndex;not null" json:"code"` // stored uppercase
	Description    string       `gorm:"type:text" json:"description"`
	DiscountType   DiscountType `gorm:"type:varchar(20);not null" json:"discount_type"`
	Value          float64      `gorm:"not null" json:"value"`                       // percent or flat amount
	MaxDiscount    float64      `gorm:"not null;default:0" json:"max_discount"`      // 0 = uncapped
	MinOrderAmount float64      `gorm:"not null;default:0" json:"min_order_amount"`
	UsageLimit     int          `gorm:"not null;default:0" json:"usage_limit"`       // 0 = unlimited
	UsedCount      int          `gorm:"not null;default:0" json:"used_count"`
	ValidFrom      *time.Time   `json:"valid_from,omitempty"`
	ValidUntil     *time.Time   `json:"valid_until,omitempty"`
	IsActive       bool         `gorm:"not null;default:false" json:"is_active"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupons"
}

// UsableAt reports whether the coupon can be redeemed at now
func (c *Coupon) UsableAt(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	return c.UsageLimit == 0 || c.UsedCount < c.UsageLimit
}

// DiscountFor computes the discount for an order amount. It never exceeds amount.
func (c *Coupon) DiscountFor(amount float64) float64 {
	if amount < c.MinOrderAmount {
		return 0
	}
	var discount float64
	switch c.DiscountType {
	case DiscountPercentage:
		discount = amount * c.Value / 100
	case DiscountFlat:
		discount = c.Value
	}
	if c.MaxDiscount > 0 {
		discount = math.Min(discount, c.MaxDiscount)
	}
	return RoundMoney(math.Min(discount, amount))
}
