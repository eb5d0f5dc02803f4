package model

import "time"

type CartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	VariantID *uint     `gorm:"index" json:"variant_id,omitempty"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// UnitPrice is the current pre-tax price of one unit, using the variant price when one is selected.
// Product (and its variants) must be preloaded.
func (c CartItem) UnitPrice() float64 {
	if c.VariantID != nil {
		if v := c.Product.Variant(*c.VariantID); v != nil {
			return RoundMoney(v.Price)
		}
	}
	return c.Product.FinalPrice()
}
