package model

import "time"

// Review is a customer's rating of a shop. One per user per shop.
type Review struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ShopID    uint      `gorm:"not null;uniqueIndex:idx_reviews_shop_user,priority:1" json:"shop_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reviews_shop_user,priority:2;index" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"` // 1..5
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (Review) TableName() string {
	return "reviews"
}
