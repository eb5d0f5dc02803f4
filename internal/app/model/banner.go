package model

import "time"

// Banner is a home-page promotion slot. Order drives display position.
type Banner struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Title     string    `gorm:"size:200;not null" json:"title"`
	ImageURL  string    `gorm:"type:text;not null" json:"image_url"`
	StorageID string    `gorm:"size:255" json:"storage_id,omitempty"`
	LinkURL   string    `gorm:"type:text" json:"link_url,omitempty"`
	Order     int       `gorm:"column:display_order;not null;index" json:"order"`
	IsActive  bool      `gorm:"not null;default:false" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Banner) TableName() string {
	return "banners"
}
