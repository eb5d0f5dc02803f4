package model

import "time"

type NotificationType string

const (
	NotificationOrderStatus       NotificationType = "order_status"
	NotificationPaymentReceived   NotificationType = "payment_received"
	NotificationReservationStatus NotificationType = "reservation_status"
	NotificationShopVerification  NotificationType = "shop_verification"
	NotificationNewOrder          NotificationType = "new_order"
	NotificationNewReservation    NotificationType = "new_reservation"
)

// Notification is an in-app message. It is persisted and pushed to live websocket sessions.
type Notification struct {
	ID        uint             `gorm:"primarykey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(50);not null;index" json:"type"`
	Title     string           `gorm:"size:200;not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Link      string           `gorm:"type:text" json:"link,omitempty"`
	IsRead    bool             `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	// related records (nullable)
	RelatedOrderID       *uint `gorm:"index" json:"related_order_id,omitempty"`
	RelatedReservationID *uint `gorm:"index" json:"related_reservation_id,omitempty"`
	RelatedShopID        *uint `gorm:"index" json:"related_shop_id,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}
