package model

import (
	"time"

	"gorm.io/datatypes"
)

type ReservationStatus string // pickup reservation state

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationReady     ReservationStatus = "ready"
	ReservationCompleted ReservationStatus = "completed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationExpired   ReservationStatus = "expired"
)

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled, ReservationExpired},
	ReservationConfirmed: {ReservationReady, ReservationCancelled, ReservationExpired},
	ReservationReady:     {ReservationCompleted, ReservationCancelled, ReservationExpired},
}

// OpenReservationStatuses are the states the expiry sweep considers
var OpenReservationStatuses = []ReservationStatus{ReservationPending, ReservationConfirmed, ReservationReady}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationReady,
		ReservationCompleted, ReservationCancelled, ReservationExpired:
		return true
	}
	return false
}

func (s ReservationStatus) IsTerminal() bool {
	_, ok := reservationTransitions[s]
	return !ok
}

func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TimeSlot is a pickup window on the pickup date, "HH:MM" local shop time
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type Reservation struct {
	ID                uint              `gorm:"primarykey" json:"id"`
	ReservationNumber string            `gorm:"size:32;uniqueIndex;not null" json:"reservation_number"` // RS-YYYYMMDD-NNNNN
	UserID            uint              `gorm:"not null;index" json:"user_id"`
	ShopID            uint              `gorm:"not null;index" json:"shop_id"`
	ShopName          string            `gorm:"size:200" json:"shop_name"` // snapshot
	Status            ReservationStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	PickupDate     time.Time                    `gorm:"not null" json:"pickup_date"`
	PickupTimeSlot datatypes.JSONType[TimeSlot] `json:"pickup_time_slot"`
	ExpiryDate     time.Time                    `gorm:"not null;index" json:"expiry_date"`

	TotalAmount float64 `gorm:"not null" json:"total_amount"`
	Notes       string  `gorm:"type:text" json:"notes,omitempty"`

	Items         []ReservationItem         `gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE" json:"items"`
	StatusUpdates []ReservationStatusUpdate `gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE" json:"status_updates"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Reservation) TableName() string {
	return "reservations"
}

// ReservationItem snapshots the reserved product at creation time
type ReservationItem struct {
	ID                uint                                 `gorm:"primarykey" json:"id"`
	ReservationID     uint                                 `gorm:"not null;index" json:"reservation_id"`
	ProductID         uint                                 `gorm:"not null;index" json:"product_id"`
	VariantID         *uint                                `json:"variant_id,omitempty"`
	ProductName       string                               `gorm:"size:200;not null" json:"product_name"`
	ImageURL          string                               `gorm:"type:text" json:"image_url,omitempty"`
	VariantAttributes datatypes.JSONType[map[string]string] `json:"variant_attributes"`
	UnitPrice         float64                              `gorm:"not null" json:"unit_price"`
	Quantity          int                                  `gorm:"not null" json:"quantity"`
	Subtotal          float64                              `gorm:"not null" json:"subtotal"`
	CreatedAt         time.Time                            `json:"created_at"`
}

func (ReservationItem) TableName() string {
	return "reservation_items"
}

type ReservationStatusUpdate struct {
	ID            uint              `gorm:"primarykey" json:"id"`
	ReservationID uint              `gorm:"not null;index" json:"reservation_id"`
	Status        ReservationStatus `gorm:"type:varchar(20);not null" json:"status"`
	Note          string            `gorm:"type:text" json:"note"`
	UpdatedBy     *uint             `json:"updated_by,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

func (ReservationStatusUpdate) TableName() string {
	return "reservation_status_updates"
}
