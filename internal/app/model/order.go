package model

import (
	"time"

	"gorm.io/datatypes"
)

type OrderStatus string   // order lifecycle state
type PaymentStatus string // payment state
type PaymentMethod string // how the order is paid

const (
	OrderStatusPending        OrderStatus = "pending"          // placed, awaiting payment or shop action
	OrderStatusProcessing     OrderStatus = "processing"       // paid or accepted, being prepared
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup" // waiting at the shop
	OrderStatusCompleted      OrderStatus = "completed"        // handed over
	OrderStatusCanceled       OrderStatus = "canceled"         // terminal alternate
	OrderStatusRefunded       OrderStatus = "refunded"         // terminal alternate

	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"

	PaymentMethodOnline       PaymentMethod = "online"         // Razorpay checkout
	PaymentMethodCashOnPickup PaymentMethod = "cash_on_pickup" // paid at the counter
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusProcessing, OrderStatusCanceled, OrderStatusRefunded},
	OrderStatusProcessing:     {OrderStatusReadyForPickup, OrderStatusCanceled, OrderStatusRefunded},
	OrderStatusReadyForPickup: {OrderStatusCompleted, OrderStatusCanceled, OrderStatusRefunded},
}

// Valid reports whether s is a declared order status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusReadyForPickup,
		OrderStatusCompleted, OrderStatusCanceled, OrderStatusRefunded:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition leaves s
func (s OrderStatus) IsTerminal() bool {
	_, ok := orderTransitions[s]
	return !ok
}

// CanTransitionTo reports whether next is reachable from s in one step
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether m is a declared payment method
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodOnline || m == PaymentMethodCashOnPickup
}

type Order struct {
	ID             uint          `gorm:"primarykey" json:"id"`                                           // order ID
	OrderNumber    string        `gorm:"size:32;uniqueIndex;not null" json:"order_number"`               // LL-YYYYMMDD-NNNNN
	UserID         uint          `gorm:"not null;index" json:"user_id"`                                  // customer
	Status         OrderStatus   `gorm:"column:order_status;type:varchar(30);not null;index" json:"order_status"`
	PaymentStatus  PaymentStatus `gorm:"type:varchar(20);not null" json:"payment_status"`
	PaymentMethod  PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	Currency       string        `gorm:"size:3;not null" json:"currency"`
	Subtotal       float64       `gorm:"not null" json:"subtotal"`        // sum of discounted unit prices x quantity
	TaxAmount      float64       `gorm:"not null" json:"tax_amount"`      // sum of item taxes
	DiscountAmount float64       `gorm:"not null" json:"discount_amount"` // coupon discount
	TotalAmount    float64       `gorm:"not null" json:"total_amount"`    // charged amount
	CouponCode     string        `gorm:"size:50" json:"coupon_code,omitempty"`
	Notes          string        `gorm:"type:text" json:"notes,omitempty"`

	ShippingAddress datatypes.JSONType[*AddressSnapshot] `json:"shipping_address"`

	// Payment gateway metadata
	GatewayOrderID string     `gorm:"size:64;index" json:"gateway_order_id,omitempty"`
	PaymentID      string     `gorm:"size:64" json:"payment_id,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`

	Items         []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	StatusUpdates []OrderStatusUpdate `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"status_updates"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// ShopIDs returns the distinct shops referenced by the line items
func (o *Order) ShopIDs() []uint {
	seen := make(map[uint]struct{}, len(o.Items))
	ids := make([]uint, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.ShopID]; ok {
			continue
		}
		seen[item.ShopID] = struct{}{}
		ids = append(ids, item.ShopID)
	}
	return ids
}

// OrderItem is a line item. Product and shop fields are a snapshot taken at purchase time
// and are never re-read from the live records.
type OrderItem struct {
	ID                uint                                 `gorm:"primarykey" json:"id"`
	OrderID           uint                                 `gorm:"not null;index" json:"order_id"`
	ProductID         uint                                 `gorm:"not null;index" json:"product_id"`
	VariantID         *uint                                `json:"variant_id,omitempty"`
	ShopID            uint                                 `gorm:"not null;index" json:"shop_id"`
	ShopName          string                               `gorm:"size:200" json:"shop_name"`
	ProductName       string                               `gorm:"size:200;not null" json:"product_name"`
	ImageURL          string                               `gorm:"type:text" json:"image_url,omitempty"`
	SKU               string                               `gorm:"size:100" json:"sku,omitempty"`
	VariantAttributes datatypes.JSONType[map[string]string] `json:"variant_attributes"`
	UnitPrice         float64                              `gorm:"not null" json:"unit_price"` // discounted, before tax
	TaxAmount         float64                              `gorm:"not null" json:"tax_amount"` // tax for the whole line
	Quantity          int                                  `gorm:"not null" json:"quantity"`
	Subtotal          float64                              `gorm:"not null" json:"subtotal"` // unit x quantity + tax
	CreatedAt         time.Time                            `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// OrderStatusUpdate is one append-only history entry
type OrderStatusUpdate struct {
	ID        uint        `gorm:"primarykey" json:"id"`
	OrderID   uint        `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"type:varchar(30);not null" json:"status"`
	Note      string      `gorm:"type:text" json:"note"`
	UpdatedBy *uint       `json:"updated_by,omitempty"` // nil for system entries
	CreatedAt time.Time   `json:"created_at"`
}

func (OrderStatusUpdate) TableName() string {
	return "order_status_updates"
}
