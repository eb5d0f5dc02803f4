package model

import (
	"math"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProductImage is a stored media reference. StorageID is kept for cleanup on delete.
type ProductImage struct {
	URL       string `json:"url"`
	StorageID string `json:"storage_id"`
}

// PurchaseOption configures pre-booking or pre-buying of a product that is not yet in stock
type PurchaseOption struct {
	Enabled       bool       `json:"enabled"`
	MinQuantity   int        `json:"min_quantity,omitempty"`
	MaxQuantity   int        `json:"max_quantity,omitempty"`
	AvailableFrom *time.Time `json:"available_from,omitempty"`
	Note          string     `json:"note,omitempty"`
}

type Product struct {
	ID                 uint    `gorm:"primarykey" json:"id"`                      // product ID
	ShopID             uint    `gorm:"not null;index" json:"shop_id"`             // owning shop
	Name               string  `gorm:"size:200;not null;index" json:"name"`       // product name
	Description        string  `gorm:"type:text" json:"description"`              // description
	Category           string  `gorm:"size:100;index" json:"category"`            // category
	SKU                string  `gorm:"size:100" json:"sku"`                       // stock keeping unit
	BasePrice          float64 `gorm:"not null" json:"base_price"`                // list price
	DiscountPercentage float64 `gorm:"not null;default:0" json:"discount_percentage"` // 0..100
	Tax                float64 `gorm:"not null;default:0" json:"tax"`             // tax percentage on the discounted price
	AvailableQuantity  int     `gorm:"not null;default:0" json:"available_quantity"`
	IsActive           bool    `gorm:"not null;default:false;index" json:"is_active"`
	IsAvailable        bool    `gorm:"not null;default:false" json:"is_available"`
	HasVariants        bool    `gorm:"not null;default:false" json:"has_variants"`

	Variants []ProductVariant                 `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	PreBook  datatypes.JSONType[PurchaseOption] `json:"pre_book"`
	PreBuy   datatypes.JSONType[PurchaseOption] `json:"pre_buy"`
	Images   datatypes.JSONSlice[ProductImage]  `json:"images"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// FinalPrice is the base price after discount, rounded to paise
func (p Product) FinalPrice() float64 {
	return ApplyDiscount(p.BasePrice, p.DiscountPercentage)
}

// Variant returns the variant with id, or nil
func (p Product) Variant(id uint) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// PrimaryImageURL returns the first image URL or ""
func (p Product) PrimaryImageURL() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].URL
}

// ProductVariant is one purchasable attribute combination of a product
type ProductVariant struct {
	ID           uint                                 `gorm:"primarykey" json:"id"`
	ProductID    uint                                 `gorm:"not null;uniqueIndex:idx_product_variant_attrs,priority:1" json:"product_id"`
	AttributeKey string                               `gorm:"size:500;not null;uniqueIndex:idx_product_variant_attrs,priority:2" json:"-"`
	Attributes   datatypes.JSONType[map[string]string] `json:"attributes"`
	Price        float64                              `gorm:"not null" json:"price"`
	Quantity     int                                  `gorm:"not null;default:0" json:"quantity"`
	SKU          string                               `gorm:"size:100" json:"sku"`
	CreatedAt    time.Time                            `json:"created_at"`
	UpdatedAt    time.Time                            `json:"updated_at"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

// BeforeSave keeps AttributeKey in sync with Attributes
func (v *ProductVariant) BeforeSave(tx *gorm.DB) error {
	v.AttributeKey = AttributeKey(v.Attributes.Data())
	return nil
}

// AttributeKey renders an attribute map canonically so equal sets produce equal keys
func AttributeKey(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, strings.ToLower(strings.TrimSpace(k)))
	}
	sort.Strings(keys)

	normalized := make(map[string]string, len(attrs))
	for k, v := range attrs {
		normalized[strings.ToLower(strings.TrimSpace(k))] = strings.ToLower(strings.TrimSpace(v))
	}

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(normalized[k])
	}
	return b.String()
}

// ApplyDiscount returns price reduced by percent, rounded to two decimals
func ApplyDiscount(price, percent float64) float64 {
	if percent <= 0 {
		return RoundMoney(price)
	}
	if percent >= 100 {
		return 0
	}
	return RoundMoney(price * (1 - percent/100))
}

// RoundMoney rounds to two decimal places
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
