package model

import (
	"time"

	"github.com/paulmach/orb"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type VerificationStatus string // shop admission state

const (
	VerificationPending  VerificationStatus = "pending"  // awaiting admin review
	VerificationVerified VerificationStatus = "verified" // admitted to discovery
	VerificationRejected VerificationStatus = "rejected" // refused
)

// Valid reports whether s is a declared status
func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

// IsDecision reports whether s is an outcome an admin can decide
func (s VerificationStatus) IsDecision() bool {
	return s == VerificationVerified || s == VerificationRejected
}

// BusinessHours is one weekday's opening window
type BusinessHours struct {
	Day      int    `json:"day"`   // 0 = Sunday .. 6 = Saturday
	Open     string `json:"open"`  // "HH:MM"
	Close    string `json:"close"` // "HH:MM"
	IsClosed bool   `json:"is_closed"`
}

type Shop struct {
	ID          uint   `gorm:"primarykey" json:"id"`                  // shop ID
	OwnerID     uint   `gorm:"not null;index" json:"owner_id"`        // owning user
	Name        string `gorm:"size:200;not null;index" json:"name"`   // display name
	Description string `gorm:"type:text" json:"description"`          // free text, searchable
	Phone       string `gorm:"size:30" json:"phone"`                  // contact phone
	Email       string `gorm:"size:255" json:"email"`                 // contact email
	Address     string `gorm:"type:text" json:"address"`              // street address
	City        string `gorm:"size:100;index" json:"city"`            // city
	State       string `gorm:"size:100" json:"state"`                 // state
	PostalCode  string `gorm:"size:20" json:"postal_code"`            // PIN / ZIP

	Latitude  float64 `gorm:"not null;index:idx_shops_location,priority:1" json:"latitude"`  // WGS84
	Longitude float64 `gorm:"not null;index:idx_shops_location,priority:2" json:"longitude"` // WGS84

	Categories    StringArray `gorm:"type:text" json:"categories"` // lowercase category names
	LogoURL       string      `gorm:"type:text" json:"logo_url"`
	CoverImageURL string      `gorm:"type:text" json:"cover_image_url"`

	// Verification
	VerificationStatus   VerificationStatus `gorm:"type:varchar(20);not null;index" json:"verification_status"`
	IsVerified           bool               `gorm:"not null;default:false;index" json:"is_verified"` // mirrors VerificationStatus == verified
	VerificationDocument string             `gorm:"type:text" json:"verification_document"`          // uploaded proof URL
	VerificationDate     *time.Time         `json:"verification_date,omitempty"`
	VerificationNote     string             `gorm:"type:text" json:"verification_note,omitempty"`

	IsActive      bool                                `gorm:"not null;default:false;index" json:"is_active"`
	BusinessHours datatypes.JSONSlice[BusinessHours] `json:"business_hours"`
	Rating        float64                             `gorm:"not null;default:0" json:"rating"`       // average review rating
	ReviewCount   int                                 `gorm:"not null;default:0" json:"review_count"` // number of reviews

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Shop) TableName() string {
	return "shops"
}

// Location returns the shop point in lon/lat order
func (s Shop) Location() orb.Point {
	return orb.Point{s.Longitude, s.Latitude}
}

// ValidCoordinates reports whether lat/lng are inside WGS84 ranges
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
