package model

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Address struct {
	ID         uint           `gorm:"primaryKey" json:"id"`                  // address ID
	UserID     uint           `gorm:"not null;index" json:"user_id"`         // owner
	Label      string         `gorm:"size:50" json:"label"`                  // e.g. "Home", "Work"
	Recipient  string         `gorm:"size:100;not null" json:"recipient"`    // recipient name
	Phone      string         `gorm:"size:30;not null" json:"phone"`         // contact phone
	Line1      string         `gorm:"type:text;not null" json:"line1"`       // street
	Line2      string         `gorm:"type:text" json:"line2"`                // apartment, landmark
	City       string         `gorm:"size:100;not null" json:"city"`         // city
	State      string         `gorm:"size:100" json:"state"`                 // state
	PostalCode string         `gorm:"size:20" json:"postal_code"`            // PIN / ZIP
	Country    string         `gorm:"size:60" json:"country"`                // country
	Latitude   *float64       `json:"latitude,omitempty"`                    // optional geocode
	Longitude  *float64       `json:"longitude,omitempty"`                   // optional geocode
	IsDefault  bool           `gorm:"not null;default:false" json:"is_default"` // single default per user
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Address) TableName() string {
	return "addresses"
}

// AddressSnapshot is the frozen copy of an address stored on an order
type AddressSnapshot struct {
	Recipient  string `json:"recipient"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
}

// Snapshot copies the deliverable fields of a
func (a Address) Snapshot() *AddressSnapshot {
	return &AddressSnapshot{
		Recipient:  a.Recipient,
		Phone:      a.Phone,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

// OneLine renders the snapshot for notifications and exports
func (s AddressSnapshot) OneLine() string {
	parts := []string{s.Line1, s.Line2, s.City, s.State, s.PostalCode, s.Country}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
