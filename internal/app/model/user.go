package model

import (
	"strings"
	"time"
)

// PlaceholderExternalIDPrefix marks accounts seeded before their owner ever signed in
const PlaceholderExternalIDPrefix = "bootstrap:"

type UserRole string // account role

const (
	RoleCustomer UserRole = "customer" // default role on first sign-in
	RoleRetailer UserRole = "retailer" // granted when one of the user's shops is verified
	RoleAdmin    UserRole = "admin"    // verifies shops, moderates users
)

// Valid reports whether r is a declared role
func (r UserRole) Valid() bool {
	switch r {
	case RoleCustomer, RoleRetailer, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID               uint       `gorm:"primarykey" json:"id"`                                // user ID
	ExternalID       string     `gorm:"size:128;uniqueIndex;not null" json:"external_id"`    // identity provider uid
	Email            string     `gorm:"size:255;uniqueIndex;not null" json:"email"`          // email
	DisplayName      string     `gorm:"size:100" json:"display_name"`                        // display name
	Phone            string     `gorm:"size:30" json:"phone"`                                // phone number
	PhotoURL         string     `gorm:"type:text" json:"photo_url"`                          // avatar
	Role             UserRole   `gorm:"type:varchar(20);not null;index" json:"role"`         // role
	IsActive         bool       `gorm:"not null;index" json:"is_active"`                     // false when deactivated by an admin
	PrimaryAddressID *uint      `gorm:"index" json:"primary_address_id"`                     // mirrors the default address
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`                             // last resolved sign-in
	CreatedAt        time.Time  `json:"created_at"`                                          // created at
	UpdatedAt        time.Time  `json:"updated_at"`                                          // updated at

	Addresses []Address `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"addresses,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// HasRole reports whether the user's role is one of roles
func (u *User) HasRole(roles ...UserRole) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

// HasPlaceholderIdentity reports whether the account still waits for its first sign-in
func (u *User) HasPlaceholderIdentity() bool {
	return u.ExternalID == "" || strings.HasPrefix(u.ExternalID, PlaceholderExternalIDPrefix)
}
