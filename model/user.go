package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account. Tenant and role bindings live on
// the Profile relation, not here.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Username     string         `gorm:"uniqueIndex;not null;type:varchar(150)" json:"username"`
	Email        string         `gorm:"type:varchar(254)" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`  // Never expose password in JSON
	TokenVersion int            `gorm:"default:0" json:"-"` // Increment to invalidate all user tokens

	// Relationships
	Profile        *Profile            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile,omitempty"`
	TokenBlacklist []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserMini is the compact user projection embedded in other resources.
type UserMini struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// ToMini converts a User to its compact representation
func (u *User) ToMini() UserMini {
	return UserMini{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	}
}
