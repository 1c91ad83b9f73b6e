package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notification is an append-only event log entry for a single recipient.
// Title and message are immutable once created; only the read flag moves.
type Notification struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	InstituteID uint           `gorm:"index;not null" json:"institute_id"`
	UserID      uint           `gorm:"index;not null" json:"user_id"`
	Title       string         `gorm:"not null;type:varchar(200)" json:"title"`
	Message     string         `gorm:"not null;type:text" json:"message"`
	IsRead      bool           `gorm:"default:false" json:"is_read"`
	Metadata    datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"` // additional context (order/listing/issue ids)
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Institute Institute `gorm:"foreignKey:InstituteID;constraint:OnDelete:CASCADE" json:"-"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// NotificationMetadata holds structured context for a notification.
type NotificationMetadata struct {
	OrderID   uint `json:"order_id,omitempty"`
	ListingID uint `json:"listing_id,omitempty"`
	IssueID   uint `json:"issue_id,omitempty"`
}

// NotificationResponse is the API projection of a notification.
type NotificationResponse struct {
	ID        uint           `json:"id"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	IsRead    bool           `json:"is_read"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ToResponse converts a Notification to its API representation
func (n *Notification) ToResponse() NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		Metadata:  n.Metadata,
		CreatedAt: n.CreatedAt,
	}
}
