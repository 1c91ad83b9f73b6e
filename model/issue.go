package model

import (
	"time"

	"gorm.io/gorm"
)

// IssueStatus represents the resolution state of a reported issue.
type IssueStatus string

const (
	IssueOpen       IssueStatus = "OPEN"
	IssueInProgress IssueStatus = "IN_PROGRESS"
	IssueResolved   IssueStatus = "RESOLVED"
)

// IsValid reports whether s is a known issue status.
func (s IssueStatus) IsValid() bool {
	switch s {
	case IssueOpen, IssueInProgress, IssueResolved:
		return true
	}
	return false
}

// IssuePriority represents the urgency of an issue.
type IssuePriority string

const (
	PriorityLow    IssuePriority = "LOW"
	PriorityMedium IssuePriority = "MEDIUM"
	PriorityHigh   IssuePriority = "HIGH"
)

// IsValid reports whether p is a known priority.
func (p IssuePriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Issue is an institute-scoped problem report. Status and priority are
// mutable only by FACULTY/STAFF.
type Issue struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	InstituteID uint           `gorm:"index;not null" json:"institute_id"`
	CreatedByID uint           `gorm:"index;not null" json:"created_by_id"`
	Title       string         `gorm:"not null;type:varchar(200)" json:"title"`
	Description string         `gorm:"not null;type:text" json:"description"`
	Category    string         `gorm:"not null;type:varchar(100)" json:"category"` // wifi/hostel/mess/lab etc.
	Status      IssueStatus    `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`
	Priority    IssuePriority  `gorm:"type:varchar(20);not null;default:'MEDIUM'" json:"priority"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Institute Institute `gorm:"foreignKey:InstituteID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedBy User      `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE" json:"-"`
}

// IssueResponse is the API projection of an issue with its creator embedded.
type IssueResponse struct {
	ID          uint          `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	Status      IssueStatus   `json:"status"`
	Priority    IssuePriority `json:"priority"`
	CreatedBy   UserMini      `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ToResponse converts an Issue to its API representation. CreatedBy must
// be preloaded.
func (i *Issue) ToResponse() IssueResponse {
	return IssueResponse{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Category:    i.Category,
		Status:      i.Status,
		Priority:    i.Priority,
		CreatedBy:   i.CreatedBy.ToMini(),
		CreatedAt:   i.CreatedAt,
	}
}
