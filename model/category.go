package model

import (
	"time"

	"gorm.io/gorm"
)

// Category groups listings within a single institute. Names are unique
// per institute, not globally.
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	InstituteID uint           `gorm:"not null;uniqueIndex:idx_category_institute_name,priority:1" json:"institute_id"`
	Name        string         `gorm:"not null;type:varchar(100);uniqueIndex:idx_category_institute_name,priority:2" json:"name"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Institute Institute `gorm:"foreignKey:InstituteID;constraint:OnDelete:CASCADE" json:"-"`
	Listings  []Listing `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"-"`
}

// CategoryResponse is the API projection of a category.
type CategoryResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// ToResponse converts a Category to its API representation
func (c *Category) ToResponse() CategoryResponse {
	return CategoryResponse{
		ID:   c.ID,
		Name: c.Name,
	}
}
