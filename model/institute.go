package model

import (
	"time"

	"gorm.io/gorm"
)

// Institute is the tenant boundary. Every marketplace and issue row
// hangs off exactly one institute, and queries never cross it.
type Institute struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"uniqueIndex;not null;type:varchar(255)" json:"name"`
	Code      string         `gorm:"uniqueIndex;not null;type:varchar(50)" json:"code"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// InstituteResponse is the API projection of an institute.
type InstituteResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// ToResponse converts an Institute to its API representation
func (i *Institute) ToResponse() InstituteResponse {
	return InstituteResponse{
		ID:   i.ID,
		Name: i.Name,
		Code: i.Code,
	}
}
