package model

import (
	"time"

	"gorm.io/gorm"
)

// ListingStatus represents the sale state of a listing.
type ListingStatus string

const (
	ListingAvailable ListingStatus = "AVAILABLE"
	ListingSold      ListingStatus = "SOLD"
)

// Listing is a sellable item owned by one user and scoped to one
// institute. It flips to SOLD only when an order on it completes.
type Listing struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	InstituteID uint           `gorm:"index;not null" json:"institute_id"`
	OwnerID     uint           `gorm:"index;not null" json:"owner_id"`
	CategoryID  *uint          `gorm:"index" json:"category_id,omitempty"` // nullable, survives category deletion
	Title       string         `gorm:"not null;type:varchar(200)" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int            `gorm:"not null" json:"price"`
	Status      ListingStatus  `gorm:"type:varchar(20);not null;default:'AVAILABLE'" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Institute Institute      `gorm:"foreignKey:InstituteID;constraint:OnDelete:CASCADE" json:"-"`
	Owner     User           `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	Category  *Category      `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"-"`
	Images    []ListingImage `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"-"`
}

// ListingImage stores the object-storage URL of one uploaded image.
type ListingImage struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ListingID uint           `gorm:"index;not null" json:"listing_id"`
	URL       string         `gorm:"not null;type:text" json:"image"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Listing Listing `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"-"`
}

// ListingImageResponse is the API projection of a listing image.
type ListingImageResponse struct {
	ID        uint      `json:"id"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts a ListingImage to its API representation
func (li *ListingImage) ToResponse() ListingImageResponse {
	return ListingImageResponse{
		ID:        li.ID,
		Image:     li.URL,
		CreatedAt: li.CreatedAt,
	}
}

// ListingResponse is the API projection of a listing with its owner,
// category and images embedded.
type ListingResponse struct {
	ID          uint                   `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Price       int                    `json:"price"`
	Status      ListingStatus          `json:"status"`
	Category    *CategoryResponse      `json:"category"`
	Owner       UserMini               `json:"owner"`
	Images      []ListingImageResponse `json:"images"`
	CreatedAt   time.Time              `json:"created_at"`
}

// ToResponse converts a Listing to its API representation. Owner,
// Category and Images must be preloaded by the caller.
func (l *Listing) ToResponse() ListingResponse {
	res := ListingResponse{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Status:      l.Status,
		Owner:       l.Owner.ToMini(),
		Images:      make([]ListingImageResponse, 0, len(l.Images)),
		CreatedAt:   l.CreatedAt,
	}
	if l.Category != nil {
		cat := l.Category.ToResponse()
		res.Category = &cat
	}
	for i := range l.Images {
		res.Images = append(res.Images, l.Images[i].ToResponse())
	}
	return res
}
