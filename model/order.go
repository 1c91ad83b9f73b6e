package model

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the lifecycle state of a buy request.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderAccepted  OrderStatus = "ACCEPTED"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderRejected  OrderStatus = "REJECTED"
)

// IsTerminal reports whether no transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderCompleted, OrderCancelled, OrderRejected:
		return true
	}
	return false
}

// Order is a buy request on a listing. The seller is fixed from the
// listing owner at creation, and the institute is copied from the
// listing rather than re-derived from the buyer. Orders are never
// deleted; they only move along the lifecycle edges.
type Order struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	InstituteID uint           `gorm:"index;not null" json:"institute_id"`
	ListingID   uint           `gorm:"index;not null;uniqueIndex:idx_orders_one_pending,where:status = 'PENDING'" json:"listing_id"`
	BuyerID     uint           `gorm:"index;not null;uniqueIndex:idx_orders_one_pending,where:status = 'PENDING'" json:"buyer_id"`
	SellerID    uint           `gorm:"index;not null" json:"seller_id"`
	Status      OrderStatus    `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Institute Institute `gorm:"foreignKey:InstituteID;constraint:OnDelete:CASCADE" json:"-"`
	Listing   Listing   `gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE" json:"-"`
	Buyer     User      `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"-"`
	Seller    User      `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE" json:"-"`
}

// OrderResponse is the API projection of an order with the listing and
// both parties embedded.
type OrderResponse struct {
	ID             uint            `json:"id"`
	Listing        ListingResponse `json:"listing"`
	ListingTitle   string          `json:"listing_title"`
	Buyer          UserMini        `json:"buyer"`
	BuyerUsername  string          `json:"buyer_username"`
	Seller         UserMini        `json:"seller"`
	SellerUsername string          `json:"seller_username"`
	Status         OrderStatus     `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToResponse converts an Order to its API representation. Listing (with
// its own associations), Buyer and Seller must be preloaded.
func (o *Order) ToResponse() OrderResponse {
	return OrderResponse{
		ID:             o.ID,
		Listing:        o.Listing.ToResponse(),
		ListingTitle:   o.Listing.Title,
		Buyer:          o.Buyer.ToMini(),
		BuyerUsername:  o.Buyer.Username,
		Seller:         o.Seller.ToMini(),
		SellerUsername: o.Seller.Username,
		Status:         o.Status,
		CreatedAt:      o.CreatedAt,
	}
}
