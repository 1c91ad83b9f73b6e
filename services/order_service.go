package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/permission"
	"gorm.io/gorm"
)

// Actor is the acting identity, resolved by the auth middleware and
// passed explicitly into every lifecycle operation.
type Actor struct {
	UserID      uint
	Username    string
	InstituteID uint
	Role        model.Role
}

// OrderService drives the order lifecycle state machine:
// PENDING -> ACCEPTED | CANCELLED | REJECTED, ACCEPTED -> COMPLETED.
// Every transition runs as one transaction with a status-guarded update,
// so concurrent callers race safely and the loser sees ErrWrongState.
// The counterpart (never the actor) is notified inside the same
// transaction.
type OrderService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewOrderService creates a new order service
func NewOrderService(db *gorm.DB, notifications *NotificationService) *OrderService {
	return &OrderService{
		db:            db,
		notifications: notifications,
	}
}

// orderPreloads loads everything an order response embeds.
func orderPreloads(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Listing").
		Preload("Listing.Owner").
		Preload("Listing.Category").
		Preload("Listing.Images").
		Preload("Buyer").
		Preload("Seller")
}

// List returns the actor's orders: institute-scoped and restricted to
// orders where the actor is buyer or seller, newest first.
func (s *OrderService) List(ctx context.Context, actor Actor, page, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	query := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("institute_id = ?", actor.InstituteID).
		Where("buyer_id = ? OR seller_id = ?", actor.UserID, actor.UserID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}

	err := orderPreloads(query).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch orders: %w", err)
	}

	return orders, total, nil
}

// Get returns one order visible to the actor. Orders outside the
// actor's institute report as not found; orders inside it are only
// visible to the two parties.
func (s *OrderService) Get(ctx context.Context, actor Actor, orderID uint) (*model.Order, error) {
	var order model.Order
	err := orderPreloads(s.db.WithContext(ctx)).
		Where("id = ? AND institute_id = ?", orderID, actor.InstituteID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sub := permission.Subject{UserID: actor.UserID, Role: actor.Role}
	res := permission.Resource{BuyerID: order.BuyerID, SellerID: order.SellerID}
	if !permission.Allowed(permission.OrderView, sub, res) {
		return nil, ErrForbidden
	}

	return &order, nil
}

// Create places a PENDING order on a listing and notifies the seller.
// The institute is copied from the listing, and the seller is fixed from
// the listing owner at this moment.
func (s *OrderService) Create(ctx context.Context, actor Actor, listingID uint) (*model.Order, error) {
	var created *model.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing model.Listing
		err := tx.Where("id = ? AND institute_id = ?", listingID, actor.InstituteID).
			First(&listing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if listing.OwnerID == actor.UserID {
			return ErrSelfPurchase
		}

		if listing.Status != model.ListingAvailable {
			return ErrListingUnavailable
		}

		var pending int64
		err = tx.Model(&model.Order{}).
			Where("listing_id = ? AND buyer_id = ? AND status = ?", listing.ID, actor.UserID, model.OrderPending).
			Count(&pending).Error
		if err != nil {
			return err
		}
		if pending > 0 {
			return ErrDuplicateRequest
		}

		order := &model.Order{
			InstituteID: listing.InstituteID,
			ListingID:   listing.ID,
			BuyerID:     actor.UserID,
			SellerID:    listing.OwnerID,
			Status:      model.OrderPending,
		}
		if err := tx.Create(order).Error; err != nil {
			// The partial unique index on (listing_id, buyer_id) for
			// PENDING rows catches the race two concurrent creates win
			// past the count above.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateRequest
			}
			return err
		}

		_, err = s.notifications.CreateTx(tx, CreateNotificationRequest{
			InstituteID: order.InstituteID,
			UserID:      order.SellerID,
			Title:       "New Order Request",
			Message:     fmt.Sprintf("%s requested to buy your item '%s'.", actor.Username, listing.Title),
			Metadata:    &model.NotificationMetadata{OrderID: order.ID, ListingID: listing.ID},
		})
		if err != nil {
			return err
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, created.ID)
}

// Accept moves a PENDING order to ACCEPTED. Seller only.
func (s *OrderService) Accept(ctx context.Context, actor Actor, orderID uint) (*model.Order, error) {
	return s.transition(ctx, actor, orderID, transition{
		action: permission.OrderAccept,
		from:   model.OrderPending,
		to:     model.OrderAccepted,
		notify: func(o *model.Order) (uint, string, string) {
			return o.BuyerID, "Order Accepted",
				fmt.Sprintf("Your request for '%s' was accepted by %s.", o.Listing.Title, actor.Username)
		},
	})
}

// Reject moves a PENDING order to REJECTED. Seller only. Mutually
// exclusive with Accept via the PENDING-state guard.
func (s *OrderService) Reject(ctx context.Context, actor Actor, orderID uint) (*model.Order, error) {
	return s.transition(ctx, actor, orderID, transition{
		action: permission.OrderReject,
		from:   model.OrderPending,
		to:     model.OrderRejected,
		notify: func(o *model.Order) (uint, string, string) {
			return o.BuyerID, "Order Rejected",
				fmt.Sprintf("Your request for '%s' was rejected by %s.", o.Listing.Title, actor.Username)
		},
	})
}

// Complete moves an ACCEPTED order to COMPLETED and flips the listing to
// SOLD in the same transaction. Seller only. This is the only transition
// touching state outside the order itself.
func (s *OrderService) Complete(ctx context.Context, actor Actor, orderID uint) (*model.Order, error) {
	return s.transition(ctx, actor, orderID, transition{
		action:      permission.OrderComplete,
		from:        model.OrderAccepted,
		to:          model.OrderCompleted,
		sellListing: true,
		notify: func(o *model.Order) (uint, string, string) {
			return o.BuyerID, "Order Completed",
				fmt.Sprintf("Your order for '%s' is marked completed.", o.Listing.Title)
		},
	})
}

// Cancel moves a PENDING order to CANCELLED. Buyer only.
func (s *OrderService) Cancel(ctx context.Context, actor Actor, orderID uint) (*model.Order, error) {
	return s.transition(ctx, actor, orderID, transition{
		action: permission.OrderCancel,
		from:   model.OrderPending,
		to:     model.OrderCancelled,
		notify: func(o *model.Order) (uint, string, string) {
			return o.SellerID, "Order Cancelled",
				fmt.Sprintf("The buyer cancelled the order request for '%s'.", o.Listing.Title)
		},
	})
}

// transition describes one lifecycle edge.
type transition struct {
	action      permission.Action
	from        model.OrderStatus
	to          model.OrderStatus
	sellListing bool
	notify      func(o *model.Order) (recipientID uint, title, message string)
}

func (s *OrderService) transition(ctx context.Context, actor Actor, orderID uint, tr transition) (*model.Order, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order model.Order
		err := tx.Preload("Listing").
			Where("id = ? AND institute_id = ?", orderID, actor.InstituteID).
			First(&order).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		sub := permission.Subject{UserID: actor.UserID, Role: actor.Role}
		res := permission.Resource{BuyerID: order.BuyerID, SellerID: order.SellerID}
		if !permission.Allowed(tr.action, sub, res) {
			return ErrForbidden
		}

		// Optimistic status-guarded update: of two concurrent callers
		// only one moves the row, the other sees zero rows affected.
		result := tx.Model(&model.Order{}).
			Where("id = ? AND status = ?", order.ID, tr.from).
			Update("status", tr.to)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrWrongState
		}

		if tr.sellListing {
			if err := tx.Model(&model.Listing{}).
				Where("id = ?", order.ListingID).
				Update("status", model.ListingSold).Error; err != nil {
				return err
			}
		}

		recipientID, title, message := tr.notify(&order)
		_, err = s.notifications.CreateTx(tx, CreateNotificationRequest{
			InstituteID: order.InstituteID,
			UserID:      recipientID,
			Title:       title,
			Message:     message,
			Metadata:    &model.NotificationMetadata{OrderID: order.ID, ListingID: order.ListingID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.reload(ctx, orderID)
}

func (s *OrderService) reload(ctx context.Context, orderID uint) (*model.Order, error) {
	var order model.Order
	if err := orderPreloads(s.db.WithContext(ctx)).First(&order, orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}
