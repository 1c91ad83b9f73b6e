package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/permission"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationService is the append-only sink fed by the order lifecycle
// and the issue tracker. Reads are scoped to institute AND recipient:
// stricter than general tenant isolation, no cross-user visibility even
// within an institute.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// CreateNotificationRequest represents a request to create a notification
type CreateNotificationRequest struct {
	InstituteID uint
	UserID      uint
	Title       string
	Message     string
	Metadata    *model.NotificationMetadata
}

// ListNotificationsOptions represents options for listing notifications
type ListNotificationsOptions struct {
	InstituteID uint
	UserID      uint
	UnreadOnly  bool
	Limit       int
	Offset      int
}

// Create appends a notification for a recipient.
func (s *NotificationService) Create(ctx context.Context, req CreateNotificationRequest) (*model.Notification, error) {
	return s.CreateTx(s.db.WithContext(ctx), req)
}

// CreateTx appends a notification inside an existing transaction, so
// emission can be atomic with the state change that triggered it.
func (s *NotificationService) CreateTx(tx *gorm.DB, req CreateNotificationRequest) (*model.Notification, error) {
	notification := &model.Notification{
		InstituteID: req.InstituteID,
		UserID:      req.UserID,
		Title:       req.Title,
		Message:     req.Message,
		IsRead:      false,
	}

	if req.Metadata != nil {
		metadataJSON, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		notification.Metadata = datatypes.JSON(metadataJSON)
	}

	if err := tx.Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return notification, nil
}

// List retrieves the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, opts ListNotificationsOptions) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	query := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("institute_id = ? AND user_id = ?", opts.InstituteID, opts.UserID)

	if opts.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query = query.Limit(limit)
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

// MarkAsRead flips the read flag on one of the caller's notifications.
// A notification belonging to someone else reports as not found.
func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID, instituteID, userID uint) (*model.Notification, error) {
	var notification model.Notification
	err := s.db.WithContext(ctx).
		Where("id = ? AND institute_id = ?", notificationID, instituteID).
		First(&notification).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	sub := permission.Subject{UserID: userID}
	if !permission.Allowed(permission.NotificationMarkRead, sub, permission.Resource{OwnerID: notification.UserID}) {
		return nil, ErrNotFound
	}

	if !notification.IsRead {
		notification.IsRead = true
		if err := s.db.WithContext(ctx).Model(&notification).Update("is_read", true).Error; err != nil {
			return nil, err
		}
	}

	return &notification, nil
}

// MarkAllAsRead flips the read flag on the caller's entire unread set.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, instituteID, userID uint) error {
	return s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("institute_id = ? AND user_id = ? AND is_read = ?", instituteID, userID, false).
		Update("is_read", true).Error
}

// UnreadCount returns the caller's unread notification count.
func (s *NotificationService) UnreadCount(ctx context.Context, instituteID, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Notification{}).
		Where("institute_id = ? AND user_id = ? AND is_read = ?", instituteID, userID, false).
		Count(&count).Error
	return count, err
}
