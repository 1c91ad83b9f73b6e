package notification

import (
	"errors"
	"strconv"

	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"github.com/Tg-307/Project---1-Campus-Connect/services"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/middleware"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/response"
	"github.com/gofiber/fiber/v2"
)

// NotificationHandler exposes the per-user notification feed.
type NotificationHandler struct {
	notifications *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListNotifications handles GET /api/notifications, the caller's own
// feed newest first. Supports unread_only, limit and offset.
func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	unreadOnly := c.Query("unread_only") == "true"

	notifications, total, err := h.notifications.List(c.Context(), services.ListNotificationsOptions{
		InstituteID: identity.InstituteID(),
		UserID:      identity.User.ID,
		UnreadOnly:  unreadOnly,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch notifications")
	}

	unreadCount, err := h.notifications.UnreadCount(c.Context(), identity.InstituteID(), identity.User.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to count notifications")
	}

	res := make([]model.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		res = append(res, notifications[i].ToResponse())
	}

	return response.Success(c, fiber.Map{
		"notifications": res,
		"total":         total,
		"unread_count":  unreadCount,
	})
}

// UnreadCount handles GET /api/notifications/unread_count
func (h *NotificationHandler) UnreadCount(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	count, err := h.notifications.UnreadCount(c.Context(), identity.InstituteID(), identity.User.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to count notifications")
	}

	return response.Success(c, fiber.Map{"unread_count": count})
}

// MarkAsRead handles PATCH /api/notifications/:id/mark_read. Only the
// recipient can mark a notification; anyone else sees not found.
func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid notification ID")
	}

	notification, err := h.notifications.MarkAsRead(c.Context(), uint(id), identity.InstituteID(), identity.User.ID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Notification not found")
		}
		return response.InternalServerError(c, "Failed to mark notification as read")
	}

	return response.Success(c, notification.ToResponse())
}

// MarkAllAsRead handles PATCH /api/notifications/mark_all_read
func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	err := h.notifications.MarkAllAsRead(c.Context(), identity.InstituteID(), identity.User.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to mark notifications as read")
	}

	return response.SuccessWithMessage(c, "All notifications marked as read", nil)
}
