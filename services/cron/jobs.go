package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/auth"
)

// notificationRetention is how long read notifications are kept.
const notificationRetention = 90 * 24 * time.Hour

// CleanupExpiredTokens removes blacklist entries whose tokens have
// expired on their own. Runs hourly.
func (m *CronManager) CleanupExpiredTokens() {
	started := time.Now()
	jobName := "cleanup_expired_tokens"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	blacklist := auth.NewBlacklistService(m.db)
	if err := blacklist.CleanupExpiredTokens(ctx); err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to cleanup expired tokens: %w", err), started)
		return
	}

	m.logJobComplete(jobName, "Expired blacklist entries removed", started)
}

// CleanupOldNotifications removes read notifications older than the
// retention window. Unread notifications are never touched. Runs daily.
func (m *CronManager) CleanupOldNotifications() {
	started := time.Now()
	jobName := "cleanup_old_notifications"

	cutoff := time.Now().Add(-notificationRetention)
	result := m.db.
		Where("is_read = ? AND created_at < ?", true, cutoff).
		Delete(&model.Notification{})

	if result.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to delete old notifications: %w", result.Error), started)
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Removed %d read notifications older than %s", result.RowsAffected, cutoff.Format(time.DateOnly)), started)
}
