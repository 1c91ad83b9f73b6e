package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationListScopedToRecipient(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)
	inst := seedInstitute(t, db, "Test Institute", "TI")
	alice := seedUser(t, db, "alice", inst.ID, model.RoleStudent)
	bob := seedUser(t, db, "bob", inst.ID, model.RoleStudent)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), CreateNotificationRequest{
			InstituteID: inst.ID,
			UserID:      alice.ID,
			Title:       "Ping",
			Message:     fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
	}
	_, err := svc.Create(context.Background(), CreateNotificationRequest{
		InstituteID: inst.ID,
		UserID:      bob.ID,
		Title:       "Ping",
		Message:     "for bob",
	})
	require.NoError(t, err)

	notifications, total, err := svc.List(context.Background(), ListNotificationsOptions{
		InstituteID: inst.ID,
		UserID:      alice.ID,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, notifications, 3)
	for i := range notifications {
		assert.Equal(t, alice.ID, notifications[i].UserID)
	}
}

func TestNotificationUnreadFlow(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)
	inst := seedInstitute(t, db, "Test Institute", "TI")
	alice := seedUser(t, db, "alice", inst.ID, model.RoleStudent)

	first, err := svc.Create(context.Background(), CreateNotificationRequest{
		InstituteID: inst.ID,
		UserID:      alice.ID,
		Title:       "One",
		Message:     "first",
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateNotificationRequest{
		InstituteID: inst.ID,
		UserID:      alice.ID,
		Title:       "Two",
		Message:     "second",
	})
	require.NoError(t, err)

	count, err := svc.UnreadCount(context.Background(), inst.ID, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	read, err := svc.MarkAsRead(context.Background(), first.ID, inst.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	count, err = svc.UnreadCount(context.Background(), inst.ID, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	unread, _, err := svc.List(context.Background(), ListNotificationsOptions{
		InstituteID: inst.ID,
		UserID:      alice.ID,
		UnreadOnly:  true,
	})
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Two", unread[0].Title)

	require.NoError(t, svc.MarkAllAsRead(context.Background(), inst.ID, alice.ID))
	count, err = svc.UnreadCount(context.Background(), inst.ID, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestMarkAsReadForeignNotification(t *testing.T) {
	db := setupTestDB(t)
	svc := NewNotificationService(db)
	inst := seedInstitute(t, db, "Test Institute", "TI")
	alice := seedUser(t, db, "alice", inst.ID, model.RoleStudent)
	bob := seedUser(t, db, "bob", inst.ID, model.RoleStudent)

	n, err := svc.Create(context.Background(), CreateNotificationRequest{
		InstituteID: inst.ID,
		UserID:      alice.ID,
		Title:       "Private",
		Message:     "for alice only",
	})
	require.NoError(t, err)

	// Someone else's notification reads as not found, never forbidden.
	_, err = svc.MarkAsRead(context.Background(), n.ID, inst.ID, bob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
