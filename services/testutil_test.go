package services

import (
	"fmt"
	"testing"

	"github.com/Tg-307/Project---1-Campus-Connect/database"
	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens an in-memory database with the full schema. Each
// test gets its own so parallel tests never share state.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, database.AutoMigrate(db))

	return db
}

// seedUser creates a user plus their profile in the given institute.
func seedUser(t *testing.T, db *gorm.DB, username string, instituteID uint, role model.Role) *model.User {
	t.Helper()

	user := &model.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.edu", username),
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(user).Error)

	profile := &model.Profile{
		UserID:      user.ID,
		InstituteID: instituteID,
		Role:        role,
	}
	require.NoError(t, db.Create(profile).Error)

	return user
}

func seedInstitute(t *testing.T, db *gorm.DB, name, code string) *model.Institute {
	t.Helper()

	institute := &model.Institute{Name: name, Code: code}
	require.NoError(t, db.Create(institute).Error)
	return institute
}

func seedListing(t *testing.T, db *gorm.DB, instituteID, ownerID uint, title string, price int) *model.Listing {
	t.Helper()

	listing := &model.Listing{
		InstituteID: instituteID,
		OwnerID:     ownerID,
		Title:       title,
		Description: "test listing",
		Price:       price,
		Status:      model.ListingAvailable,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func actorFor(user *model.User, instituteID uint, role model.Role) Actor {
	return Actor{
		UserID:      user.ID,
		Username:    user.Username,
		InstituteID: instituteID,
		Role:        role,
	}
}
