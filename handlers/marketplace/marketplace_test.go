package marketplace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Tg-307/Project---1-Campus-Connect/database"
	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/middleware"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// identityFor injects a resolved identity the way the auth middleware
// does, so handler tests exercise scoping without JWT plumbing.
func identityFor(user *model.User, profile *model.Profile) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("identity", &middleware.Identity{User: user, Profile: profile})
		return c.Next()
	}
}

type mpTestEnv struct {
	db      *gorm.DB
	handler *MarketplaceHandler
	inst    *model.Institute
	other   *model.Institute
}

func newMPTestEnv(t *testing.T) *mpTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	inst := &model.Institute{Name: "Alpha Institute", Code: "AI"}
	require.NoError(t, db.Create(inst).Error)
	other := &model.Institute{Name: "Beta Institute", Code: "BI"}
	require.NoError(t, db.Create(other).Error)

	return &mpTestEnv{
		db:      db,
		handler: NewMarketplaceHandler(db, nil),
		inst:    inst,
		other:   other,
	}
}

func (e *mpTestEnv) user(t *testing.T, username string, instituteID uint, role model.Role) (*model.User, *model.Profile) {
	t.Helper()

	user := &model.User{Username: username, Email: username + "@example.edu", PasswordHash: "x"}
	require.NoError(t, e.db.Create(user).Error)
	profile := &model.Profile{UserID: user.ID, InstituteID: instituteID, Role: role}
	require.NoError(t, e.db.Create(profile).Error)
	return user, profile
}

func (e *mpTestEnv) appFor(user *model.User, profile *model.Profile) *fiber.App {
	app := fiber.New()
	auth := identityFor(user, profile)
	app.Get("/api/listings", auth, e.handler.ListListings)
	app.Post("/api/listings", auth, e.handler.CreateListing)
	app.Get("/api/listings/:id", auth, e.handler.GetListing)
	app.Patch("/api/listings/:id", auth, e.handler.UpdateListing)
	app.Delete("/api/listings/:id", auth, e.handler.DeleteListing)
	app.Post("/api/listings/:id/upload_image", auth, e.handler.UploadImage)
	app.Get("/api/categories", auth, e.handler.ListCategories)
	app.Post("/api/categories", auth, e.handler.CreateCategory)
	return app
}

func (e *mpTestEnv) listing(t *testing.T, instituteID, ownerID uint, title string) *model.Listing {
	t.Helper()

	listing := &model.Listing{
		InstituteID: instituteID,
		OwnerID:     ownerID,
		Title:       title,
		Description: "test",
		Price:       100,
		Status:      model.ListingAvailable,
	}
	require.NoError(t, e.db.Create(listing).Error)
	return listing
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestListListingsScopedToInstitute(t *testing.T) {
	env := newMPTestEnv(t)
	alice, aliceProfile := env.user(t, "alice", env.inst.ID, model.RoleStudent)
	bob, _ := env.user(t, "bob", env.other.ID, model.RoleStudent)

	env.listing(t, env.inst.ID, alice.ID, "Alpha Bike")
	env.listing(t, env.other.ID, bob.ID, "Beta Bike")

	app := env.appFor(alice, aliceProfile)
	resp := doJSON(t, app, http.MethodGet, "/api/listings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var envelope struct {
		Data []model.ListingResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "Alpha Bike", envelope.Data[0].Title)
}

func TestGetListingCrossInstituteNotFound(t *testing.T) {
	env := newMPTestEnv(t)
	alice, aliceProfile := env.user(t, "alice", env.inst.ID, model.RoleStudent)
	bob, _ := env.user(t, "bob", env.other.ID, model.RoleStudent)

	foreign := env.listing(t, env.other.ID, bob.ID, "Beta Bike")

	app := env.appFor(alice, aliceProfile)
	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/listings/%d", foreign.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateListing(t *testing.T) {
	env := newMPTestEnv(t)
	alice, aliceProfile := env.user(t, "alice", env.inst.ID, model.RoleStudent)

	app := env.appFor(alice, aliceProfile)
	resp := doJSON(t, app, http.MethodPost, "/api/listings", map[string]any{
		"title": "Calculus Textbook",
		"price": 250,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var listing model.Listing
	require.NoError(t, env.db.Where("title = ?", "Calculus Textbook").First(&listing).Error)
	assert.Equal(t, env.inst.ID, listing.InstituteID)
	assert.Equal(t, alice.ID, listing.OwnerID)
	assert.Equal(t, model.ListingAvailable, listing.Status)
}

func TestCreateListingRejectsNonPositivePrice(t *testing.T) {
	env := newMPTestEnv(t)
	alice, aliceProfile := env.user(t, "alice", env.inst.ID, model.RoleStudent)

	app := env.appFor(alice, aliceProfile)
	resp := doJSON(t, app, http.MethodPost, "/api/listings", map[string]any{
		"title": "Free Stuff",
		"price": 0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateListingForeignCategoryNotFound(t *testing.T) {
	env := newMPTestEnv(t)
	alice, aliceProfile := env.user(t, "alice", env.inst.ID, model.RoleStudent)

	foreignCat := &model.Category{InstituteID: env.other.ID, Name: "Books"}
	require.NoError(t, env.db.Create(foreignCat).Error)

	app := env.appFor(alice, aliceProfile)
	resp := doJSON(t, app, http.MethodPost, "/api/listings", map[string]any{
		"title":       "Calculus Textbook",
		"price":       250,
		"category_id": foreignCat.ID,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateListingNonOwnerForbidden(t *testing.T) {
	env := newMPTestEnv(t)
	alice, _ := env.user(t, "alice", env.inst.ID, model.RoleStudent)
	carol, carolProfile := env.user(t, "carol", env.inst.ID, model.RoleStaff)

	listing := env.listing(t, env.inst.ID, alice.ID, "Alpha Bike")

	// Staff role does not override listing ownership.
	app := env.appFor(carol, carolProfile)
	resp := doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/listings/%d", listing.ID), map[string]any{
		"price": 999,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDeleteListingOwner(t *testing.T) {
	env := newMPTestEnv(t)
	alice, aliceProfile := env.user(t, "alice", env.inst.ID, model.RoleStudent)
	listing := env.listing(t, env.inst.ID, alice.ID, "Alpha Bike")

	app := env.appFor(alice, aliceProfile)
	resp := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/listings/%d", listing.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	err := env.db.First(&model.Listing{}, listing.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUploadImageWithoutStorageConfigured(t *testing.T) {
	env := newMPTestEnv(t)
	alice, aliceProfile := env.user(t, "alice", env.inst.ID, model.RoleStudent)
	listing := env.listing(t, env.inst.ID, alice.ID, "Alpha Bike")

	app := env.appFor(alice, aliceProfile)
	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/listings/%d/upload_image", listing.ID), nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestCreateCategoryDuplicateWithinInstitute(t *testing.T) {
	env := newMPTestEnv(t)
	alice, aliceProfile := env.user(t, "alice", env.inst.ID, model.RoleStudent)

	app := env.appFor(alice, aliceProfile)
	resp := doJSON(t, app, http.MethodPost, "/api/categories", map[string]any{"name": "Books"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/categories", map[string]any{"name": "Books"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// The same name is fine in another institute.
	bob, bobProfile := env.user(t, "bob", env.other.ID, model.RoleStudent)
	otherApp := env.appFor(bob, bobProfile)
	resp = doJSON(t, otherApp, http.MethodPost, "/api/categories", map[string]any{"name": "Books"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}
