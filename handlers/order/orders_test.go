package order

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Tg-307/Project---1-Campus-Connect/database"
	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"github.com/Tg-307/Project---1-Campus-Connect/services"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/middleware"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// These tests cover the HTTP surface only: body parsing, validation and
// the service error to status code mapping. The lifecycle rules
// themselves are tested in services.

type orderTestEnv struct {
	db      *gorm.DB
	handler *OrderHandler
	inst    *model.Institute
	seller  *model.User
	buyer   *model.User
	listing *model.Listing
}

func newOrderTestEnv(t *testing.T) *orderTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	inst := &model.Institute{Name: "Alpha Institute", Code: "AI"}
	require.NoError(t, db.Create(inst).Error)

	env := &orderTestEnv{
		db:      db,
		handler: NewOrderHandler(services.NewOrderService(db, services.NewNotificationService(db))),
		inst:    inst,
	}
	env.seller = env.user(t, "seller", inst.ID)
	env.buyer = env.user(t, "buyer", inst.ID)

	env.listing = &model.Listing{
		InstituteID: inst.ID,
		OwnerID:     env.seller.ID,
		Title:       "Used Bicycle",
		Price:       1500,
		Status:      model.ListingAvailable,
	}
	require.NoError(t, db.Create(env.listing).Error)

	return env
}

func (e *orderTestEnv) user(t *testing.T, username string, instituteID uint) *model.User {
	t.Helper()

	user := &model.User{Username: username, Email: username + "@example.edu", PasswordHash: "x"}
	require.NoError(t, e.db.Create(user).Error)
	profile := &model.Profile{UserID: user.ID, InstituteID: instituteID, Role: model.RoleStudent}
	require.NoError(t, e.db.Create(profile).Error)
	user.Profile = profile
	return user
}

func (e *orderTestEnv) appFor(user *model.User) *fiber.App {
	app := fiber.New()
	auth := func(c *fiber.Ctx) error {
		c.Locals("identity", &middleware.Identity{User: user, Profile: user.Profile})
		return c.Next()
	}
	app.Get("/api/orders", auth, e.handler.ListOrders)
	app.Post("/api/orders", auth, e.handler.CreateOrder)
	app.Get("/api/orders/:id", auth, e.handler.GetOrder)
	app.Patch("/api/orders/:id/accept", auth, e.handler.AcceptOrder)
	app.Patch("/api/orders/:id/reject", auth, e.handler.RejectOrder)
	app.Patch("/api/orders/:id/complete", auth, e.handler.CompleteOrder)
	app.Patch("/api/orders/:id/cancel", auth, e.handler.CancelOrder)
	return app
}

func (e *orderTestEnv) order(t *testing.T, status model.OrderStatus) *model.Order {
	t.Helper()

	order := &model.Order{
		InstituteID: e.inst.ID,
		ListingID:   e.listing.ID,
		BuyerID:     e.buyer.ID,
		SellerID:    e.seller.ID,
		Status:      status,
	}
	require.NoError(t, e.db.Create(order).Error)
	return order
}

func send(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()

	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestCreateOrderCreated(t *testing.T) {
	env := newOrderTestEnv(t)

	resp := send(t, env.appFor(env.buyer), http.MethodPost, "/api/orders", map[string]any{
		"listing_id": env.listing.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var order model.Order
	require.NoError(t, env.db.Where("listing_id = ?", env.listing.ID).First(&order).Error)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, env.buyer.ID, order.BuyerID)
}

func TestCreateOrderMissingListingID(t *testing.T) {
	env := newOrderTestEnv(t)

	resp := send(t, env.appFor(env.buyer), http.MethodPost, "/api/orders", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrderSelfPurchaseBadRequest(t *testing.T) {
	env := newOrderTestEnv(t)

	resp := send(t, env.appFor(env.seller), http.MethodPost, "/api/orders", map[string]any{
		"listing_id": env.listing.ID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateOrderDuplicatePendingConflict(t *testing.T) {
	env := newOrderTestEnv(t)
	env.order(t, model.OrderPending)

	resp := send(t, env.appFor(env.buyer), http.MethodPost, "/api/orders", map[string]any{
		"listing_id": env.listing.ID,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCreateOrderUnknownListingNotFound(t *testing.T) {
	env := newOrderTestEnv(t)

	resp := send(t, env.appFor(env.buyer), http.MethodPost, "/api/orders", map[string]any{
		"listing_id": 9999,
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "Listing not found in your institute", envelope.Error.Message)
}

func TestAcceptOrderByBuyerForbidden(t *testing.T) {
	env := newOrderTestEnv(t)
	order := env.order(t, model.OrderPending)

	resp := send(t, env.appFor(env.buyer), http.MethodPatch, fmt.Sprintf("/api/orders/%d/accept", order.ID), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCompleteOrderWrongStateBadRequest(t *testing.T) {
	env := newOrderTestEnv(t)
	order := env.order(t, model.OrderPending)

	resp := send(t, env.appFor(env.seller), http.MethodPatch, fmt.Sprintf("/api/orders/%d/complete", order.ID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetOrderUnknownIDNotFound(t *testing.T) {
	env := newOrderTestEnv(t)

	resp := send(t, env.appFor(env.buyer), http.MethodGet, "/api/orders/9999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetOrderInvalidIDBadRequest(t *testing.T) {
	env := newOrderTestEnv(t)

	resp := send(t, env.appFor(env.buyer), http.MethodGet, "/api/orders/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListOrdersOnlyOwnParties(t *testing.T) {
	env := newOrderTestEnv(t)
	env.order(t, model.OrderPending)
	stranger := env.user(t, "stranger", env.inst.ID)

	resp := send(t, env.appFor(stranger), http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data []model.OrderResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Empty(t, envelope.Data)
}
