package order

import (
	"context"
	"errors"
	"strconv"

	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"github.com/Tg-307/Project---1-Campus-Connect/services"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/middleware"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/response"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/validation"
	"github.com/gofiber/fiber/v2"
)

// OrderHandler exposes the order lifecycle over HTTP. All state logic
// lives in services.OrderService; the handler only shapes requests and
// maps service errors onto status codes.
type OrderHandler struct {
	orders    *services.OrderService
	validator *validation.Validator
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orders:    orders,
		validator: validation.NewValidator(),
	}
}

// CreateOrderRequest represents the request body for placing an order
type CreateOrderRequest struct {
	ListingID uint `json:"listing_id" validate:"required"`
}

func actorFrom(identity *middleware.Identity) services.Actor {
	return services.Actor{
		UserID:      identity.User.ID,
		Username:    identity.User.Username,
		InstituteID: identity.InstituteID(),
		Role:        identity.Role(),
	}
}

// ListOrders handles GET /api/orders: orders where the caller is the
// buyer or the seller, newest first.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))

	orders, total, err := h.orders.List(c.Context(), actorFrom(identity), page, limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch orders")
	}

	res := make([]model.OrderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, orders[i].ToResponse())
	}

	pagination := response.CalculatePagination(page, limit, total)
	return response.Paginated(c, res, pagination)
}

// GetOrder handles GET /api/orders/:id
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid order ID")
	}

	order, err := h.orders.Get(c.Context(), actorFrom(identity), uint(id))
	if err != nil {
		return h.serviceError(c, err)
	}

	return response.Success(c, order.ToResponse())
}

// CreateOrder handles POST /api/orders: the caller requests to buy a
// listing, opening a PENDING order and notifying the seller.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	order, err := h.orders.Create(c.Context(), actorFrom(identity), req.ListingID)
	if err != nil {
		// Not-found here means the listing, not an order.
		if errors.Is(err, services.ErrNotFound) {
			return response.NotFound(c, "Listing not found in your institute")
		}
		return h.serviceError(c, err)
	}

	return response.Created(c, order.ToResponse())
}

// AcceptOrder handles PATCH /api/orders/:id/accept. Seller only.
func (h *OrderHandler) AcceptOrder(c *fiber.Ctx) error {
	return h.act(c, h.orders.Accept)
}

// RejectOrder handles PATCH /api/orders/:id/reject. Seller only.
func (h *OrderHandler) RejectOrder(c *fiber.Ctx) error {
	return h.act(c, h.orders.Reject)
}

// CompleteOrder handles PATCH /api/orders/:id/complete. Seller only;
// marks the listing SOLD.
func (h *OrderHandler) CompleteOrder(c *fiber.Ctx) error {
	return h.act(c, h.orders.Complete)
}

// CancelOrder handles PATCH /api/orders/:id/cancel. Buyer only.
func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	return h.act(c, h.orders.Cancel)
}

type lifecycleFunc func(ctx context.Context, actor services.Actor, orderID uint) (*model.Order, error)

func (h *OrderHandler) act(c *fiber.Ctx, fn lifecycleFunc) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid order ID")
	}

	order, err := fn(c.Context(), actorFrom(identity), uint(id))
	if err != nil {
		return h.serviceError(c, err)
	}

	return response.Success(c, order.ToResponse())
}

// serviceError maps service sentinels onto the HTTP error taxonomy.
func (h *OrderHandler) serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return response.NotFound(c, "Order not found")
	case errors.Is(err, services.ErrForbidden):
		return response.Forbidden(c, "You are not allowed to perform this action")
	case errors.Is(err, services.ErrSelfPurchase),
		errors.Is(err, services.ErrListingUnavailable),
		errors.Is(err, services.ErrWrongState):
		return response.InvalidOperation(c, err.Error())
	case errors.Is(err, services.ErrDuplicateRequest):
		return response.Conflict(c, err.Error())
	default:
		return response.InternalServerError(c, "Order operation failed")
	}
}
