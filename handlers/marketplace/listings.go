package marketplace

import (
	"errors"
	"strconv"

	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/middleware"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/permission"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/response"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CreateListingRequest represents the request body for creating a listing
type CreateListingRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Price       int    `json:"price" validate:"required,gt=0"`
	CategoryID  *uint  `json:"category_id" validate:"omitempty"`
}

// UpdateListingRequest represents the request body for updating a
// listing. Status is absent on purpose: a listing goes SOLD only as the
// side effect of a completed order.
type UpdateListingRequest struct {
	Title       string  `json:"title" validate:"omitempty,min=3,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Price       int     `json:"price" validate:"omitempty,gt=0"`
	CategoryID  *uint   `json:"category_id" validate:"omitempty"`
}

// listingOrderings whitelists the ordering query parameter values.
var listingOrderings = map[string]string{
	"price":       "price ASC",
	"-price":      "price DESC",
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
	"title":       "title ASC",
	"-title":      "title DESC",
}

// ListListings handles GET /api/listings with search, filter, ordering
// and pagination. The queryset is always restricted to the caller's
// institute before any other filter applies.
func (h *MarketplaceHandler) ListListings(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := c.Query("search", "")
	status := c.Query("status", "")
	price := c.Query("price", "")
	ordering := c.Query("ordering", "-created_at")

	query := h.db.Model(&model.Listing{}).
		Where("institute_id = ?", identity.InstituteID())

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)",
			pattern, pattern)
	}

	if status != "" {
		query = query.Where("status = ?", status)
	}

	if price != "" {
		if p, err := strconv.Atoi(price); err == nil {
			query = query.Where("price = ?", p)
		}
	}

	orderClause, ok := listingOrderings[ordering]
	if !ok {
		orderClause = "created_at DESC"
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count listings")
	}

	pagination := response.CalculatePagination(page, limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var listings []model.Listing
	err := query.
		Preload("Owner").
		Preload("Category").
		Preload("Images").
		Order(orderClause).
		Limit(pagination.PerPage).
		Offset(offset).
		Find(&listings).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch listings")
	}

	res := make([]model.ListingResponse, 0, len(listings))
	for i := range listings {
		res = append(res, listings[i].ToResponse())
	}

	return response.Paginated(c, res, pagination)
}

// GetListing handles GET /api/listings/:id. Listings in other
// institutes report as not found.
func (h *MarketplaceHandler) GetListing(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	listing, err := h.loadListing(c, identity)
	if err != nil {
		return err
	}

	res := listing.ToResponse()
	return response.Success(c, res)
}

// CreateListing handles POST /api/listings, stamped with the caller's
// institute and ownership. A category outside the institute is rejected
// as not found rather than attached.
func (h *MarketplaceHandler) CreateListing(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	req.Title = validation.SanitizeString(req.Title)

	var categoryID *uint
	if req.CategoryID != nil {
		var category model.Category
		err := h.db.Where("id = ? AND institute_id = ?", *req.CategoryID, identity.InstituteID()).
			First(&category).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NotFound(c, "Category not found")
			}
			return response.InternalServerError(c, "Failed to fetch category")
		}
		categoryID = &category.ID
	}

	listing := model.Listing{
		InstituteID: identity.InstituteID(),
		OwnerID:     identity.User.ID,
		CategoryID:  categoryID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Status:      model.ListingAvailable,
	}
	if err := h.db.Create(&listing).Error; err != nil {
		return response.InternalServerError(c, "Failed to create listing")
	}

	if err := h.db.Preload("Owner").Preload("Category").Preload("Images").
		First(&listing, listing.ID).Error; err != nil {
		return response.InternalServerError(c, "Failed to load listing")
	}

	return response.Created(c, listing.ToResponse())
}

// UpdateListing handles PUT/PATCH /api/listings/:id. Owner only.
func (h *MarketplaceHandler) UpdateListing(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	listing, err := h.loadListing(c, identity)
	if err != nil {
		return err
	}

	sub := permission.Subject{UserID: identity.User.ID, Role: identity.Role()}
	if !permission.Allowed(permission.ListingUpdate, sub, permission.Resource{OwnerID: listing.OwnerID}) {
		return response.Forbidden(c, "Only the owner can modify this listing")
	}

	var req UpdateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	if req.Title != "" {
		listing.Title = validation.SanitizeString(req.Title)
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Price > 0 {
		listing.Price = req.Price
	}
	if req.CategoryID != nil {
		var category model.Category
		err := h.db.Where("id = ? AND institute_id = ?", *req.CategoryID, identity.InstituteID()).
			First(&category).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return response.NotFound(c, "Category not found")
			}
			return response.InternalServerError(c, "Failed to fetch category")
		}
		listing.CategoryID = &category.ID
	}

	if err := h.db.Save(listing).Error; err != nil {
		return response.InternalServerError(c, "Failed to update listing")
	}

	if err := h.db.Preload("Owner").Preload("Category").Preload("Images").
		First(listing, listing.ID).Error; err != nil {
		return response.InternalServerError(c, "Failed to load listing")
	}

	return response.Success(c, listing.ToResponse())
}

// DeleteListing handles DELETE /api/listings/:id. Owner only.
func (h *MarketplaceHandler) DeleteListing(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	listing, err := h.loadListing(c, identity)
	if err != nil {
		return err
	}

	sub := permission.Subject{UserID: identity.User.ID, Role: identity.Role()}
	if !permission.Allowed(permission.ListingDelete, sub, permission.Resource{OwnerID: listing.OwnerID}) {
		return response.Forbidden(c, "Only the owner can delete this listing")
	}

	if err := h.db.Delete(listing).Error; err != nil {
		return response.InternalServerError(c, "Failed to delete listing")
	}

	return response.SuccessWithMessage(c, "Listing deleted", nil)
}

// loadListing fetches the :id listing within the caller's institute,
// writing the error response itself when it fails.
func (h *MarketplaceHandler) loadListing(c *fiber.Ctx, identity *middleware.Identity) (*model.Listing, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, response.BadRequest(c, "Invalid listing ID")
	}

	var listing model.Listing
	err = h.db.Preload("Owner").Preload("Category").Preload("Images").
		Where("id = ? AND institute_id = ?", id, identity.InstituteID()).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NotFound(c, "Listing not found")
		}
		return nil, response.InternalServerError(c, "Failed to fetch listing")
	}

	return &listing, nil
}
