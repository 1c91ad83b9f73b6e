package marketplace

import (
	"errors"

	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"github.com/Tg-307/Project---1-Campus-Connect/services/spaces"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/middleware"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/response"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MarketplaceHandler handles categories, listings and listing images
type MarketplaceHandler struct {
	db        *gorm.DB
	spaces    *spaces.Client
	validator *validation.Validator
}

// NewMarketplaceHandler creates a new marketplace handler. spacesClient
// may be nil when image storage is not configured; uploads then fail
// with 503 instead of panicking.
func NewMarketplaceHandler(db *gorm.DB, spacesClient *spaces.Client) *MarketplaceHandler {
	return &MarketplaceHandler{
		db:        db,
		spaces:    spacesClient,
		validator: validation.NewValidator(),
	}
}

// CreateCategoryRequest represents the request body for creating a category
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// ListCategories handles GET /api/categories. Categories of other
// institutes are never visible.
func (h *MarketplaceHandler) ListCategories(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var categories []model.Category
	err := h.db.Where("institute_id = ?", identity.InstituteID()).
		Order("name ASC").
		Find(&categories).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch categories")
	}

	res := make([]model.CategoryResponse, 0, len(categories))
	for i := range categories {
		res = append(res, categories[i].ToResponse())
	}

	return response.Success(c, res)
}

// CreateCategory handles POST /api/categories, stamped with the
// caller's institute.
func (h *MarketplaceHandler) CreateCategory(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	req.Name = validation.SanitizeString(req.Name)

	var existing model.Category
	err := h.db.Where("institute_id = ? AND name = ?", identity.InstituteID(), req.Name).
		First(&existing).Error
	if err == nil {
		return response.Conflict(c, "Category with this name already exists")
	}

	category := model.Category{
		InstituteID: identity.InstituteID(),
		Name:        req.Name,
	}
	if err := h.db.Create(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Category with this name already exists")
		}
		return response.InternalServerError(c, "Failed to create category")
	}

	return response.Created(c, category.ToResponse())
}
