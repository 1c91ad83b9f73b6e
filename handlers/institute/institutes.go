package institute

import (
	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// InstituteHandler handles institute directory requests
type InstituteHandler struct {
	db *gorm.DB
}

// NewInstituteHandler creates a new institute handler
func NewInstituteHandler(db *gorm.DB) *InstituteHandler {
	return &InstituteHandler{db: db}
}

// ListInstitutes handles GET /api/institutes. Public endpoint so the
// registration form can offer the available tenants, ordered by name.
func (h *InstituteHandler) ListInstitutes(c *fiber.Ctx) error {
	var institutes []model.Institute
	if err := h.db.Order("name ASC").Find(&institutes).Error; err != nil {
		return response.InternalServerError(c, "Failed to fetch institutes")
	}

	res := make([]model.InstituteResponse, 0, len(institutes))
	for i := range institutes {
		res = append(res, institutes[i].ToResponse())
	}

	return response.Success(c, res)
}
