package issue

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"github.com/Tg-307/Project---1-Campus-Connect/services"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/middleware"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/permission"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/response"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// IssueHandler handles the campus issue tracker: anyone in the
// institute can report and read issues, only FACULTY/STAFF can move
// them through the workflow.
type IssueHandler struct {
	db            *gorm.DB
	notifications *services.NotificationService
	validator     *validation.Validator
}

// NewIssueHandler creates a new issue handler
func NewIssueHandler(db *gorm.DB, notifications *services.NotificationService) *IssueHandler {
	return &IssueHandler{
		db:            db,
		notifications: notifications,
		validator:     validation.NewValidator(),
	}
}

// CreateIssueRequest represents the request body for reporting an issue
type CreateIssueRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	Category    string `json:"category" validate:"required,min=2,max=100"`
}

// AdminUpdateIssueRequest represents the status/priority update body.
// Both fields are optional; absent fields keep their current value.
type AdminUpdateIssueRequest struct {
	Status   model.IssueStatus   `json:"status" validate:"omitempty"`
	Priority model.IssuePriority `json:"priority" validate:"omitempty"`
}

var issueOrderings = map[string]string{
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
	"priority":    "priority ASC",
	"-priority":   "priority DESC",
	"status":      "status ASC",
	"-status":     "status DESC",
}

// ListIssues handles GET /api/issues with search, filter and ordering,
// always restricted to the caller's institute.
func (h *IssueHandler) ListIssues(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "10"))
	search := c.Query("search", "")
	status := c.Query("status", "")
	priority := c.Query("priority", "")
	category := c.Query("category", "")
	ordering := c.Query("ordering", "-created_at")

	query := h.db.Model(&model.Issue{}).
		Where("institute_id = ?", identity.InstituteID())

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?) OR LOWER(category) LIKE LOWER(?)",
			pattern, pattern, pattern)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	orderClause, ok := issueOrderings[ordering]
	if !ok {
		orderClause = "created_at DESC"
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return response.InternalServerError(c, "Failed to count issues")
	}

	pagination := response.CalculatePagination(page, limit, total)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	var issues []model.Issue
	err := query.
		Preload("CreatedBy").
		Order(orderClause).
		Limit(pagination.PerPage).
		Offset(offset).
		Find(&issues).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch issues")
	}

	res := make([]model.IssueResponse, 0, len(issues))
	for i := range issues {
		res = append(res, issues[i].ToResponse())
	}

	return response.Paginated(c, res, pagination)
}

// GetIssue handles GET /api/issues/:id
func (h *IssueHandler) GetIssue(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	issue, err := h.loadIssue(c, identity)
	if err != nil {
		return err
	}

	return response.Success(c, issue.ToResponse())
}

// CreateIssue handles POST /api/issues, stamped with the caller's
// identity and institute. Status and priority always start at their
// defaults regardless of the request body.
func (h *IssueHandler) CreateIssue(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	var req CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	issue := model.Issue{
		InstituteID: identity.InstituteID(),
		CreatedByID: identity.User.ID,
		Title:       validation.SanitizeString(req.Title),
		Description: req.Description,
		Category:    validation.SanitizeString(req.Category),
		Status:      model.IssueOpen,
		Priority:    model.PriorityMedium,
	}
	if err := h.db.Create(&issue).Error; err != nil {
		return response.InternalServerError(c, "Failed to create issue")
	}

	if err := h.db.Preload("CreatedBy").First(&issue, issue.ID).Error; err != nil {
		return response.InternalServerError(c, "Failed to load issue")
	}

	return response.Created(c, issue.ToResponse())
}

// UpdateIssue handles PATCH /api/issues/:id and PATCH
// /api/issues/:id/admin_update. FACULTY/STAFF only; the issue creator
// is notified on every successful update.
func (h *IssueHandler) UpdateIssue(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	issue, err := h.loadIssue(c, identity)
	if err != nil {
		return err
	}

	sub := permission.Subject{UserID: identity.User.ID, Role: identity.Role()}
	if !permission.Allowed(permission.IssueAdminUpdate, sub, permission.Resource{OwnerID: issue.CreatedByID}) {
		return response.Forbidden(c, "Only faculty or staff can update issues")
	}

	var req AdminUpdateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Status == "" && req.Priority == "" {
		return response.BadRequest(c, "Nothing to update")
	}
	if req.Status != "" && !req.Status.IsValid() {
		return response.BadRequest(c, "Invalid issue status")
	}
	if req.Priority != "" && !req.Priority.IsValid() {
		return response.BadRequest(c, "Invalid issue priority")
	}

	if req.Status != "" {
		issue.Status = req.Status
	}
	if req.Priority != "" {
		issue.Priority = req.Priority
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(issue).Error; err != nil {
			return err
		}
		_, err := h.notifications.CreateTx(tx, services.CreateNotificationRequest{
			InstituteID: issue.InstituteID,
			UserID:      issue.CreatedByID,
			Title:       "Issue Updated",
			Message:     fmt.Sprintf("Your issue '%s' status is now %s.", issue.Title, issue.Status),
			Metadata:    &model.NotificationMetadata{IssueID: issue.ID},
		})
		return err
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to update issue")
	}

	if err := h.db.Preload("CreatedBy").First(issue, issue.ID).Error; err != nil {
		return response.InternalServerError(c, "Failed to load issue")
	}

	return response.Success(c, issue.ToResponse())
}

func (h *IssueHandler) loadIssue(c *fiber.Ctx, identity *middleware.Identity) (*model.Issue, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return nil, response.BadRequest(c, "Invalid issue ID")
	}

	var issue model.Issue
	err = h.db.Preload("CreatedBy").
		Where("id = ? AND institute_id = ?", id, identity.InstituteID()).
		First(&issue).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NotFound(c, "Issue not found")
		}
		return nil, response.InternalServerError(c, "Failed to fetch issue")
	}

	return &issue, nil
}
