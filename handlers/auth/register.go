package auth

import (
	"errors"
	"time"

	"github.com/Tg-307/Project---1-Campus-Connect/model"
	authutil "github.com/Tg-307/Project---1-Campus-Connect/utils/auth"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/middleware"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/response"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/validation"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *authutil.JWTManager
	blacklistService     *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	validator            *validation.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, bruteForceProtection *middleware.BruteForceProtection) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		blacklistService:     authutil.NewBlacklistService(db),
		bruteForceProtection: bruteForceProtection,
		validator:            validation.NewValidator(),
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=150"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,min=6"`
	InstituteCode   string `json:"institute_code" validate:"required"`
	Role            string `json:"role" validate:"required,oneof=STUDENT FACULTY STAFF"`
}

// UserResponse represents user data in responses, with the institute
// and role resolved from the profile relation.
type UserResponse struct {
	ID        uint                    `json:"id"`
	Username  string                  `json:"username"`
	Email     string                  `json:"email"`
	Role      model.Role              `json:"role"`
	Institute model.InstituteResponse `json:"institute"`
	CreatedAt time.Time               `json:"created_at"`
}

// TokenPairResponse bundles the issued credentials with the user.
type TokenPairResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access"`
	RefreshToken string       `json:"refresh"`
	ExpiresIn    int          `json:"expires_in"` // in seconds
}

func newUserResponse(user *model.User) UserResponse {
	res := UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
	if user.Profile != nil {
		res.Role = user.Profile.Role
		res.Institute = user.Profile.Institute.ToResponse()
	}
	return res
}

var (
	errUsernameTaken    = errors.New("username already exists")
	errInvalidInstitute = errors.New("invalid institute code")
)

// Register handles user registration. The user and their profile are
// created in one transaction: an unknown institute code leaves no user
// row behind.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	req.Username = validation.SanitizeString(req.Username)
	req.Email = validation.SanitizeString(req.Email)
	req.InstituteCode = validation.SanitizeString(req.InstituteCode)

	if req.Password != req.ConfirmPassword {
		return response.ValidationError(c, errors.New("passwords do not match"))
	}

	// Hash password
	hashedPassword, err := authutil.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, authutil.ErrPasswordTooShort) {
			return response.ValidationError(c, err)
		}
		return response.InternalServerError(c, "Failed to process password")
	}

	var user model.User
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var existing model.User
		if err := tx.Where("username = ?", req.Username).First(&existing).Error; err == nil {
			return errUsernameTaken
		}

		var institute model.Institute
		if err := tx.Where("code = ?", req.InstituteCode).First(&institute).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errInvalidInstitute
			}
			return err
		}

		user = model.User{
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: hashedPassword,
			TokenVersion: 0,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		profile := model.Profile{
			UserID:      user.ID,
			InstituteID: institute.ID,
			Role:        model.Role(req.Role),
		}
		if err := tx.Create(&profile).Error; err != nil {
			return err
		}

		profile.Institute = institute
		user.Profile = &profile
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errInvalidInstitute):
			return response.ValidationError(c, err)
		case errors.Is(err, errUsernameTaken), errors.Is(err, gorm.ErrDuplicatedKey):
			// Concurrent registrations can slip past the pre-check and
			// hit the unique index instead.
			return response.ValidationError(c, errUsernameTaken)
		}
		return response.InternalServerError(c, "Failed to register user")
	}

	// Generate tokens with token version
	accessToken, _, err := h.jwtManager.GenerateAccessToken(user.ID, user.Username, string(user.Profile.Role), user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate access token")
	}

	refreshToken, _, err := h.jwtManager.GenerateRefreshToken(user.ID, user.Username, string(user.Profile.Role), user.TokenVersion)
	if err != nil {
		return response.InternalServerError(c, "Failed to generate refresh token")
	}

	res := TokenPairResponse{
		User:         newUserResponse(&user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    h.jwtManager.AccessExpirySeconds(),
	}

	return response.Created(c, res)
}
