package middleware

import (
	"strings"

	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/auth"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/response"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Identity is the resolved caller: user plus institute and role from the
// profile relation. It is built once per request and passed explicitly,
// never read from ambient state.
type Identity struct {
	User    *model.User
	Profile *model.Profile
}

// InstituteID returns the caller's tenant boundary.
func (id *Identity) InstituteID() uint {
	return id.Profile.InstituteID
}

// Role returns the caller's role within their institute.
func (id *Identity) Role() model.Role {
	return id.Profile.Role
}

// AuthMiddleware handles JWT authentication and identity resolution
type AuthMiddleware struct {
	jwtManager       *auth.JWTManager
	blacklistService *auth.BlacklistService
	db               *gorm.DB
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, db *gorm.DB) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager:       jwtManager,
		blacklistService: auth.NewBlacklistService(db),
		db:               db,
	}
}

// Required is middleware that requires a valid JWT token and resolves
// the caller's institute and role. A user without a profile is rejected
// with 403 rather than crashing downstream handlers.
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get token from Authorization header
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "Missing authorization token")
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Unauthorized(c, "Invalid authorization format")
		}

		tokenString := parts[1]

		// Validate token
		claims, err := m.jwtManager.ValidateToken(tokenString)
		if err != nil {
			if err == auth.ErrExpiredToken {
				return response.Unauthorized(c, "Token has expired")
			}
			return response.Unauthorized(c, "Invalid token")
		}

		// Check if it's an access token
		if claims.TokenType != "access" {
			return response.Unauthorized(c, "Invalid token type")
		}

		// Check if token is revoked (blacklisted)
		isRevoked, err := m.blacklistService.IsTokenRevoked(c.Context(), claims.ID)
		if err != nil {
			return response.InternalServerError(c, "Failed to check token status")
		}
		if isRevoked {
			return response.Unauthorized(c, "Token has been revoked")
		}

		// Load user with profile and institute, verify token version
		var user model.User
		if err := m.db.Preload("Profile").Preload("Profile.Institute").First(&user, claims.UserID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return response.Unauthorized(c, "User not found")
			}
			return response.InternalServerError(c, "Failed to load user")
		}

		// Check if token version matches
		if user.TokenVersion != claims.TokenVersion {
			return response.Unauthorized(c, "Token has been invalidated")
		}

		// Profiles are created at registration; a user without one cannot
		// be scoped to any institute and must not reach resource handlers.
		if user.Profile == nil {
			return response.Forbidden(c, "User has no institute profile")
		}

		c.Locals("identity", &Identity{User: &user, Profile: user.Profile})
		c.Locals("token_jti", claims.ID)

		return c.Next()
	}
}

// GetIdentity extracts the resolved identity from the request context
func GetIdentity(c *fiber.Ctx) (*Identity, bool) {
	id, ok := c.Locals("identity").(*Identity)
	return id, ok && id != nil
}

// GetTokenJTI extracts the JTI of the presented access token
func GetTokenJTI(c *fiber.Ctx) (string, bool) {
	jti, ok := c.Locals("token_jti").(string)
	return jti, ok
}
