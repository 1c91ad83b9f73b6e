package auth

import (
	"github.com/Tg-307/Project---1-Campus-Connect/utils/middleware"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/response"
	"github.com/gofiber/fiber/v2"
)

// Me returns the current user with their role and institute
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	return response.Success(c, newUserResponse(identity.User))
}
