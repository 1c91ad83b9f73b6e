package marketplace

import (
	"github.com/Tg-307/Project---1-Campus-Connect/model"
	"github.com/Tg-307/Project---1-Campus-Connect/services/spaces"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/middleware"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/permission"
	"github.com/Tg-307/Project---1-Campus-Connect/utils/response"
	"github.com/gofiber/fiber/v2"
)

const maxImageSize = 10 * 1024 * 1024 // 10MB

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// UploadImage handles POST /api/listings/:id/upload_image. Owner only.
// The file is stored in object storage and the resulting URL attached
// to the listing.
func (h *MarketplaceHandler) UploadImage(c *fiber.Ctx) error {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		return response.Unauthorized(c, "Not authenticated")
	}

	if h.spaces == nil {
		return response.ServiceUnavailable(c, "Image storage is not configured")
	}

	listing, err := h.loadListing(c, identity)
	if err != nil {
		return err
	}

	sub := permission.Subject{UserID: identity.User.ID, Role: identity.Role()}
	if !permission.Allowed(permission.ListingUploadImage, sub, permission.Resource{OwnerID: listing.OwnerID}) {
		return response.Forbidden(c, "Only the owner can upload images for this listing")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return response.BadRequest(c, "No image file provided")
	}

	if fileHeader.Size > maxImageSize {
		return response.BadRequest(c, "Image must be smaller than 10MB")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		return response.BadRequest(c, "Unsupported image type")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.InternalServerError(c, "Failed to read image file")
	}
	defer file.Close()

	key := spaces.ListingImageKey(listing.ID, fileHeader.Filename)
	url, err := h.spaces.UploadFile(c.Context(), key, file, contentType)
	if err != nil {
		return response.InternalServerError(c, "Failed to upload image")
	}

	image := model.ListingImage{
		ListingID: listing.ID,
		URL:       url,
	}
	if err := h.db.Create(&image).Error; err != nil {
		return response.InternalServerError(c, "Failed to save image record")
	}

	return response.Created(c, image.ToResponse())
}
