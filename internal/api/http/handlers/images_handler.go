package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/dto"
	"github.com/spec-kit/civic-issue-service/internal/auth"
	"github.com/spec-kit/civic-issue-service/internal/images"
	apperrors "github.com/spec-kit/civic-issue-service/pkg/util"
)

const maxImageBytes = 10 << 20

// ImagesHandler proxies issue photo uploads to the external image host.
type ImagesHandler struct {
	store images.Store
}

// NewImagesHandler constructs handler.
func NewImagesHandler(store images.Store) *ImagesHandler {
	return &ImagesHandler{store: store}
}

// Upload POST /images. Multipart field "image".
func (h *ImagesHandler) Upload(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("user required")
	}

	header, err := c.FormFile("image")
	if err != nil {
		return apperrors.NewValidationError("image file required", nil)
	}
	if header.Size > maxImageBytes {
		return apperrors.NewValidationError("image exceeds 10MB", nil)
	}

	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	url, err := h.store.Upload(c.UserContext(), header.Filename, file)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.ImageUploadResponse{URL: url}})
}
