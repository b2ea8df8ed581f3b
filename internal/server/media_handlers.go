package server

import (
	"errors"

	"minifeed/internal/media"
	"minifeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ServeUpload handles GET /uploads/:ref
func (s *Server) ServeUpload(c *fiber.Ctx) error {
	ref := c.Params("ref")
	if s.media == nil || !media.ValidRef(ref) {
		return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Upload", ref))
	}

	body, contentType, err := s.media.Open(c.UserContext(), ref)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Upload", ref))
		}
		return respondAppError(c, models.NewInternalError(err))
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	// fasthttp closes body once the stream is drained.
	return c.SendStream(body)
}
