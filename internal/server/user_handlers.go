package server

import (
	"minifeed/internal/auth"
	"minifeed/internal/middleware"
	"minifeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:username
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	user, err := s.identity.GetProfile(c.UserContext(), c.Params("username"))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(user)
}

// GetUserPosts handles GET /api/users/:username/posts?limit=&before=
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	q, err := parseFeedQuery(c)
	if err != nil {
		return respondAppError(c, err)
	}

	posts, err := s.posts.ListPostsByAuthor(c.UserContext(), c.Params("username"), q)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts, "next_cursor": nextCursor(q, posts)})
}

// UpdateMyProfile handles PUT /api/users/me. A multipart body may carry a
// "profile_pic" file alongside display_name and bio.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	id := middleware.IdentityFrom(c)
	if _, err := s.gate.AuthorizeOwner(id, auth.OpUpdateProfile, id.UserID); err != nil {
		return respondAppError(c, err)
	}

	update, err := s.profileUpdate(c)
	if err != nil {
		return respondAppError(c, err)
	}

	user, err := s.identity.UpdateProfile(c.UserContext(), id.UserID, update)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(user)
}

func (s *Server) profileUpdate(c *fiber.Ctx) (models.ProfileUpdate, error) {
	var update models.ProfileUpdate
	if !isMultipart(c) {
		if err := c.BodyParser(&update); err != nil {
			return update, models.NewValidationError("Invalid request body")
		}
		// The media ref only ever comes from an upload.
		update.ProfileMediaRef = nil
		return update, nil
	}

	if v, ok := formValue(c, "display_name"); ok {
		update.DisplayName = &v
	}
	if v, ok := formValue(c, "bio"); ok {
		update.Bio = &v
	}
	ref, err := s.storeUpload(c, "profile_pic")
	if err != nil {
		return update, err
	}
	if ref != "" {
		update.ProfileMediaRef = &ref
	}
	return update, nil
}
