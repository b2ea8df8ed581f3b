package server

import (
	"minifeed/internal/middleware"
	"minifeed/internal/models"
	"minifeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

const adminRecentPosts = 20

// AdminRequired lets through only the configured admin account.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := middleware.IdentityFrom(c)
		if s.config.AdminUsername == "" || id.Username != s.config.AdminUsername {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// AdminOverview handles GET /api/admin/overview?limit=&offset=
func (s *Server) AdminOverview(c *fiber.Ctx) error {
	ctx := c.UserContext()

	users, err := s.identity.ListUsers(ctx, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return respondAppError(c, err)
	}
	total, err := s.posts.CountPosts(ctx)
	if err != nil {
		return respondAppError(c, err)
	}
	recent, err := s.posts.ListFeed(ctx, service.FeedQuery{Limit: adminRecentPosts})
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"users":        users,
		"post_count":   total,
		"recent_posts": recent,
		"auth_mode":    s.gate.Mode(),
		"repost_mode":  s.engagement.RepostMode(),
	})
}
