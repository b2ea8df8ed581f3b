package server

import (
	"strings"

	"minifeed/internal/middleware"
	"minifeed/internal/models"
	"minifeed/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type credentials struct {
	Username    string `json:"username" form:"username"`
	Password    string `json:"password" form:"password"`
	DisplayName string `json:"display_name" form:"display_name"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup handles POST /api/auth/signup. The new user is logged in right away
// and may set a display name in the same request.
func (s *Server) Signup(c *fiber.Ctx) error {
	var req credentials
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if err := validation.ValidateProfile(&displayName, nil); err != nil {
		return respondAppError(c, models.NewValidationError(err.Error()))
	}

	user, err := s.identity.Register(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondAppError(c, err)
	}
	if displayName != "" {
		if user, err = s.identity.UpdateProfile(c.UserContext(), user.ID, models.ProfileUpdate{DisplayName: &displayName}); err != nil {
			return respondAppError(c, err)
		}
	}

	id, err := s.gate.StartSession(c.UserContext(), user)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(sessionResponse{Token: id.Token, User: user})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentials
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	id, err := s.gate.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondAppError(c, err)
	}

	user, err := s.identity.GetUser(c.UserContext(), id.UserID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(sessionResponse{Token: id.Token, User: user})
}

// Logout handles POST /api/auth/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.gate.Logout(c.UserContext(), middleware.IdentityFrom(c).Token); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me handles GET /api/auth/me
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.identity.GetUser(c.UserContext(), middleware.IdentityFrom(c).UserID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(user)
}
