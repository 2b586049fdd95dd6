package server

import (
	"quarry/internal/models"
	"quarry/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetProfile(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"user": user,
	})
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		FullName   string `json:"full_name"`
		Field      string `json:"field"`
		Profession string `json:"profession"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:     currentUserID(c),
		FullName:   req.FullName,
		Field:      req.Field,
		Profession: req.Profession,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"user": user,
	})
}

// GetMyWallet handles GET /api/users/me/wallet
func (s *Server) GetMyWallet(c *fiber.Ctx) error {
	wallet, err := s.userService.GetWallet(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(wallet)
}

// GetMyReferrals handles GET /api/users/me/referrals
func (s *Server) GetMyReferrals(c *fiber.Ctx) error {
	entries, err := s.userService.ListReferrals(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"referrals": entries,
	})
}

// GetMyProblems handles GET /api/users/me/problems
func (s *Server) GetMyProblems(c *fiber.Ctx) error {
	cursor, limit := pageQuery(c, defaultProblemPageLimit)

	page, err := s.userService.ListOwnProblems(c.Context(), currentUserID(c), cursor, limit)
	if err != nil {
		return respondError(c, err)
	}

	return pageResponse(c, page, "problems")
}
