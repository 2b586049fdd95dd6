package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetFlags handles GET /api/flags
func (s *Server) GetFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"flags": s.flags.Snapshot(currentUserID(c)),
	})
}
