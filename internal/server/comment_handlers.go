package server

import (
	"quarry/internal/models"
	"quarry/internal/service"

	"github.com/gofiber/fiber/v2"
)

const defaultCommentPageLimit = 20

// CreateComment handles POST /api/problems/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	userID := currentUserID(c)

	problemID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.engagementService.AddComment(c.Context(), service.AddCommentInput{
		UserID:    userID,
		ProblemID: problemID,
		Text:      req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"comment": comment,
	})
}

// GetComments handles GET /api/problems/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	problemID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	cursor, limit := pageQuery(c, defaultCommentPageLimit)

	page, err := s.problemService.ListComments(c.Context(), service.ListCommentsInput{
		ProblemID: problemID,
		Cursor:    cursor,
		Limit:     limit,
	})
	if err != nil {
		return respondError(c, err)
	}

	return pageResponse(c, page, "comments")
}
