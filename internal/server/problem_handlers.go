package server

import (
	"quarry/internal/models"
	"quarry/internal/service"

	"github.com/gofiber/fiber/v2"
)

const defaultProblemPageLimit = 10

// CreateProblem handles POST /api/problems
func (s *Server) CreateProblem(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		Title       string `json:"title"`
		Field       string `json:"field"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	problem, err := s.problemService.CreateProblem(c.Context(), service.CreateProblemInput{
		PosterID:    userID,
		Title:       req.Title,
		Field:       req.Field,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"problem": problem,
	})
}

// GetProblems handles GET /api/problems
func (s *Server) GetProblems(c *fiber.Ctx) error {
	cursor, limit := pageQuery(c, defaultProblemPageLimit)

	page, err := s.problemService.ListProblems(c.Context(), service.ListProblemsInput{
		Field:         c.Query("field"),
		Search:        c.Query("search"),
		Sort:          c.Query("sort"),
		Cursor:        cursor,
		Limit:         limit,
		CurrentUserID: currentUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}

	return pageResponse(c, page, "problems")
}

// GetProblem handles GET /api/problems/:id
func (s *Server) GetProblem(c *fiber.Ctx) error {
	problemID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	detail, err := s.problemService.GetProblem(c.Context(), problemID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(detail)
}

// UpdateProblem handles PUT /api/problems/:id
func (s *Server) UpdateProblem(c *fiber.Ctx) error {
	userID := currentUserID(c)

	problemID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title       string `json:"title"`
		Field       string `json:"field"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	problem, err := s.problemService.UpdateProblem(c.Context(), service.UpdateProblemInput{
		UserID:      userID,
		ProblemID:   problemID,
		Title:       req.Title,
		Field:       req.Field,
		Description: req.Description,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"problem": problem,
	})
}

// DeleteProblem handles DELETE /api/problems/:id
func (s *Server) DeleteProblem(c *fiber.Ctx) error {
	userID := currentUserID(c)

	problemID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.problemService.DeleteProblem(c.Context(), userID, problemID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Problem deleted",
	})
}

// VoteProblem handles POST /api/problems/:id/vote
func (s *Server) VoteProblem(c *fiber.Ctx) error {
	userID := currentUserID(c)

	problemID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Direction string `json:"direction"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	outcome, err := s.engagementService.Vote(c.Context(), service.VoteInput{
		UserID:    userID,
		ProblemID: problemID,
		Direction: req.Direction,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(outcome)
}
