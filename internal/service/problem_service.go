package service

import (
	"context"
	"time"

	"quarry/internal/middleware"
	"quarry/internal/models"
	"quarry/internal/repository"
)

const (
	maxProblemTitleLen       = 300
	maxProblemDescriptionLen = 10000
	recentCommentsShown      = 5
	// postsPerWindow limits how often a user may post, over a rolling day.
	postsPerWindow = 1
	postRateWindow = 24 * time.Hour
)

// ProblemService owns the problem lifecycle around the engagement
// coordinator: creation with its rate predicate and poster credit, poster
// only updates and deletes, and the paginated listings.
type ProblemService struct {
	uow         repository.UnitOfWork
	problemRepo repository.ProblemRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	now         func() time.Time
}

type CreateProblemInput struct {
	PosterID    uint
	Title       string
	Field       string
	Description string
}

type UpdateProblemInput struct {
	UserID      uint
	ProblemID   uint
	Title       string
	Field       string
	Description string
}

type ListProblemsInput struct {
	Field         string
	Search        string
	Sort          string
	Cursor        string
	Limit         int
	CurrentUserID uint
}

type ListCommentsInput struct {
	ProblemID uint
	Cursor    string
	Limit     int
}

// ProblemDetail is a problem plus the context a detail view needs.
type ProblemDetail struct {
	Problem        *models.Problem  `json:"problem"`
	RecentComments []models.Comment `json:"recent_comments"`
}

func NewProblemService(
	uow repository.UnitOfWork,
	problemRepo repository.ProblemRepository,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
) *ProblemService {
	return &ProblemService{
		uow:         uow,
		problemRepo: problemRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		now:         time.Now,
	}
}

func validateProblemContent(title, field, description string) error {
	if title == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxProblemTitleLen {
		return models.NewValidationError("Title too long (max 300 characters)")
	}
	if !models.ValidProblemField(field) {
		return models.NewValidationError("Invalid field")
	}
	if description == "" {
		return models.NewValidationError("Description is required")
	}
	if len(description) > maxProblemDescriptionLen {
		return models.NewValidationError("Description too long (max 10000 characters)")
	}
	return nil
}

// CreateProblem posts a problem, snapshotting the poster identity and
// crediting them one coin in the same transaction. A poster gets one post
// per rolling 24 hours.
func (s *ProblemService) CreateProblem(ctx context.Context, in CreateProblemInput) (*models.Problem, error) {
	if err := validateProblemContent(in.Title, in.Field, in.Description); err != nil {
		return nil, err
	}

	poster, err := s.userRepo.GetByID(ctx, in.PosterID)
	if err != nil {
		return nil, err
	}

	recent, err := s.problemRepo.CountByPosterSince(ctx, in.PosterID, s.now().Add(-postRateWindow))
	if err != nil {
		return nil, err
	}
	if recent >= postsPerWindow {
		return nil, models.NewForbiddenError("You can only post one problem per day")
	}

	problem := &models.Problem{
		Title:            in.Title,
		Field:            in.Field,
		Description:      in.Description,
		PosterID:         poster.ID,
		PosterName:       poster.FullName,
		PosterProfession: poster.Profession,
	}

	err = s.uow.InTx(ctx, func(tx *repository.Repos) error {
		if err := tx.Problems.Create(ctx, problem); err != nil {
			return err
		}
		if err := tx.Users.Credit(ctx, poster.ID, repository.CreditPosts, models.RewardPost); err != nil {
			return err
		}
		middleware.CoinsCredited.WithLabelValues(string(repository.CreditPosts)).Add(models.RewardPost)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return problem, nil
}

// UpdateProblem lets the poster revise title, field, or description.
func (s *ProblemService) UpdateProblem(ctx context.Context, in UpdateProblemInput) (*models.Problem, error) {
	problem, err := s.problemRepo.GetByID(ctx, in.ProblemID)
	if err != nil {
		return nil, err
	}
	if problem.PosterID != in.UserID {
		return nil, models.NewForbiddenError("You can only update your own problems")
	}

	if in.Title != "" {
		if len(in.Title) > maxProblemTitleLen {
			return nil, models.NewValidationError("Title too long (max 300 characters)")
		}
		problem.Title = in.Title
	}
	if in.Field != "" {
		if !models.ValidProblemField(in.Field) {
			return nil, models.NewValidationError("Invalid field")
		}
		problem.Field = in.Field
	}
	if in.Description != "" {
		if len(in.Description) > maxProblemDescriptionLen {
			return nil, models.NewValidationError("Description too long (max 10000 characters)")
		}
		problem.Description = in.Description
	}

	if err := s.problemRepo.Save(ctx, problem); err != nil {
		return nil, err
	}
	return problem, nil
}

// DeleteProblem removes a problem and everything hanging off it.
func (s *ProblemService) DeleteProblem(ctx context.Context, userID, problemID uint) error {
	problem, err := s.problemRepo.GetByID(ctx, problemID)
	if err != nil {
		return err
	}
	if problem.PosterID != userID {
		return models.NewForbiddenError("You can only delete your own problems")
	}
	return s.problemRepo.Delete(ctx, problemID)
}

// sortSpec maps the listing sort names onto whitelisted columns.
func sortSpec(sort string) (field string, order repository.SortOrder, err error) {
	switch sort {
	case "", "score":
		return models.ProblemSortScore, repository.SortDesc, nil
	case "latest":
		return models.ProblemSortCreatedAt, repository.SortDesc, nil
	case "oldest":
		return models.ProblemSortCreatedAt, repository.SortAsc, nil
	case "mostLiked":
		return models.ProblemSortLikeCount, repository.SortDesc, nil
	case "mostCommented":
		return models.ProblemSortCommentCount, repository.SortDesc, nil
	default:
		return "", "", models.NewValidationError("Unknown sort: " + sort)
	}
}

// ListProblems returns one page of problems, with the requesting user's vote
// state attached when they are logged in.
func (s *ProblemService) ListProblems(ctx context.Context, in ListProblemsInput) (repository.Page[models.Problem], error) {
	field, order, err := sortSpec(in.Sort)
	if err != nil {
		return repository.Page[models.Problem]{}, err
	}
	if in.Field != "" && in.Field != "all" && !models.ValidProblemField(in.Field) {
		return repository.Page[models.Problem]{}, models.NewValidationError("Invalid field")
	}

	page, err := s.problemRepo.List(ctx,
		repository.ProblemFilter{Field: in.Field, Search: in.Search},
		repository.PageRequest{
			SortField: field,
			Order:     order,
			Limit:     in.Limit,
			Cursor:    in.Cursor,
		})
	if err != nil {
		return page, err
	}

	if err := s.attachVoteState(ctx, in.CurrentUserID, page.Items); err != nil {
		return page, err
	}
	return page, nil
}

// GetProblem returns the detail view: the problem, its freshest comments,
// and the requesting user's vote state.
func (s *ProblemService) GetProblem(ctx context.Context, problemID, currentUserID uint) (*ProblemDetail, error) {
	problem, err := s.problemRepo.GetByID(ctx, problemID)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.RecentByProblem(ctx, problemID, recentCommentsShown)
	if err != nil {
		return nil, err
	}

	if currentUserID != 0 {
		vote, err := s.problemRepo.GetVote(ctx, currentUserID, problemID)
		if err != nil {
			return nil, err
		}
		if vote != nil {
			problem.Liked = vote.Direction == models.VoteLike
			problem.Disliked = vote.Direction == models.VoteDislike
		}
	}

	return &ProblemDetail{Problem: problem, RecentComments: comments}, nil
}

// ListComments pages through a problem's comments, oldest first.
func (s *ProblemService) ListComments(ctx context.Context, in ListCommentsInput) (repository.Page[models.Comment], error) {
	if _, err := s.problemRepo.GetByID(ctx, in.ProblemID); err != nil {
		return repository.Page[models.Comment]{}, err
	}
	return s.commentRepo.ListByProblem(ctx, in.ProblemID, repository.PageRequest{
		SortField: models.CommentSortCreatedAt,
		Order:     repository.SortAsc,
		Limit:     in.Limit,
		Cursor:    in.Cursor,
	})
}

func (s *ProblemService) attachVoteState(ctx context.Context, userID uint, problems []models.Problem) error {
	if userID == 0 || len(problems) == 0 {
		return nil
	}
	ids := make([]uint, len(problems))
	for i, p := range problems {
		ids[i] = p.ID
	}

	likedIDs, err := s.problemRepo.VotedProblemIDs(ctx, userID, ids, models.VoteLike)
	if err != nil {
		return err
	}
	dislikedIDs, err := s.problemRepo.VotedProblemIDs(ctx, userID, ids, models.VoteDislike)
	if err != nil {
		return err
	}

	liked := make(map[uint]bool, len(likedIDs))
	for _, id := range likedIDs {
		liked[id] = true
	}
	disliked := make(map[uint]bool, len(dislikedIDs))
	for _, id := range dislikedIDs {
		disliked[id] = true
	}
	for i := range problems {
		problems[i].Liked = liked[problems[i].ID]
		problems[i].Disliked = disliked[problems[i].ID]
	}
	return nil
}
