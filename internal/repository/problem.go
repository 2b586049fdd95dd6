package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"quarry/internal/cache"
	"quarry/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProblemFilter narrows a problem listing.
type ProblemFilter struct {
	// Field restricts to one category; empty or "all" matches every field.
	Field string
	// Search matches title or description, case-insensitively.
	Search string
	// PosterID restricts to one author when non-zero.
	PosterID uint
}

// ProblemRepository defines the interface for problem data operations,
// including the per-user vote ledger rows.
type ProblemRepository interface {
	Create(ctx context.Context, problem *models.Problem) error
	GetByID(ctx context.Context, id uint) (*models.Problem, error)
	// GetForUpdate loads the problem under a row lock. Vote and comment
	// transactions read through this so two concurrent actors on the same
	// problem serialize instead of overwriting each other's counters.
	GetForUpdate(ctx context.Context, id uint) (*models.Problem, error)
	List(ctx context.Context, filter ProblemFilter, page PageRequest) (Page[models.Problem], error)
	Save(ctx context.Context, problem *models.Problem) error
	// Delete removes the problem and cascades its comments and votes.
	Delete(ctx context.Context, id uint) error
	CountByPosterSince(ctx context.Context, posterID uint, since time.Time) (int64, error)

	// Vote ledger. GetVote returns (nil, nil) when the user holds no vote.
	GetVote(ctx context.Context, userID, problemID uint) (*models.Vote, error)
	CreateVote(ctx context.Context, vote *models.Vote) error
	SaveVote(ctx context.Context, vote *models.Vote) error
	DeleteVote(ctx context.Context, userID, problemID uint) error
	// VotedProblemIDs returns, per direction, which of the given problems
	// the user has voted on.
	VotedProblemIDs(ctx context.Context, userID uint, problemIDs []uint, direction models.VoteDirection) ([]uint, error)
}

type problemRepository struct {
	db *gorm.DB
}

// NewProblemRepository creates a new problem repository
func NewProblemRepository(db *gorm.DB) ProblemRepository {
	return &problemRepository{db: db}
}

func (r *problemRepository) Create(ctx context.Context, problem *models.Problem) error {
	if err := r.db.WithContext(ctx).Create(problem).Error; err != nil {
		return models.NewUnavailableError(err)
	}
	return nil
}

func (r *problemRepository) GetByID(ctx context.Context, id uint) (*models.Problem, error) {
	var problem models.Problem
	key := cache.ProblemKey(id)

	err := cache.Aside(ctx, key, &problem, cache.ProblemTTL, func() error {
		if err := r.db.WithContext(ctx).First(&problem, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Problem", id)
			}
			return models.NewUnavailableError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &problem, nil
}

func (r *problemRepository) GetForUpdate(ctx context.Context, id uint) (*models.Problem, error) {
	q := r.db.WithContext(ctx)
	// SQLite admits a single writer at a time; the row lock matters on Postgres.
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var problem models.Problem
	if err := q.First(&problem, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Problem", id)
		}
		return nil, models.NewUnavailableError(err)
	}
	return &problem, nil
}

func (r *problemRepository) List(ctx context.Context, filter ProblemFilter, page PageRequest) (Page[models.Problem], error) {
	q := r.db.WithContext(ctx).Model(&models.Problem{})

	if filter.Field != "" && filter.Field != "all" {
		q = q.Where("field = ?", filter.Field)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if filter.PosterID != 0 {
		q = q.Where("poster_id = ?", filter.PosterID)
	}

	return Paginate[models.Problem](q, page)
}

func (r *problemRepository) Save(ctx context.Context, problem *models.Problem) error {
	if err := r.db.WithContext(ctx).Save(problem).Error; err != nil {
		return models.NewUnavailableError(err)
	}
	cache.InvalidateProblem(ctx, problem.ID)
	return nil
}

func (r *problemRepository) Delete(ctx context.Context, id uint) error {
	// Comments and votes have no life of their own; drop them with the
	// problem in one statement batch.
	if err := r.db.WithContext(ctx).
		Where("problem_id = ?", id).
		Delete(&models.Comment{}).Error; err != nil {
		return models.NewUnavailableError(err)
	}
	if err := r.db.WithContext(ctx).
		Where("problem_id = ?", id).
		Delete(&models.Vote{}).Error; err != nil {
		return models.NewUnavailableError(err)
	}
	if err := r.db.WithContext(ctx).Delete(&models.Problem{}, id).Error; err != nil {
		return models.NewUnavailableError(err)
	}
	cache.InvalidateProblem(ctx, id)
	return nil
}

func (r *problemRepository) CountByPosterSince(ctx context.Context, posterID uint, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Problem{}).
		Where("poster_id = ? AND created_at >= ?", posterID, since).
		Count(&count).Error; err != nil {
		return 0, models.NewUnavailableError(err)
	}
	return count, nil
}

func (r *problemRepository) GetVote(ctx context.Context, userID, problemID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND problem_id = ?", userID, problemID).
		First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewUnavailableError(err)
	}
	return &vote, nil
}

func (r *problemRepository) CreateVote(ctx context.Context, vote *models.Vote) error {
	if err := r.db.WithContext(ctx).Create(vote).Error; err != nil {
		if isUniqueConstraintError(err) {
			// A concurrent request already recorded this pair; the unique
			// index, not the counter, is the source of truth.
			return models.NewConflictError("Vote already recorded")
		}
		return models.NewUnavailableError(err)
	}
	return nil
}

func (r *problemRepository) SaveVote(ctx context.Context, vote *models.Vote) error {
	if err := r.db.WithContext(ctx).Save(vote).Error; err != nil {
		return models.NewUnavailableError(err)
	}
	return nil
}

func (r *problemRepository) DeleteVote(ctx context.Context, userID, problemID uint) error {
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND problem_id = ?", userID, problemID).
		Delete(&models.Vote{}).Error; err != nil {
		return models.NewUnavailableError(err)
	}
	return nil
}

func (r *problemRepository) VotedProblemIDs(ctx context.Context, userID uint, problemIDs []uint, direction models.VoteDirection) ([]uint, error) {
	if len(problemIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Vote{}).
		Where("user_id = ? AND direction = ? AND problem_id IN ?", userID, direction, problemIDs).
		Pluck("problem_id", &ids).Error
	if err != nil {
		return nil, models.NewUnavailableError(err)
	}
	return ids, nil
}
