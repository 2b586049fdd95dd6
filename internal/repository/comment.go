package repository

import (
	"context"
	"errors"

	"quarry/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByProblem(ctx context.Context, problemID uint, page PageRequest) (Page[models.Comment], error)
	RecentByProblem(ctx context.Context, problemID uint, limit int) ([]models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewUnavailableError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewUnavailableError(err)
	}
	return &comment, nil
}

func (r *commentRepository) ListByProblem(ctx context.Context, problemID uint, page PageRequest) (Page[models.Comment], error) {
	q := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("problem_id = ?", problemID)
	return Paginate[models.Comment](q, page)
}

func (r *commentRepository) RecentByProblem(ctx context.Context, problemID uint, limit int) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("problem_id = ?", problemID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, models.NewUnavailableError(err)
	}
	return comments, nil
}
