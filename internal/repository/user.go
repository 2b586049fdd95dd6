// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"quarry/internal/cache"
	"quarry/internal/models"

	"gorm.io/gorm"
)

// CreditSource identifies the per-source earning counter a wallet credit
// belongs to. Every credit increments both the wallet and exactly one
// counter, which keeps the wallet equal to the sum of its sources.
type CreditSource string

const (
	CreditLikes    CreditSource = "coins_from_likes"
	CreditComments CreditSource = "coins_from_comments"
	CreditReferral CreditSource = "coins_from_referral"
	CreditPosts    CreditSource = "coins_from_posts"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByEmail returns (nil, nil) when no user matches.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByReferralCode returns (nil, nil) when no user matches.
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	// Credit atomically increments the wallet and the per-source counter.
	// Returns DependencyMissing when the user row does not exist.
	Credit(ctx context.Context, userID uint, source CreditSource, amount float64) error
	// RecordReferral appends to the referrer's log and bumps their counters.
	RecordReferral(ctx context.Context, referrerID uint, entry *models.ReferralEntry) error
	ListReferrals(ctx context.Context, referrerID uint) ([]models.ReferralEntry, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewUnavailableError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewUnavailableError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewUnavailableError(err)
	}
	return &user, nil
}

func (r *userRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("referral_code = ?", code).
		Count(&count).Error; err != nil {
		return false, models.NewUnavailableError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Email or referral code already registered")
		}
		return models.NewUnavailableError(err)
	}
	return nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Email or referral code already registered")
		}
		return models.NewUnavailableError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) Credit(ctx context.Context, userID uint, source CreditSource, amount float64) error {
	column := string(source)
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"wallet_coins": gorm.Expr("wallet_coins + ?", amount),
			column:         gorm.Expr(column+" + ?", amount),
		})
	if res.Error != nil {
		return models.NewUnavailableError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewDependencyMissingError("User", userID)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

func (r *userRepository) RecordReferral(ctx context.Context, referrerID uint, entry *models.ReferralEntry) error {
	entry.ReferrerID = referrerID
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return models.NewUnavailableError(err)
	}
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", referrerID).
		Updates(map[string]interface{}{
			"referral_count":      gorm.Expr("referral_count + 1"),
			"wallet_coins":        gorm.Expr("wallet_coins + ?", models.RewardReferrer),
			"coins_from_referral": gorm.Expr("coins_from_referral + ?", models.RewardReferrer),
		})
	if res.Error != nil {
		return models.NewUnavailableError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewDependencyMissingError("User", referrerID)
	}
	cache.InvalidateUser(ctx, referrerID)
	return nil
}

func (r *userRepository) ListReferrals(ctx context.Context, referrerID uint) ([]models.ReferralEntry, error) {
	var entries []models.ReferralEntry
	err := r.db.WithContext(ctx).
		Where("referrer_id = ?", referrerID).
		Order("joined_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, models.NewUnavailableError(err)
	}
	return entries, nil
}
