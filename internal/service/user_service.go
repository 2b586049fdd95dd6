package service

import (
	"context"

	"quarry/internal/models"
	"quarry/internal/repository"
	"quarry/internal/validation"
)

// UserService serves profile, wallet, and referral reads.
type UserService struct {
	userRepo    repository.UserRepository
	problemRepo repository.ProblemRepository
}

// WalletBreakdown is a user's balance split by earning source.
type WalletBreakdown struct {
	WalletCoins       float64 `json:"wallet_coins"`
	CoinsFromLikes    float64 `json:"coins_from_likes"`
	CoinsFromComments float64 `json:"coins_from_comments"`
	CoinsFromReferral float64 `json:"coins_from_referral"`
	CoinsFromPosts    float64 `json:"coins_from_posts"`
}

func NewUserService(userRepo repository.UserRepository, problemRepo repository.ProblemRepository) *UserService {
	return &UserService{userRepo: userRepo, problemRepo: problemRepo}
}

type UpdateProfileInput struct {
	UserID     uint
	FullName   string
	Field      string
	Profession string
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile revises the fields a user may change about themselves. Empty
// inputs leave the current value alone. Problem and comment snapshots keep
// the identity they captured at write time.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.FullName != "" {
		if err := validation.ValidateFullName(in.FullName); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.FullName = in.FullName
	}
	if in.Field != "" {
		if !models.ValidProblemField(in.Field) {
			return nil, models.NewValidationError("Invalid field")
		}
		user.Field = in.Field
	}
	if in.Profession != "" {
		user.Profession = in.Profession
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetWallet(ctx context.Context, userID uint) (*WalletBreakdown, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &WalletBreakdown{
		WalletCoins:       user.WalletCoins,
		CoinsFromLikes:    user.CoinsFromLikes,
		CoinsFromComments: user.CoinsFromComments,
		CoinsFromReferral: user.CoinsFromReferral,
		CoinsFromPosts:    user.CoinsFromPosts,
	}, nil
}

func (s *UserService) ListReferrals(ctx context.Context, userID uint) ([]models.ReferralEntry, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.userRepo.ListReferrals(ctx, userID)
}

// ListOwnProblems pages through the problems a user has posted, newest first.
func (s *UserService) ListOwnProblems(ctx context.Context, userID uint, cursor string, limit int) (repository.Page[models.Problem], error) {
	return s.problemRepo.List(ctx,
		repository.ProblemFilter{PosterID: userID},
		repository.PageRequest{
			SortField: models.ProblemSortCreatedAt,
			Order:     repository.SortDesc,
			Limit:     limit,
			Cursor:    cursor,
		})
}
