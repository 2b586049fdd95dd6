package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"quarry/internal/models"
	"quarry/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn            func(context.Context, uint) (*models.User, error)
	getByEmailFn         func(context.Context, string) (*models.User, error)
	getByReferralCodeFn  func(context.Context, string) (*models.User, error)
	referralCodeExistsFn func(context.Context, string) (bool, error)
	createFn             func(context.Context, *models.User) error
	updateFn             func(context.Context, *models.User) error
	creditFn             func(context.Context, uint, repository.CreditSource, float64) error
	recordReferralFn     func(context.Context, uint, *models.ReferralEntry) error
	listReferralsFn      func(context.Context, uint) ([]models.ReferralEntry, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return s.getByReferralCodeFn(ctx, code)
}
func (s *userRepoStub) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	return s.referralCodeExistsFn(ctx, code)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Credit(ctx context.Context, userID uint, source repository.CreditSource, amount float64) error {
	return s.creditFn(ctx, userID, source, amount)
}
func (s *userRepoStub) RecordReferral(ctx context.Context, referrerID uint, entry *models.ReferralEntry) error {
	return s.recordReferralFn(ctx, referrerID, entry)
}
func (s *userRepoStub) ListReferrals(ctx context.Context, referrerID uint) ([]models.ReferralEntry, error) {
	return s.listReferralsFn(ctx, referrerID)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, FullName: "Test User", Profession: "Engineer"}, nil
		},
		getByEmailFn:         func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByReferralCodeFn:  func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		referralCodeExistsFn: func(_ context.Context, _ string) (bool, error) { return false, nil },
		createFn: func(_ context.Context, u *models.User) error {
			u.ID = 1
			return nil
		},
		updateFn:         func(_ context.Context, _ *models.User) error { return nil },
		creditFn:         func(_ context.Context, _ uint, _ repository.CreditSource, _ float64) error { return nil },
		recordReferralFn: func(_ context.Context, _ uint, _ *models.ReferralEntry) error { return nil },
		listReferralsFn:  func(_ context.Context, _ uint) ([]models.ReferralEntry, error) { return nil, nil },
	}
}

// problemRepoStub is a stub for repository.ProblemRepository.
type problemRepoStub struct {
	createFn             func(context.Context, *models.Problem) error
	getByIDFn            func(context.Context, uint) (*models.Problem, error)
	getForUpdateFn       func(context.Context, uint) (*models.Problem, error)
	listFn               func(context.Context, repository.ProblemFilter, repository.PageRequest) (repository.Page[models.Problem], error)
	saveFn               func(context.Context, *models.Problem) error
	deleteFn             func(context.Context, uint) error
	countByPosterSinceFn func(context.Context, uint, time.Time) (int64, error)
	getVoteFn            func(context.Context, uint, uint) (*models.Vote, error)
	createVoteFn         func(context.Context, *models.Vote) error
	saveVoteFn           func(context.Context, *models.Vote) error
	deleteVoteFn         func(context.Context, uint, uint) error
	votedProblemIDsFn    func(context.Context, uint, []uint, models.VoteDirection) ([]uint, error)
}

func (s *problemRepoStub) Create(ctx context.Context, p *models.Problem) error {
	return s.createFn(ctx, p)
}
func (s *problemRepoStub) GetByID(ctx context.Context, id uint) (*models.Problem, error) {
	return s.getByIDFn(ctx, id)
}
func (s *problemRepoStub) GetForUpdate(ctx context.Context, id uint) (*models.Problem, error) {
	return s.getForUpdateFn(ctx, id)
}
func (s *problemRepoStub) List(ctx context.Context, f repository.ProblemFilter, pr repository.PageRequest) (repository.Page[models.Problem], error) {
	return s.listFn(ctx, f, pr)
}
func (s *problemRepoStub) Save(ctx context.Context, p *models.Problem) error {
	return s.saveFn(ctx, p)
}
func (s *problemRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *problemRepoStub) CountByPosterSince(ctx context.Context, posterID uint, since time.Time) (int64, error) {
	return s.countByPosterSinceFn(ctx, posterID, since)
}
func (s *problemRepoStub) GetVote(ctx context.Context, userID, problemID uint) (*models.Vote, error) {
	return s.getVoteFn(ctx, userID, problemID)
}
func (s *problemRepoStub) CreateVote(ctx context.Context, v *models.Vote) error {
	return s.createVoteFn(ctx, v)
}
func (s *problemRepoStub) SaveVote(ctx context.Context, v *models.Vote) error {
	return s.saveVoteFn(ctx, v)
}
func (s *problemRepoStub) DeleteVote(ctx context.Context, userID, problemID uint) error {
	return s.deleteVoteFn(ctx, userID, problemID)
}
func (s *problemRepoStub) VotedProblemIDs(ctx context.Context, userID uint, ids []uint, d models.VoteDirection) ([]uint, error) {
	return s.votedProblemIDsFn(ctx, userID, ids, d)
}

func noopProblemRepo() *problemRepoStub {
	return &problemRepoStub{
		createFn: func(_ context.Context, p *models.Problem) error {
			p.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Problem, error) {
			return &models.Problem{ID: id, PosterID: 1, Title: "stub"}, nil
		},
		getForUpdateFn: func(_ context.Context, id uint) (*models.Problem, error) {
			return &models.Problem{ID: id, PosterID: 1, Title: "stub"}, nil
		},
		listFn: func(_ context.Context, _ repository.ProblemFilter, _ repository.PageRequest) (repository.Page[models.Problem], error) {
			return repository.Page[models.Problem]{}, nil
		},
		saveFn:               func(_ context.Context, _ *models.Problem) error { return nil },
		deleteFn:             func(_ context.Context, _ uint) error { return nil },
		countByPosterSinceFn: func(_ context.Context, _ uint, _ time.Time) (int64, error) { return 0, nil },
		getVoteFn:            func(_ context.Context, _, _ uint) (*models.Vote, error) { return nil, nil },
		createVoteFn:         func(_ context.Context, _ *models.Vote) error { return nil },
		saveVoteFn:           func(_ context.Context, _ *models.Vote) error { return nil },
		deleteVoteFn:         func(_ context.Context, _, _ uint) error { return nil },
		votedProblemIDsFn: func(_ context.Context, _ uint, _ []uint, _ models.VoteDirection) ([]uint, error) {
			return nil, nil
		},
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn          func(context.Context, *models.Comment) error
	getByIDFn         func(context.Context, uint) (*models.Comment, error)
	listByProblemFn   func(context.Context, uint, repository.PageRequest) (repository.Page[models.Comment], error)
	recentByProblemFn func(context.Context, uint, int) ([]models.Comment, error)
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByProblem(ctx context.Context, problemID uint, pr repository.PageRequest) (repository.Page[models.Comment], error) {
	return s.listByProblemFn(ctx, problemID, pr)
}
func (s *commentRepoStub) RecentByProblem(ctx context.Context, problemID uint, limit int) ([]models.Comment, error) {
	return s.recentByProblemFn(ctx, problemID, limit)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error {
			c.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) {
			return &models.Comment{ID: id}, nil
		},
		listByProblemFn: func(_ context.Context, _ uint, _ repository.PageRequest) (repository.Page[models.Comment], error) {
			return repository.Page[models.Comment]{}, nil
		},
		recentByProblemFn: func(_ context.Context, _ uint, _ int) ([]models.Comment, error) { return nil, nil },
	}
}

// uowStub satisfies repository.UnitOfWork by running the function against a
// fixed bundle of stubs. Rollback semantics are covered by the repository
// integration tests; here only error propagation matters.
type uowStub struct {
	repos *repository.Repos
}

func (u *uowStub) InTx(_ context.Context, fn func(tx *repository.Repos) error) error {
	return fn(u.repos)
}

func stubUOW(users *userRepoStub, problems *problemRepoStub, comments *commentRepoStub) *uowStub {
	return &uowStub{repos: &repository.Repos{
		Users:    users,
		Problems: problems,
		Comments: comments,
	}}
}

// mailerStub records OTP sends.
type mailerStub struct {
	sent []string
	err  error
}

func (m *mailerStub) SendOTP(_ context.Context, to, _, code string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to+":"+code)
	return nil
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeValidation)
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertAppErrorCode(t, err, models.CodeForbidden)
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
