package service

import (
	"context"
	"testing"
	"time"

	"quarry/internal/models"
	"quarry/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProblemService(users *userRepoStub, problems *problemRepoStub, comments *commentRepoStub) *ProblemService {
	return NewProblemService(stubUOW(users, problems, comments), problems, comments, users)
}

func validCreateProblem() CreateProblemInput {
	return CreateProblemInput{
		PosterID:    1,
		Title:       "Rural clinics lack supply tracking",
		Field:       models.FieldHealthcare,
		Description: "Inventory is tracked on paper and restocking is guesswork.",
	}
}

func TestProblemService_CreateProblem_Validation(t *testing.T) {
	t.Parallel()

	svc := newProblemService(noopUserRepo(), noopProblemRepo(), noopCommentRepo())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateProblemInput)
	}{
		{"missing title", func(in *CreateProblemInput) { in.Title = "" }},
		{"unknown field", func(in *CreateProblemInput) { in.Field = "Astrology" }},
		{"missing description", func(in *CreateProblemInput) { in.Description = "" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := validCreateProblem()
			tt.mutate(&in)
			_, err := svc.CreateProblem(ctx, in)
			assertValidationError(t, err)
		})
	}
}

func TestProblemService_CreateProblem_DailyLimit(t *testing.T) {
	t.Parallel()

	problems := noopProblemRepo()
	problems.countByPosterSinceFn = func(_ context.Context, _ uint, since time.Time) (int64, error) {
		assert.WithinDuration(t, time.Now().Add(-24*time.Hour), since, time.Minute)
		return 1, nil
	}
	created := false
	problems.createFn = func(_ context.Context, _ *models.Problem) error {
		created = true
		return nil
	}

	svc := newProblemService(noopUserRepo(), problems, noopCommentRepo())
	_, err := svc.CreateProblem(context.Background(), validCreateProblem())
	assertForbiddenError(t, err)
	assert.False(t, created)
}

func TestProblemService_CreateProblem_Success(t *testing.T) {
	t.Parallel()

	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, FullName: "Ada Lovelace", Profession: "Mathematician"}, nil
	}
	var credited repository.CreditSource
	users.creditFn = func(_ context.Context, userID uint, source repository.CreditSource, amount float64) error {
		require.Equal(t, uint(1), userID)
		require.InDelta(t, models.RewardPost, amount, 1e-9)
		credited = source
		return nil
	}

	svc := newProblemService(users, noopProblemRepo(), noopCommentRepo())
	problem, err := svc.CreateProblem(context.Background(), validCreateProblem())
	require.NoError(t, err)

	assert.NotZero(t, problem.ID)
	assert.Equal(t, "Ada Lovelace", problem.PosterName)
	assert.Equal(t, "Mathematician", problem.PosterProfession)
	assert.Equal(t, repository.CreditPosts, credited)
}

func TestProblemService_UpdateProblem_Ownership(t *testing.T) {
	t.Parallel()

	problems := noopProblemRepo()
	problems.getByIDFn = func(_ context.Context, id uint) (*models.Problem, error) {
		return &models.Problem{ID: id, PosterID: 10, Title: "original"}, nil
	}

	svc := newProblemService(noopUserRepo(), problems, noopCommentRepo())
	_, err := svc.UpdateProblem(context.Background(), UpdateProblemInput{
		UserID:    1,
		ProblemID: 1,
		Title:     "hijacked",
	})
	assertForbiddenError(t, err)
}

func TestProblemService_UpdateProblem_PartialUpdate(t *testing.T) {
	t.Parallel()

	problems := noopProblemRepo()
	problems.getByIDFn = func(_ context.Context, id uint) (*models.Problem, error) {
		return &models.Problem{
			ID:          id,
			PosterID:    1,
			Title:       "old title",
			Field:       models.FieldTechnology,
			Description: "old description",
		}, nil
	}
	var saved *models.Problem
	problems.saveFn = func(_ context.Context, p *models.Problem) error {
		saved = p
		return nil
	}

	svc := newProblemService(noopUserRepo(), problems, noopCommentRepo())
	problem, err := svc.UpdateProblem(context.Background(), UpdateProblemInput{
		UserID:    1,
		ProblemID: 1,
		Title:     "new title",
	})
	require.NoError(t, err)
	assert.Equal(t, "new title", problem.Title)
	assert.Equal(t, "old description", problem.Description)
	require.NotNil(t, saved)
}

func TestProblemService_DeleteProblem_Ownership(t *testing.T) {
	t.Parallel()

	problems := noopProblemRepo()
	problems.getByIDFn = func(_ context.Context, id uint) (*models.Problem, error) {
		return &models.Problem{ID: id, PosterID: 10}, nil
	}
	deleted := false
	problems.deleteFn = func(_ context.Context, _ uint) error {
		deleted = true
		return nil
	}

	svc := newProblemService(noopUserRepo(), problems, noopCommentRepo())

	err := svc.DeleteProblem(context.Background(), 1, 1)
	assertForbiddenError(t, err)
	assert.False(t, deleted)

	require.NoError(t, svc.DeleteProblem(context.Background(), 10, 1))
	assert.True(t, deleted)
}

func TestProblemService_ListProblems_SortMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sort      string
		wantField string
		wantOrder repository.SortOrder
	}{
		{"", models.ProblemSortScore, repository.SortDesc},
		{"score", models.ProblemSortScore, repository.SortDesc},
		{"latest", models.ProblemSortCreatedAt, repository.SortDesc},
		{"oldest", models.ProblemSortCreatedAt, repository.SortAsc},
		{"mostLiked", models.ProblemSortLikeCount, repository.SortDesc},
		{"mostCommented", models.ProblemSortCommentCount, repository.SortDesc},
	}

	for _, tt := range tests {
		tt := tt
		t.Run("sort "+tt.sort, func(t *testing.T) {
			t.Parallel()
			problems := noopProblemRepo()
			problems.listFn = func(_ context.Context, _ repository.ProblemFilter, pr repository.PageRequest) (repository.Page[models.Problem], error) {
				assert.Equal(t, tt.wantField, pr.SortField)
				assert.Equal(t, tt.wantOrder, pr.Order)
				return repository.Page[models.Problem]{}, nil
			}
			svc := newProblemService(noopUserRepo(), problems, noopCommentRepo())
			_, err := svc.ListProblems(context.Background(), ListProblemsInput{Sort: tt.sort})
			require.NoError(t, err)
		})
	}

	t.Run("unknown sort", func(t *testing.T) {
		t.Parallel()
		svc := newProblemService(noopUserRepo(), noopProblemRepo(), noopCommentRepo())
		_, err := svc.ListProblems(context.Background(), ListProblemsInput{Sort: "bestest"})
		assertValidationError(t, err)
	})
}

func TestProblemService_ListProblems_AttachesVoteState(t *testing.T) {
	t.Parallel()

	problems := noopProblemRepo()
	problems.listFn = func(_ context.Context, _ repository.ProblemFilter, _ repository.PageRequest) (repository.Page[models.Problem], error) {
		return repository.Page[models.Problem]{
			Items: []models.Problem{{ID: 1}, {ID: 2}, {ID: 3}},
		}, nil
	}
	problems.votedProblemIDsFn = func(_ context.Context, userID uint, ids []uint, d models.VoteDirection) ([]uint, error) {
		assert.Equal(t, uint(9), userID)
		assert.Equal(t, []uint{1, 2, 3}, ids)
		if d == models.VoteLike {
			return []uint{1}, nil
		}
		return []uint{3}, nil
	}

	svc := newProblemService(noopUserRepo(), problems, noopCommentRepo())
	page, err := svc.ListProblems(context.Background(), ListProblemsInput{CurrentUserID: 9})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	assert.True(t, page.Items[0].Liked)
	assert.False(t, page.Items[0].Disliked)
	assert.False(t, page.Items[1].Liked)
	assert.False(t, page.Items[1].Disliked)
	assert.True(t, page.Items[2].Disliked)
}

func TestProblemService_GetProblem_Detail(t *testing.T) {
	t.Parallel()

	problems := noopProblemRepo()
	problems.getByIDFn = func(_ context.Context, id uint) (*models.Problem, error) {
		return &models.Problem{ID: id, Title: "detail"}, nil
	}
	problems.getVoteFn = func(_ context.Context, userID, problemID uint) (*models.Vote, error) {
		return &models.Vote{UserID: userID, ProblemID: problemID, Direction: models.VoteDislike}, nil
	}
	comments := noopCommentRepo()
	comments.recentByProblemFn = func(_ context.Context, _ uint, limit int) ([]models.Comment, error) {
		assert.Equal(t, recentCommentsShown, limit)
		return []models.Comment{{ID: 1, Text: "newest"}}, nil
	}

	svc := newProblemService(noopUserRepo(), problems, comments)
	detail, err := svc.GetProblem(context.Background(), 1, 9)
	require.NoError(t, err)

	assert.Equal(t, "detail", detail.Problem.Title)
	assert.True(t, detail.Problem.Disliked)
	assert.False(t, detail.Problem.Liked)
	require.Len(t, detail.RecentComments, 1)
}

func TestProblemService_ListComments_ProblemMissing(t *testing.T) {
	t.Parallel()

	problems := noopProblemRepo()
	problems.getByIDFn = func(_ context.Context, id uint) (*models.Problem, error) {
		return nil, models.NewNotFoundError("Problem", id)
	}
	svc := newProblemService(noopUserRepo(), problems, noopCommentRepo())

	_, err := svc.ListComments(context.Background(), ListCommentsInput{ProblemID: 99})
	assertAppErrorCode(t, err, models.CodeNotFound)
}
