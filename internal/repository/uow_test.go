package repository

import (
	"context"
	"errors"
	"testing"

	"quarry/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_Commit(t *testing.T) {
	db := setupTestDB(t)
	uow := NewUnitOfWork(db)
	repos := NewRepos(db)
	ctx := context.Background()
	poster := createTestUser(t, db, 1)
	problem := createTestProblem(t, db, poster, "committed together")

	err := uow.InTx(ctx, func(tx *Repos) error {
		if err := tx.Problems.CreateVote(ctx, &models.Vote{
			UserID:    poster.ID,
			ProblemID: problem.ID,
			Direction: models.VoteLike,
		}); err != nil {
			return err
		}
		return tx.Users.Credit(ctx, poster.ID, CreditLikes, models.RewardLike)
	})
	require.NoError(t, err)

	vote, err := repos.Problems.GetVote(ctx, poster.ID, problem.ID)
	require.NoError(t, err)
	require.NotNil(t, vote)

	user, err := repos.Users.GetByID(ctx, poster.ID)
	require.NoError(t, err)
	assert.InDelta(t, models.RewardLike, user.CoinsFromLikes, 1e-9)
}

// A failure after a successful statement must roll back the whole unit.
func TestUnitOfWork_RollbackOnError(t *testing.T) {
	db := setupTestDB(t)
	uow := NewUnitOfWork(db)
	repos := NewRepos(db)
	ctx := context.Background()
	poster := createTestUser(t, db, 1)
	problem := createTestProblem(t, db, poster, "never voted")

	boom := errors.New("downstream failure")
	err := uow.InTx(ctx, func(tx *Repos) error {
		if err := tx.Problems.CreateVote(ctx, &models.Vote{
			UserID:    poster.ID,
			ProblemID: problem.ID,
			Direction: models.VoteLike,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	vote, err := repos.Problems.GetVote(ctx, poster.ID, problem.ID)
	require.NoError(t, err)
	assert.Nil(t, vote)
}
