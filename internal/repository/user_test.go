package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"quarry/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1`)).
		WithArgs("ada@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name", "email"}).
			AddRow(1, "Ada", "ada@example.com"))

	user, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Ada", user.FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail_MissingIsNotAnError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE email = $1`)).
		WithArgs("ghost@example.com", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	user, err := repo.GetByEmail(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(errors.New(`duplicate key value violates unique constraint "uni_users_email" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	err := repo.Create(ctx, &models.User{
		FullName:     "Ada",
		Email:        "ada@example.com",
		Password:     "hashed",
		ReferralCode: "AAAAAA",
	})

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeConflict, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Credit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	user := createTestUser(t, db, 1)

	require.NoError(t, repo.Credit(ctx, user.ID, CreditLikes, models.RewardLike))
	require.NoError(t, repo.Credit(ctx, user.ID, CreditPosts, models.RewardPost))
	require.NoError(t, repo.Credit(ctx, user.ID, CreditComments, models.RewardComment))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.InDelta(t, models.RewardLike, got.CoinsFromLikes, 1e-9)
	assert.InDelta(t, models.RewardPost, got.CoinsFromPosts, 1e-9)
	assert.InDelta(t, models.RewardComment, got.CoinsFromComments, 1e-9)

	sum := got.CoinsFromLikes + got.CoinsFromComments + got.CoinsFromReferral + got.CoinsFromPosts
	assert.InDelta(t, sum, got.WalletCoins, 1e-9)
}

func TestUserRepository_Credit_MissingUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	err := repo.Credit(ctx, 4242, CreditLikes, models.RewardLike)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeDependencyMissing, appErr.Code)
}

func TestUserRepository_RecordReferral(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	referrer := createTestUser(t, db, 1)

	err := repo.RecordReferral(ctx, referrer.ID, &models.ReferralEntry{
		Name:       "New Member",
		Email:      "new@example.com",
		Profession: "Designer",
		JoinedAt:   time.Now(),
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReferralCount)
	assert.InDelta(t, models.RewardReferrer, got.WalletCoins, 1e-9)
	assert.InDelta(t, models.RewardReferrer, got.CoinsFromReferral, 1e-9)

	var entries []models.ReferralEntry
	require.NoError(t, db.Where("referrer_id = ?", referrer.ID).Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, "new@example.com", entries[0].Email)
}

func TestUserRepository_ReferralCodeExists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	user := createTestUser(t, db, 1)

	exists, err := repo.ReferralCodeExists(ctx, user.ReferralCode)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ReferralCodeExists(ctx, "ZZZZZZ")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.False(t, isUniqueConstraintError(nil))
	assert.False(t, isUniqueConstraintError(errors.New("connection refused")))
	assert.True(t, isUniqueConstraintError(errors.New("ERROR: duplicate key value (SQLSTATE 23505)")))
	assert.True(t, isUniqueConstraintError(errors.New("UNIQUE constraint failed: votes.user_id, votes.problem_id")))
}
