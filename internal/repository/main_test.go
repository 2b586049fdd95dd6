package repository

import (
	"fmt"
	"testing"

	"quarry/internal/database"
	"quarry/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a fresh in-memory database per test with the full schema
// applied. Behavior tests run against it; SQL-shape tests use sqlmock instead.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every statement on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, n int) *models.User {
	t.Helper()

	user := &models.User{
		FullName:     fmt.Sprintf("User %d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		Password:     "hashed-password",
		Field:        models.FieldTechnology,
		Profession:   "Engineer",
		ReferralCode: fmt.Sprintf("U%05d", n),
		Verified:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestProblem(t *testing.T, db *gorm.DB, poster *models.User, title string) *models.Problem {
	t.Helper()

	problem := &models.Problem{
		Title:            title,
		Field:            models.FieldTechnology,
		Description:      "description of " + title,
		PosterID:         poster.ID,
		PosterName:       poster.FullName,
		PosterProfession: poster.Profession,
	}
	require.NoError(t, db.Create(problem).Error)
	return problem
}
