// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"quarry/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const referralCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	db        *gorm.DB
	r         *rand.Rand
	usedCodes map[string]bool
	seq       int

	// All seed users share one cheap password hash ("password123").
	passwordHash string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	return &Factory{
		db: db,
		//nolint:gosec // weak randomness is fine for seeding
		r:            rand.New(rand.NewSource(time.Now().UnixNano())),
		usedCodes:    map[string]bool{},
		passwordHash: string(hash),
	}
}

func (f *Factory) referralCode() string {
	for {
		b := make([]byte, 6)
		for i := range b {
			b[i] = referralCodeCharset[f.r.Intn(len(referralCodeCharset))]
		}
		code := string(b)
		if !f.usedCodes[code] {
			f.usedCodes[code] = true
			return code
		}
	}
}

// pastTime draws a timestamp spread over the last maxDays days, never before
// the given floor.
func (f *Factory) pastTime(floor time.Time, maxDays int) time.Time {
	back := time.Duration(f.r.Intn(maxDays*24*60)) * time.Minute
	t := time.Now().Add(-back)
	if t.Before(floor) && !floor.IsZero() {
		t = floor.Add(time.Duration(f.r.Intn(60)+1) * time.Minute)
	}
	return t
}

// CreateUser constructs and persists a verified sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	f.seq++
	user := &models.User{
		FullName:     gofakeit.Name(),
		Email:        fmt.Sprintf("%s.%d@example.com", strings.ToLower(gofakeit.LastName()), f.seq),
		Password:     f.passwordHash,
		Field:        models.ProblemFields[f.r.Intn(len(models.ProblemFields))],
		Profession:   gofakeit.JobTitle(),
		ReferralCode: f.referralCode(),
		Verified:     true,
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateProblem constructs and persists a sample problem posted by the given
// user, with a realistic created_at spread.
func (f *Factory) CreateProblem(poster *models.User, overrides ...func(*models.Problem)) (*models.Problem, error) {
	problem := &models.Problem{
		Title:            strings.TrimSuffix(gofakeit.Sentence(6), "."),
		Field:            poster.Field,
		Description:      gofakeit.Paragraph(1, 3, 8, "\n"),
		PosterID:         poster.ID,
		PosterName:       poster.FullName,
		PosterProfession: poster.Profession,
		CreatedAt:        f.pastTime(time.Time{}, 90),
	}

	for _, override := range overrides {
		override(problem)
	}

	if err := f.db.Create(problem).Error; err != nil {
		return nil, err
	}
	return problem, nil
}

// CreateComment persists a comment on the problem with the author identity
// snapshotted, dated after the problem itself.
func (f *Factory) CreateComment(user *models.User, problem *models.Problem, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		ProblemID:      problem.ID,
		UserID:         user.ID,
		UserName:       user.FullName,
		UserProfession: user.Profession,
		Text:           gofakeit.Sentence(10),
		CreatedAt:      f.pastTime(problem.CreatedAt, 30),
	}

	for _, override := range overrides {
		override(comment)
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateVote persists a vote from `user` on `problem`.
func (f *Factory) CreateVote(user *models.User, problem *models.Problem, direction models.VoteDirection) error {
	vote := &models.Vote{
		UserID:    user.ID,
		ProblemID: problem.ID,
		Direction: direction,
		CreatedAt: f.pastTime(problem.CreatedAt, 30),
	}
	return f.db.Create(vote).Error
}
