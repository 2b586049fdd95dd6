package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repos bundles the repositories bound to one database handle. Inside a unit
// of work every repository shares the same transaction.
type Repos struct {
	Users    UserRepository
	Problems ProblemRepository
	Comments CommentRepository
}

// NewRepos constructs the repository bundle for the given handle.
func NewRepos(db *gorm.DB) *Repos {
	return &Repos{
		Users:    NewUserRepository(db),
		Problems: NewProblemRepository(db),
		Comments: NewCommentRepository(db),
	}
}

// UnitOfWork runs a function against transaction-scoped repositories and
// guarantees commit-or-rollback as a whole. It is the only place allowed to
// mutate a problem together with a user wallet.
type UnitOfWork interface {
	InTx(ctx context.Context, fn func(tx *Repos) error) error
}

type gormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork returns a UnitOfWork backed by gorm transactions.
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) InTx(ctx context.Context, fn func(tx *Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepos(tx))
	})
}
