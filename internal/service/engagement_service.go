package service

import (
	"context"
	"errors"

	"quarry/internal/cache"
	"quarry/internal/middleware"
	"quarry/internal/models"
	"quarry/internal/repository"
)

const maxCommentLen = 5000

// EngagementService coordinates vote and comment mutations. Each mutation is
// one transaction: ledger change, counter update, score recompute, and any
// wallet credit commit or roll back together. The single exception is a
// credit whose target user vanished mid-flight: the primary mutation still
// commits and the skipped credit is logged and counted.
type EngagementService struct {
	uow repository.UnitOfWork
}

type VoteInput struct {
	UserID    uint
	ProblemID uint
	Direction string
}

type AddCommentInput struct {
	UserID    uint
	ProblemID uint
	Text      string
}

func NewEngagementService(uow repository.UnitOfWork) *EngagementService {
	return &EngagementService{uow: uow}
}

// Vote applies one user's vote to a problem: a repeated direction retracts,
// an opposite direction flips, no prior vote adds. Only a newly added like
// earns the actor coins.
func (s *EngagementService) Vote(ctx context.Context, in VoteInput) (*models.VoteOutcome, error) {
	direction, err := models.ParseVoteDirection(in.Direction)
	if err != nil {
		return nil, err
	}

	var outcome models.VoteOutcome
	err = s.uow.InTx(ctx, func(tx *repository.Repos) error {
		// Locked read: a concurrent vote on the same problem waits here, so
		// the counters written below never clobber another actor's change.
		problem, err := tx.Problems.GetForUpdate(ctx, in.ProblemID)
		if err != nil {
			return err
		}

		existing, err := tx.Problems.GetVote(ctx, in.UserID, in.ProblemID)
		if err != nil {
			return err
		}

		switch {
		case existing == nil:
			if err := tx.Problems.CreateVote(ctx, &models.Vote{
				UserID:    in.UserID,
				ProblemID: in.ProblemID,
				Direction: direction,
			}); err != nil {
				return err
			}
			adjustCount(problem, direction, +1)
			outcome.Active = true
			outcome.CreditDue = direction == models.VoteLike

		case existing.Direction == direction:
			if err := tx.Problems.DeleteVote(ctx, in.UserID, in.ProblemID); err != nil {
				return err
			}
			adjustCount(problem, direction, -1)
			outcome.Active = false

		default:
			existing.Direction = direction
			if err := tx.Problems.SaveVote(ctx, existing); err != nil {
				return err
			}
			adjustCount(problem, oppositeOf(direction), -1)
			adjustCount(problem, direction, +1)
			outcome.Active = true
		}

		problem.Score = models.Score(problem.LikeCount, problem.DislikeCount, problem.CommentCount)
		if err := tx.Problems.Save(ctx, problem); err != nil {
			return err
		}

		outcome.Direction = direction
		outcome.LikeCount = problem.LikeCount
		outcome.DislikeCount = problem.DislikeCount
		outcome.Score = problem.Score

		if outcome.CreditDue {
			return s.credit(ctx, tx, in.UserID, repository.CreditLikes, models.RewardLike)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := "retracted"
	if outcome.Active {
		result = "active"
	}
	middleware.VotesApplied.WithLabelValues(direction.String(), result).Inc()

	return &outcome, nil
}

// AddComment appends an immutable comment, bumps the comment count, rescores
// the problem, and credits the author, all in one transaction.
func (s *EngagementService) AddComment(ctx context.Context, in AddCommentInput) (*models.Comment, error) {
	if in.Text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if len(in.Text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 5000 characters)")
	}

	var comment *models.Comment
	err := s.uow.InTx(ctx, func(tx *repository.Repos) error {
		problem, err := tx.Problems.GetForUpdate(ctx, in.ProblemID)
		if err != nil {
			return err
		}
		author, err := tx.Users.GetByID(ctx, in.UserID)
		if err != nil {
			return err
		}

		comment = &models.Comment{
			ProblemID:      in.ProblemID,
			UserID:         author.ID,
			UserName:       author.FullName,
			UserProfession: author.Profession,
			Text:           in.Text,
		}
		if err := tx.Comments.Create(ctx, comment); err != nil {
			return err
		}

		problem.CommentCount++
		problem.Score = models.Score(problem.LikeCount, problem.DislikeCount, problem.CommentCount)
		if err := tx.Problems.Save(ctx, problem); err != nil {
			return err
		}

		return s.credit(ctx, tx, in.UserID, repository.CreditComments, models.RewardComment)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// credit applies a wallet credit inside the transaction. A missing target
// user must not roll back the mutation the credit rides on, so that one
// error is absorbed here; storage failures still abort the transaction.
func (s *EngagementService) credit(ctx context.Context, tx *repository.Repos, userID uint, source repository.CreditSource, amount float64) error {
	if err := tx.Users.Credit(ctx, userID, source, amount); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeDependencyMissing {
			middleware.Logger.WarnContext(ctx, "credit skipped",
				"user_id", userID,
				"source", string(source),
				"error", err.Error(),
			)
			middleware.CreditFailures.Inc()
			return nil
		}
		return err
	}
	middleware.CoinsCredited.WithLabelValues(string(source)).Add(amount)
	cache.InvalidateUser(ctx, userID)
	return nil
}

func adjustCount(p *models.Problem, direction models.VoteDirection, delta int) {
	if direction == models.VoteLike {
		p.LikeCount += delta
	} else {
		p.DislikeCount += delta
	}
}

func oppositeOf(d models.VoteDirection) models.VoteDirection {
	if d == models.VoteLike {
		return models.VoteDislike
	}
	return models.VoteLike
}
