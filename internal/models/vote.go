// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// VoteDirection is the tagged vote state a user holds on a problem. A user
// holds at most one direction at a time; absence of a Vote row means no vote.
type VoteDirection int8

const (
	VoteLike    VoteDirection = 1
	VoteDislike VoteDirection = -1
)

// ParseVoteDirection converts the wire representation of a direction.
// Anything outside {like, dislike} is a validation error.
func ParseVoteDirection(s string) (VoteDirection, error) {
	switch s {
	case "like":
		return VoteLike, nil
	case "dislike":
		return VoteDislike, nil
	default:
		return 0, NewValidationError("Vote direction must be \"like\" or \"dislike\"")
	}
}

func (d VoteDirection) String() string {
	switch d {
	case VoteLike:
		return "like"
	case VoteDislike:
		return "dislike"
	default:
		return "none"
	}
}

// Vote records one user's vote on one problem. The composite unique index
// makes the mutual-exclusion invariant structural: a (user, problem) pair can
// hold a single direction, never both.
type Vote struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UserID    uint          `gorm:"not null;uniqueIndex:idx_vote_user_problem" json:"user_id"`
	ProblemID uint          `gorm:"not null;uniqueIndex:idx_vote_user_problem;index" json:"problem_id"`
	Direction VoteDirection `gorm:"not null" json:"direction"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// VoteOutcome describes the committed result of applying a vote.
type VoteOutcome struct {
	// Active reports whether the vote now stands (false when the call
	// retracted an identical vote).
	Active bool `json:"active"`
	// Direction is the direction that was applied or retracted.
	Direction VoteDirection `json:"direction"`
	// CreditDue is true only when a like was newly added; retractions and
	// dislikes never earn coins.
	CreditDue bool `json:"-"`

	LikeCount    int `json:"like_count"`
	DislikeCount int `json:"dislike_count"`
	Score        int `json:"score"`
}
