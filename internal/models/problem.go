// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Problem fields (categories). A problem must belong to exactly one.
const (
	FieldHealthcare     = "Healthcare"
	FieldEducation      = "Education"
	FieldTechnology     = "Technology"
	FieldFinance        = "Finance"
	FieldBusiness       = "Business"
	FieldEnvironment    = "Environment"
	FieldTransportation = "Transportation"
	FieldOther          = "Other"
)

// ProblemFields lists every valid problem field value.
var ProblemFields = []string{
	FieldHealthcare,
	FieldEducation,
	FieldTechnology,
	FieldFinance,
	FieldBusiness,
	FieldEnvironment,
	FieldTransportation,
	FieldOther,
}

// ValidProblemField reports whether f is a recognized problem field.
func ValidProblemField(f string) bool {
	for _, v := range ProblemFields {
		if v == f {
			return true
		}
	}
	return false
}

// Problem represents a posted problem. The vote counts, comment count and
// score are persisted denormalizations maintained transactionally by the
// engagement service; the votes table is the durable truth for membership.
type Problem struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Field       string `gorm:"not null;index" json:"field"`
	Description string `gorm:"type:text;not null" json:"description"`

	PosterID uint `gorm:"not null;index" json:"poster_id"`
	Poster   User `gorm:"foreignKey:PosterID" json:"poster,omitempty"`
	// Snapshot of the poster identity at creation time.
	PosterName       string `gorm:"not null" json:"poster_name"`
	PosterProfession string `gorm:"not null" json:"poster_profession"`

	LikeCount    int `gorm:"not null;default:0" json:"like_count"`
	DislikeCount int `gorm:"not null;default:0" json:"dislike_count"`
	CommentCount int `gorm:"not null;default:0" json:"comment_count"`
	Score        int `gorm:"not null;default:0;index" json:"score"`

	// Liked/Disliked indicate the requesting user's vote state (computed).
	Liked    bool `gorm:"-" json:"liked"`
	Disliked bool `gorm:"-" json:"disliked"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Sortable problem listing columns.
const (
	ProblemSortCreatedAt    = "created_at"
	ProblemSortScore        = "score"
	ProblemSortLikeCount    = "like_count"
	ProblemSortCommentCount = "comment_count"
)

// CursorID returns the identifier used as pagination tiebreaker.
func (p Problem) CursorID() uint { return p.ID }

// CursorValue returns the value of a sortable column for cursor encoding.
func (p Problem) CursorValue(field string) (any, bool) {
	switch field {
	case ProblemSortCreatedAt:
		return p.CreatedAt, true
	case ProblemSortScore:
		return p.Score, true
	case ProblemSortLikeCount:
		return p.LikeCount, true
	case ProblemSortCommentCount:
		return p.CommentCount, true
	default:
		return nil, false
	}
}
