// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a problem. The author name and profession
// are snapshotted at creation time so a comment stays readable even if the
// author later changes their profile. Comments are immutable after creation;
// they disappear only when their problem is deleted.
type Comment struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	ProblemID      uint   `gorm:"not null;index" json:"problem_id"`
	UserID         uint   `gorm:"not null;index" json:"user_id"`
	UserName       string `gorm:"not null" json:"user_name"`
	UserProfession string `json:"user_profession"`
	Text           string `gorm:"type:text;not null" json:"text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CommentSortCreatedAt is the only sortable comment listing column.
const CommentSortCreatedAt = "created_at"

// CursorID returns the identifier used as pagination tiebreaker.
func (c Comment) CursorID() uint { return c.ID }

// CursorValue returns the value of a sortable column for cursor encoding.
func (c Comment) CursorValue(field string) (any, bool) {
	if field == CommentSortCreatedAt {
		return c.CreatedAt, true
	}
	return nil, false
}
