// Package repository provides data access layer implementations for the application.
package repository

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"quarry/internal/models"

	"gorm.io/gorm"
)

// SortOrder is the direction of a paginated listing.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// PageRequest describes one page of a cursor-paginated listing. Cursor is
// the opaque token returned by the previous page; empty means first page.
type PageRequest struct {
	SortField string
	Order     SortOrder
	Limit     int
	Cursor    string
}

// Page is one page of results plus the cursor for the next one.
type Page[T any] struct {
	Items       []T    `json:"items"`
	NextCursor  string `json:"next_cursor,omitempty"`
	HasNextPage bool   `json:"has_next_page"`
	Limit       int    `json:"limit"`
}

// Cursorable is implemented by models that can act as pagination boundaries.
type Cursorable interface {
	CursorID() uint
	CursorValue(field string) (any, bool)
}

// cursorPayload is the decoded form of an opaque cursor token: the sort-field
// value and the row ID of the boundary item.
type cursorPayload struct {
	Value any  `json:"v"`
	ID    uint `json:"id"`
}

func encodeCursor(value any, id uint) (string, error) {
	raw, err := json.Marshal(cursorPayload{Value: value, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeCursor(token string) (cursorPayload, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return cursorPayload{}, models.NewValidationError("Invalid pagination cursor")
	}
	var p cursorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return cursorPayload{}, models.NewValidationError("Invalid pagination cursor")
	}
	// JSON turns time values into RFC 3339 strings; restore them so the
	// driver serializes the comparison value in its native timestamp format.
	if s, ok := p.Value.(string); ok {
		if ts, parseErr := time.Parse(time.RFC3339Nano, s); parseErr == nil {
			p.Value = ts
		}
	}
	return p, nil
}

// Paginate runs one page of a cursor-paginated query over the given (already
// filtered) gorm query. It fetches limit+1 rows ordered by (sortField, id);
// when limit+1 come back the extra row is dropped from the page and becomes
// the next cursor. The next page resumes with an inclusive row comparison on
// (sortField, id), so the boundary row is returned exactly once even when
// sort values collide; the id tiebreaker gives the ordering a total order.
//
// The sort field is interpolated into SQL and must come from a compile-time
// whitelist, never from user input.
func Paginate[T Cursorable](q *gorm.DB, req PageRequest) (Page[T], error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	order := req.Order
	if order != SortAsc {
		order = SortDesc
	}

	page := Page[T]{Limit: limit}

	if req.Cursor != "" {
		cur, err := decodeCursor(req.Cursor)
		if err != nil {
			return page, err
		}
		cmp := "<="
		if order == SortAsc {
			cmp = ">="
		}
		q = q.Where(fmt.Sprintf("(%s, id) %s (?, ?)", req.SortField, cmp), cur.Value, cur.ID)
	}

	dir := "DESC"
	if order == SortAsc {
		dir = "ASC"
	}

	var rows []T
	err := q.
		Order(fmt.Sprintf("%s %s, id %s", req.SortField, dir, dir)).
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return page, models.NewUnavailableError(err)
	}

	if len(rows) > limit {
		boundary := rows[limit]
		rows = rows[:limit]

		value, ok := boundary.CursorValue(req.SortField)
		if !ok {
			return page, models.NewValidationError("Unsupported sort field")
		}
		token, encErr := encodeCursor(value, boundary.CursorID())
		if encErr != nil {
			return page, models.NewInternalError(encErr)
		}
		page.HasNextPage = true
		page.NextCursor = token
	}

	page.Items = rows
	return page, nil
}
