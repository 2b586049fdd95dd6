package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix    = "user:%d"
	ProblemKeyPrefix = "problem:%d"
)

const (
	UserTTL    = 5 * time.Minute
	ProblemTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func ProblemKey(problemID uint) string {
	return fmt.Sprintf(ProblemKeyPrefix, problemID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateProblem(ctx context.Context, problemID uint) {
	Invalidate(ctx, ProblemKey(problemID))
}
