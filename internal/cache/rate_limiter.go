package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SubmissionLimiter caps how many entries a user may submit per window
type SubmissionLimiter struct {
	rdb    redis.Cmdable
	limit  int
	window time.Duration
}

func NewSubmissionLimiter(rdb redis.Cmdable, limit int, window time.Duration) *SubmissionLimiter {
	return &SubmissionLimiter{rdb: rdb, limit: limit, window: window}
}

// Allow records one submission for userID and reports whether it is within
// the limit. When Redis fails the submission is allowed and the error returned.
func (l *SubmissionLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}

	key := fmt.Sprintf("rate:entries:%s", userID)

	// Increment count
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return true, fmt.Errorf("count submissions: %w", err)
	}

	// Set expiration if first time
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return true, fmt.Errorf("expire submission counter: %w", err)
		}
	}

	return count <= int64(l.limit), nil
}
