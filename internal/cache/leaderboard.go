package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ecotrack/models"
)

// LeaderboardCache stores the last good full ranking of each period in Redis.
type LeaderboardCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewLeaderboardCache(rdb redis.Cmdable, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{rdb: rdb, ttl: ttl}
}

func leaderboardKey(period models.Period) string {
	return fmt.Sprintf("leaderboard:%s", period)
}

// Get returns nil, nil when no snapshot is stored for period.
func (c *LeaderboardCache) Get(ctx context.Context, period models.Period) (*models.Leaderboard, error) {
	data, err := c.rdb.Get(ctx, leaderboardKey(period)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read leaderboard snapshot: %w", err)
	}

	var board models.Leaderboard
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, fmt.Errorf("decode leaderboard snapshot: %w", err)
	}
	return &board, nil
}

func (c *LeaderboardCache) Set(ctx context.Context, board *models.Leaderboard) error {
	data, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("encode leaderboard snapshot: %w", err)
	}
	if err := c.rdb.Set(ctx, leaderboardKey(board.Period), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("write leaderboard snapshot: %w", err)
	}
	return nil
}
