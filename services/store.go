package services

import (
	"context"
	"time"

	"ecotrack/models"
)

// ActivityStore persists activity records. ListByOwner treats zero bounds as
// unbounded; the range is half-open [start, end).
type ActivityStore interface {
	Create(ctx context.Context, activity *models.Activity) error
	Get(ctx context.Context, id, ownerID string) (*models.Activity, error)
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id, ownerID string) error
	ListByOwner(ctx context.Context, ownerID string, start, end time.Time) ([]models.Activity, error)
	// ListSince returns every owner's records on or after start, ordered by
	// occurredOn then insertion.
	ListSince(ctx context.Context, start time.Time) ([]models.Activity, error)
}

// UserStore persists the engagement fields of users.
type UserStore interface {
	Get(ctx context.Context, userID string) (*models.User, error)
	// DisplayNames resolves owner ids to names; unknown ids are omitted.
	DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error)
	SaveStreak(ctx context.Context, userID string, streak models.StreakState) error
	// ApplyAward adds points to all three counters and, when streak is not
	// nil, stores it in the same update.
	ApplyAward(ctx context.Context, userID string, streak *models.StreakState, points int) error
	AddBadges(ctx context.Context, userID string, badgeIDs []string) error
	UpdateGoal(ctx context.Context, userID string, goal models.GoalInfo) error
	// ResetPeriod zeroes the period counter of users last reset before cutoff
	// and reports how many were touched.
	ResetPeriod(ctx context.Context, period models.Period, cutoff, now time.Time) (int64, error)
}

// EventPublisher delivers engagement events to interested listeners.
type EventPublisher interface {
	Publish(ctx context.Context, event models.GamificationEvent) error
}

// LeaderboardCache keeps the last successfully computed leaderboard per
// period. Get returns nil, nil when nothing is cached.
type LeaderboardCache interface {
	Get(ctx context.Context, period models.Period) (*models.Leaderboard, error)
	Set(ctx context.Context, board *models.Leaderboard) error
}
