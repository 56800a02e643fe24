package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"ecotrack/models"
	"ecotrack/utils"
)

// ScoreMultiplier turns a window quantity total into a leaderboard score.
// This score is a projection of the activity log and is not ledger points.
const ScoreMultiplier = 10

const (
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100
)

// ParsePeriod validates a period name from a request.
func ParsePeriod(s string) (models.Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "weekly":
		return models.PeriodWeekly, nil
	case "monthly":
		return models.PeriodMonthly, nil
	case "alltime", "all-time", "all":
		return models.PeriodAllTime, nil
	}
	return "", fmt.Errorf("unknown period %q: %w", s, ErrInvalidInput)
}

// WindowStart returns the inclusive start of the period's window. The zero
// time means unbounded.
func WindowStart(period models.Period, now time.Time) (time.Time, error) {
	switch period {
	case models.PeriodWeekly:
		return now.AddDate(0, 0, -7), nil
	case models.PeriodMonthly:
		return now.AddDate(0, -1, 0), nil
	case models.PeriodAllTime:
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("unknown period %q: %w", period, ErrInvalidInput)
}

// LeaderboardAggregator ranks owners by the quantity they logged in a window,
// scanning the activity store on every call.
type LeaderboardAggregator struct {
	activities   ActivityStore
	users        UserStore
	now          Clock
	defaultLimit int
	maxLimit     int
}

func NewLeaderboardAggregator(activities ActivityStore, users UserStore, now Clock, defaultLimit, maxLimit int) *LeaderboardAggregator {
	if now == nil {
		now = SystemClock
	}
	if maxLimit <= 0 {
		maxLimit = MaxLeaderboardLimit
	}
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = min(DefaultLeaderboardLimit, maxLimit)
	}
	return &LeaderboardAggregator{
		activities:   activities,
		users:        users,
		now:          now,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// ClampLimit applies the default to non-positive limits and caps the rest.
func (a *LeaderboardAggregator) ClampLimit(limit int) int {
	if limit <= 0 {
		return a.defaultLimit
	}
	if limit > a.maxLimit {
		return a.maxLimit
	}
	return limit
}

// Ranking computes the full, untruncated ranking for period.
func (a *LeaderboardAggregator) Ranking(ctx context.Context, period models.Period) (*models.Leaderboard, error) {
	now := a.now()
	start, err := WindowStart(period, now)
	if err != nil {
		return nil, err
	}

	records, err := a.activities.ListSince(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("scan %s window: %w", period, err)
	}

	// group by owner, keeping the order owners are first seen
	var order []string
	totals := make(map[string]float64)
	for _, r := range records {
		if _, seen := totals[r.OwnerID]; !seen {
			order = append(order, r.OwnerID)
		}
		totals[r.OwnerID] += r.Quantity
	}

	names := map[string]string{}
	if len(order) > 0 {
		names, err = a.users.DisplayNames(ctx, order)
		if err != nil {
			return nil, fmt.Errorf("resolve leaderboard names: %w", err)
		}
	}

	entries := make([]models.LeaderboardEntry, 0, len(order))
	for _, owner := range order {
		name, ok := names[owner]
		if !ok {
			continue
		}
		entries = append(entries, models.LeaderboardEntry{
			OwnerID:     owner,
			DisplayName: name,
			WindowTotal: totals[owner],
			Score:       totals[owner] * ScoreMultiplier,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return &models.Leaderboard{
		Period:      period,
		GeneratedAt: now,
		Entries:     entries,
		TotalRanked: len(entries),
	}, nil
}

// Rank returns the top limit entries plus the viewer's own entry, looked up
// in the full ranking so it is present even outside the limit.
func (a *LeaderboardAggregator) Rank(ctx context.Context, period models.Period, limit int, viewerID string) (*models.Leaderboard, error) {
	full, err := a.Ranking(ctx, period)
	if err != nil {
		return nil, err
	}
	return truncateBoard(full, a.ClampLimit(limit), viewerID), nil
}

// RankOf returns one user's standing regardless of truncation. Users without
// activity in the window are ErrNotFound.
func (a *LeaderboardAggregator) RankOf(ctx context.Context, period models.Period, userID string) (*models.UserRank, error) {
	full, err := a.Ranking(ctx, period)
	if err != nil {
		return nil, err
	}
	return rankOf(full, userID)
}

func findEntry(board *models.Leaderboard, ownerID string) *models.LeaderboardEntry {
	if ownerID == "" {
		return nil
	}
	for i := range board.Entries {
		if board.Entries[i].OwnerID == ownerID {
			e := board.Entries[i]
			return &e
		}
	}
	return nil
}

func truncateBoard(full *models.Leaderboard, limit int, viewerID string) *models.Leaderboard {
	view := *full
	if len(full.Entries) > limit {
		view.Entries = append([]models.LeaderboardEntry(nil), full.Entries[:limit]...)
	} else {
		view.Entries = append([]models.LeaderboardEntry{}, full.Entries...)
	}
	view.Limit = limit
	view.Self = findEntry(full, viewerID)
	return &view
}

func rankOf(full *models.Leaderboard, userID string) (*models.UserRank, error) {
	entry := findEntry(full, userID)
	if entry == nil {
		return nil, fmt.Errorf("%s has no %s activity: %w", userID, full.Period, ErrNotFound)
	}
	return &models.UserRank{
		Period:      full.Period,
		Entry:       *entry,
		TotalRanked: full.TotalRanked,
		TopPercent:  float64(entry.Rank) / float64(full.TotalRanked) * 100,
	}, nil
}

// LeaderboardService serves rankings and falls back to the last good ranking
// of a period when the store is unavailable.
type LeaderboardService struct {
	aggregator *LeaderboardAggregator
	cache      LeaderboardCache
}

// NewLeaderboardService wraps aggregator. cache may be nil.
func NewLeaderboardService(aggregator *LeaderboardAggregator, cache LeaderboardCache) *LeaderboardService {
	return &LeaderboardService{aggregator: aggregator, cache: cache}
}

func (s *LeaderboardService) Ranking(ctx context.Context, period models.Period) (*models.Leaderboard, error) {
	full, err := s.aggregator.Ranking(ctx, period)
	if err == nil {
		if s.cache != nil {
			if cerr := s.cache.Set(ctx, full); cerr != nil {
				utils.LogWarn("leaderboard: cache %s snapshot: %v", period, cerr)
			}
		}
		return full, nil
	}
	if !IsStoreUnavailable(err) || s.cache == nil {
		return nil, err
	}

	cached, cerr := s.cache.Get(ctx, period)
	if cerr != nil || cached == nil {
		if cerr != nil {
			utils.LogWarn("leaderboard: read cached %s snapshot: %v", period, cerr)
		}
		return nil, err
	}
	utils.LogWarn("leaderboard: serving cached %s snapshot from %s: %v", period, cached.GeneratedAt.Format(time.RFC3339), err)
	cached.Stale = true
	return cached, nil
}

func (s *LeaderboardService) Rank(ctx context.Context, period models.Period, limit int, viewerID string) (*models.Leaderboard, error) {
	full, err := s.Ranking(ctx, period)
	if err != nil {
		return nil, err
	}
	return truncateBoard(full, s.aggregator.ClampLimit(limit), viewerID), nil
}

func (s *LeaderboardService) RankOf(ctx context.Context, period models.Period, userID string) (*models.UserRank, error) {
	full, err := s.Ranking(ctx, period)
	if err != nil {
		return nil, err
	}
	return rankOf(full, userID)
}
