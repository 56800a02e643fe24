package models

import "time"

// Period selects the window a leaderboard is computed over.
type Period string

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAllTime Period = "allTime"
)

// LeaderboardEntry is one ranked owner. Score is WindowTotal multiplied by the
// leaderboard multiplier and is unrelated to ledger points.
type LeaderboardEntry struct {
	OwnerID     string  `json:"ownerId"`
	DisplayName string  `json:"displayName"`
	WindowTotal float64 `json:"windowTotal"`
	Score       float64 `json:"score"`
	Rank        int     `json:"rank"`
}

// Leaderboard is the response for a period: the truncated ranking plus the
// viewer's own entry, which may sit outside the truncated slice.
type Leaderboard struct {
	Period      Period             `json:"period"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Entries     []LeaderboardEntry `json:"entries"`
	Self        *LeaderboardEntry  `json:"self,omitempty"`
	TotalRanked int                `json:"totalRanked"`
	Limit       int                `json:"limit,omitempty"` // applied after defaulting and capping
	Stale       bool               `json:"stale,omitempty"`
}

// UserRank is a single user's standing in a period.
type UserRank struct {
	Period      Period           `json:"period"`
	Entry       LeaderboardEntry `json:"entry"`
	TotalRanked int              `json:"totalRanked"`
	TopPercent  float64          `json:"topPercent"` // rank 1 of 10 is the top 10%
}
