package models

import "time"

// Rarity grades how hard a badge is to earn.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Badge describes an achievement from the static catalog
type Badge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Rarity      Rarity `json:"rarity"`
}

// BadgeStatus pairs a catalog badge with whether the user has earned it
type BadgeStatus struct {
	Badge
	Earned bool `json:"earned"`
}

// Event types published after engagement updates
const (
	EventPointsAwarded = "points_awarded"
	EventStreakUpdated = "streak_updated"
	EventBadgeAwarded  = "badge_awarded"
)

// GamificationEvent represents an engagement event delivered to a user's
// websocket connections
type GamificationEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	UserID    string    `json:"userId"`
	BadgeID   string    `json:"badgeId,omitempty"`
	Points    int       `json:"points,omitempty"`
	Streak    int       `json:"streak,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PointsBalance is the ledger's view of a user's points.
type PointsBalance struct {
	Total   int `json:"total"`
	Weekly  int `json:"weekly"`
	Monthly int `json:"monthly"`
}

// EngagementSummary is the dashboard view of a user's engagement state.
type EngagementSummary struct {
	Stats  Stats         `json:"stats"`
	Streak StreakState   `json:"streak"`
	Points PointsBalance `json:"points"`
	Goal   GoalInfo      `json:"goal"`
	Badges []BadgeStatus `json:"badges"`
}
