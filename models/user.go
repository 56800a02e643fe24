package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoalType selects the period a user's emission goal applies to.
type GoalType string

const (
	GoalWeekly  GoalType = "weekly"
	GoalMonthly GoalType = "monthly"
)

// Valid reports whether g is a known goal period.
func (g GoalType) Valid() bool {
	return g == GoalWeekly || g == GoalMonthly
}

// GoalInfo is the emission ceiling a user configured for a period.
type GoalInfo struct {
	Goal     float64  `bson:"goal" json:"goal"`
	GoalType GoalType `bson:"goalType" json:"goalType"`
}

// StreakState holds the streak fields persisted on a user.
type StreakState struct {
	Current       int        `bson:"currentStreak" json:"currentStreak"`
	Longest       int        `bson:"longestStreak" json:"longestStreak"`
	LastEntryDate *time.Time `bson:"lastEntryDate,omitempty" json:"lastEntryDate,omitempty"`
}

// User defines a user entity extended with engagement fields
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email       string             `bson:"email" json:"email"`
	Username    string             `bson:"username" json:"username"`
	DisplayName string             `bson:"displayName" json:"displayName"`
	AvatarURL   string             `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`

	CurrentStreak int        `bson:"currentStreak" json:"currentStreak"`
	LongestStreak int        `bson:"longestStreak" json:"longestStreak"`
	LastEntryDate *time.Time `bson:"lastEntryDate,omitempty" json:"lastEntryDate,omitempty"`

	TotalPoints    int        `bson:"totalPoints" json:"totalPoints"`
	WeeklyPoints   int        `bson:"weeklyPoints" json:"weeklyPoints"`
	MonthlyPoints  int        `bson:"monthlyPoints" json:"monthlyPoints"`
	WeeklyResetAt  *time.Time `bson:"weeklyResetAt,omitempty" json:"weeklyResetAt,omitempty"`
	MonthlyResetAt *time.Time `bson:"monthlyResetAt,omitempty" json:"monthlyResetAt,omitempty"`

	Goal     float64  `bson:"goal" json:"goal"`
	GoalType GoalType `bson:"goalType" json:"goalType"`
	Badges   []string `bson:"badges" json:"badges"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Streak returns the persisted streak fields.
func (u *User) Streak() StreakState {
	return StreakState{
		Current:       u.CurrentStreak,
		Longest:       u.LongestStreak,
		LastEntryDate: u.LastEntryDate,
	}
}

// GoalInfo returns the user's goal, defaulting the period to weekly.
func (u *User) GoalInfo() GoalInfo {
	goalType := u.GoalType
	if goalType == "" {
		goalType = GoalWeekly
	}
	return GoalInfo{Goal: u.Goal, GoalType: goalType}
}

// HasBadge reports whether the badge id was already earned.
func (u *User) HasBadge(id string) bool {
	for _, b := range u.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// Name returns the name shown on leaderboards: display name, then username,
// then the local part of the email address.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Username != "" {
		return u.Username
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}
