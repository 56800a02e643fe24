package services

import (
	"context"
	"fmt"
	"time"

	"ecotrack/models"
)

// NextStreak applies one activity day to a streak. The second result is false
// when the day equals the last entry date and nothing changes.
func NextStreak(prev models.StreakState, activityDate time.Time, loc *time.Location) (models.StreakState, bool) {
	day := DayOf(activityDate, loc)

	next := prev
	if prev.LastEntryDate != nil {
		last := DayOf(*prev.LastEntryDate, loc)
		switch {
		case day.Equal(last):
			return prev, false
		case day.Equal(last.AddDate(0, 0, 1)):
			next.Current = prev.Current + 1
		default:
			// gap of two or more days, or a backdated entry
			next.Current = 1
		}
	} else {
		next.Current = prev.Current + 1
		if next.Current < 1 {
			next.Current = 1
		}
	}

	if next.Current > next.Longest {
		next.Longest = next.Current
	}
	next.LastEntryDate = &day
	return next, true
}

// StreakTracker advances a user's consecutive-day streak.
type StreakTracker struct {
	users UserStore
	loc   *time.Location
}

func NewStreakTracker(users UserStore, loc *time.Location) *StreakTracker {
	if loc == nil {
		loc = time.UTC
	}
	return &StreakTracker{users: users, loc: loc}
}

// Advance records an activity on activityDate and returns the resulting
// current streak. Same-day calls leave the stored state untouched.
func (t *StreakTracker) Advance(ctx context.Context, userID string, activityDate time.Time) (int, error) {
	if activityDate.IsZero() {
		return 0, fmt.Errorf("advance streak: activity date is required: %w", ErrInvalidInput)
	}

	user, err := t.users.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("advance streak for %s: %w", userID, err)
	}

	next, changed := NextStreak(user.Streak(), activityDate, t.loc)
	if !changed {
		return next.Current, nil
	}
	if err := t.users.SaveStreak(ctx, userID, next); err != nil {
		return 0, fmt.Errorf("save streak for %s: %w", userID, err)
	}
	return next.Current, nil
}
