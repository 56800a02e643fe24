package services

import (
	"context"
	"fmt"
	"time"

	"ecotrack/models"
	"ecotrack/utils"
)

// ResetPolicy decides where the current accounting period of a point counter
// begins. Counters last reset before the cutoff are zeroed.
type ResetPolicy interface {
	Cutoff(period models.Period, now time.Time) (time.Time, error)
	Name() string
}

// RollingPolicy uses trailing windows: seven days, one calendar month.
type RollingPolicy struct{}

func (RollingPolicy) Name() string { return "rolling" }

func (RollingPolicy) Cutoff(period models.Period, now time.Time) (time.Time, error) {
	switch period {
	case models.PeriodWeekly:
		return now.AddDate(0, 0, -7), nil
	case models.PeriodMonthly:
		return now.AddDate(0, -1, 0), nil
	}
	return time.Time{}, fmt.Errorf("no reset cutoff for period %q: %w", period, ErrInvalidInput)
}

// CalendarPolicy uses fixed boundaries: Monday 00:00 and the first of the
// month, both in Location.
type CalendarPolicy struct {
	Location *time.Location
}

func (CalendarPolicy) Name() string { return "calendar" }

func (p CalendarPolicy) Cutoff(period models.Period, now time.Time) (time.Time, error) {
	day := DayOf(now, p.Location)
	switch period {
	case models.PeriodWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset), nil
	case models.PeriodMonthly:
		return day.AddDate(0, 0, 1-day.Day()), nil
	}
	return time.Time{}, fmt.Errorf("no reset cutoff for period %q: %w", period, ErrInvalidInput)
}

// PolicyByName maps a configured policy name to its implementation.
func PolicyByName(name string, loc *time.Location) (ResetPolicy, error) {
	switch name {
	case "rolling":
		return RollingPolicy{}, nil
	case "calendar", "":
		return CalendarPolicy{Location: loc}, nil
	}
	return nil, fmt.Errorf("unknown reset policy %q: %w", name, ErrInvalidInput)
}

// ResetReport counts the users whose counters were zeroed.
type ResetReport struct {
	Policy       string    `json:"policy"`
	RanAt        time.Time `json:"ranAt"`
	WeeklyReset  int64     `json:"weeklyReset"`
	MonthlyReset int64     `json:"monthlyReset"`
}

// PeriodResetter zeroes weekly and monthly counters at period boundaries.
// Total points are never touched.
type PeriodResetter struct {
	users  UserStore
	policy ResetPolicy
	now    Clock
}

func NewPeriodResetter(users UserStore, policy ResetPolicy, now Clock) *PeriodResetter {
	if now == nil {
		now = SystemClock
	}
	return &PeriodResetter{users: users, policy: policy, now: now}
}

func (r *PeriodResetter) Reset(ctx context.Context) (ResetReport, error) {
	now := r.now()
	report := ResetReport{Policy: r.policy.Name(), RanAt: now}

	for _, period := range []models.Period{models.PeriodWeekly, models.PeriodMonthly} {
		cutoff, err := r.policy.Cutoff(period, now)
		if err != nil {
			return report, err
		}
		n, err := r.users.ResetPeriod(ctx, period, cutoff, now)
		if err != nil {
			return report, fmt.Errorf("reset %s points: %w", period, err)
		}
		if period == models.PeriodWeekly {
			report.WeeklyReset = n
		} else {
			report.MonthlyReset = n
		}
		utils.LogInfo("reset %s points for %d users (policy=%s cutoff=%s)", period, n, report.Policy, cutoff.Format(time.RFC3339))
	}
	return report, nil
}
