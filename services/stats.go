package services

import (
	"fmt"
	"math"
	"time"

	"ecotrack/models"
)

// weekWindow is the trailing window the week fields of Stats cover.
const weekWindow = 7 * 24 * time.Hour

// ComputeStats aggregates a user's activities as of now. Period fields follow
// goal.GoalType: the trailing week for weekly goals, the current calendar
// month for monthly ones. It has no side effects.
func ComputeStats(activities []models.Activity, goal models.GoalInfo, now time.Time, loc *time.Location) models.Stats {
	if loc == nil {
		loc = time.UTC
	}
	weekStart := now.Add(-weekWindow)
	monthStart := startOfMonth(now, loc)

	periodStart := weekStart
	if goal.GoalType == models.GoalMonthly {
		periodStart = monthStart
	}

	stats := models.Stats{ByCategory: make(map[models.Category]models.CategoryTotal)}
	activeDays := make(map[time.Time]struct{})

	for _, a := range activities {
		stats.TotalEntries++
		stats.TotalImpact += a.Quantity

		ct := stats.ByCategory[a.Category]
		ct.Count++
		ct.Total += a.Quantity
		stats.ByCategory[a.Category] = ct

		if !a.OccurredOn.Before(periodStart) {
			stats.PeriodEntries++
			stats.PeriodImpact += a.Quantity
		}
		if !a.OccurredOn.Before(weekStart) {
			stats.WeekEntries++
			stats.WeekImpact += a.Quantity
			activeDays[DayOf(a.OccurredOn, loc)] = struct{}{}
		}
		if !a.OccurredOn.Before(monthStart) {
			stats.MonthImpact += a.Quantity
		}
	}
	stats.WeekActiveDays = len(activeDays)
	return stats
}

// CompareMonths sums impact for the current calendar month and the one before.
func CompareMonths(activities []models.Activity, now time.Time, loc *time.Location) models.MonthlyComparison {
	thisStart := startOfMonth(now, loc)
	lastStart := thisStart.AddDate(0, -1, 0)

	var cmp models.MonthlyComparison
	for _, a := range activities {
		switch {
		case !a.OccurredOn.Before(thisStart):
			cmp.ThisMonth += a.Quantity
		case !a.OccurredOn.Before(lastStart):
			cmp.LastMonth += a.Quantity
		}
	}
	return cmp
}

const (
	recentDays  = 7
	historyDays = 30
	// Changes smaller than this round to zero at two decimals.
	flatThreshold = 0.005
)

const noRecentMessage = "No recent entries found in the last 7 days. Log your activities to get personalized insights!"

// Suggestions compares each category's total over the seven days before
// today with its weekly rate over the 23 days before that. Entries from today
// are not counted yet, and categories without history are skipped.
func Suggestions(activities []models.Activity, now time.Time, loc *time.Location) models.SuggestionReport {
	if loc == nil {
		loc = time.UTC
	}
	today := DayOf(now, loc)
	recentStart := today.AddDate(0, 0, -recentDays)
	historyStart := today.AddDate(0, 0, -historyDays)

	recent := make(map[models.Category]float64)
	history := make(map[models.Category]float64)
	for _, a := range activities {
		switch {
		case !a.OccurredOn.Before(today):
		case !a.OccurredOn.Before(recentStart):
			recent[a.Category] += a.Quantity
		case !a.OccurredOn.Before(historyStart):
			history[a.Category] += a.Quantity
		}
	}

	report := models.SuggestionReport{Suggestions: []models.Suggestion{}}
	if len(recent) == 0 {
		report.NoRecentEntries = true
		report.Message = noRecentMessage
		return report
	}

	for _, c := range models.Categories {
		total, ok := recent[c]
		past, seen := history[c]
		if !ok || !seen {
			continue
		}
		baseline := past * recentDays / (historyDays - recentDays)
		report.Suggestions = append(report.Suggestions, suggest(c, total, baseline))
	}
	return report
}

func suggest(c models.Category, total, baseline float64) models.Suggestion {
	s := models.Suggestion{Category: c, RecentTotal: total, Baseline: baseline, Change: total - baseline}
	switch {
	case math.Abs(s.Change) < flatThreshold:
		s.Trend = models.TrendFlat
		s.Message = fmt.Sprintf("Your %s impact remained the same.", c)
	case s.Change > 0:
		s.Trend = models.TrendUp
		s.Message = fmt.Sprintf("Your %s impact increased by %.2f compared to the previous weeks.", c, s.Change)
	default:
		s.Trend = models.TrendDown
		s.Message = fmt.Sprintf("Great! Your %s impact dropped by %.2f.", c, -s.Change)
	}
	return s
}

// CategoryBreakdown totals activities per category, in catalog category
// order, omitting empty categories.
func CategoryBreakdown(activities []models.Activity) []models.CategoryShare {
	totals := make(map[models.Category]models.CategoryShare)
	for _, a := range activities {
		s := totals[a.Category]
		s.Category = a.Category
		s.Count++
		s.Total += a.Quantity
		totals[a.Category] = s
	}

	shares := make([]models.CategoryShare, 0, len(totals))
	for _, c := range models.Categories {
		if s, ok := totals[c]; ok {
			shares = append(shares, s)
		}
	}
	return shares
}

// MonthIntensity averages the current month's impact over the days of the
// month and over four weeks.
func MonthIntensity(activities []models.Activity, now time.Time, loc *time.Location) models.Intensity {
	start := startOfMonth(now, loc)
	days := start.AddDate(0, 1, -1).Day()

	var in models.Intensity
	for _, a := range activities {
		if !a.OccurredOn.Before(start) {
			in.MonthTotal += a.Quantity
		}
	}
	in.DailyAverage = in.MonthTotal / float64(days)
	in.WeeklyAverage = in.MonthTotal / 4
	return in
}

func startOfMonth(now time.Time, loc *time.Location) time.Time {
	day := DayOf(now, loc)
	return day.AddDate(0, 0, 1-day.Day())
}
