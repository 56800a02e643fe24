package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecotrack/models"
)

func badgeIDs(badges []models.Badge) []string {
	ids := make([]string, len(badges))
	for i, b := range badges {
		ids[i] = b.ID
	}
	return ids
}

func predicateFor(t *testing.T, id string) Predicate {
	t.Helper()
	for _, r := range badgeCatalog {
		if r.badge.ID == id {
			return r.predicate
		}
	}
	t.Fatalf("badge %s not in catalog", id)
	return nil
}

func repeat(n int, a models.Activity) []models.Activity {
	out := make([]models.Activity, n)
	for i := range out {
		out[i] = a
	}
	return out
}

func TestEvaluate_ZeroEntriesEarnsNothing(t *testing.T) {
	goals := []models.GoalInfo{
		{},
		{Goal: 10, GoalType: models.GoalWeekly},
		{Goal: 10, GoalType: models.GoalMonthly},
	}
	for _, goal := range goals {
		stats := ComputeStats(nil, goal, boardNow, time.UTC)
		earned := NewBadgeEvaluator().Evaluate(stats, nil, goal, nil)
		assert.Empty(t, earned, "goal %+v", goal)
	}
}

func TestEvaluate_LowCarbonWeekOnce(t *testing.T) {
	acts := []models.Activity{
		activity(models.CategoryEnergy, 2, at("2024-01-07T09:00:00Z")),
		activity(models.CategoryEnergy, 3, at("2024-01-08T09:00:00Z")),
		activity(models.CategoryFood, 1, at("2024-01-09T09:00:00Z")),
		activity(models.CategoryOther, 2, at("2024-01-10T09:00:00Z")),
	}
	goal := models.GoalInfo{GoalType: models.GoalWeekly}
	stats := ComputeStats(acts, goal, boardNow, time.UTC)
	require.InDelta(t, 8.0, stats.WeekImpact, 1e-9)
	require.Equal(t, 4, stats.WeekEntries)

	ev := NewBadgeEvaluator()
	first := badgeIDs(ev.Evaluate(stats, acts, goal, nil))
	assert.Equal(t, []string{"first_entry", "low_carbon_week"}, first)

	again := ev.Evaluate(stats, acts, goal, first)
	assert.Empty(t, again)
}

func TestEvaluate_WeekTrackerCountsDistinctDays(t *testing.T) {
	goal := models.GoalInfo{GoalType: models.GoalWeekly}
	ev := NewBadgeEvaluator()

	busyDay := repeat(9, activity(models.CategoryEnergy, 1, at("2024-01-09T09:00:00Z")))
	stats := ComputeStats(busyDay, goal, boardNow, time.UTC)
	require.Equal(t, 9, stats.WeekEntries)
	require.Equal(t, 1, stats.WeekActiveDays)
	assert.NotContains(t, badgeIDs(ev.Evaluate(stats, busyDay, goal, nil)), "week_tracker")

	var everyDay []models.Activity
	for d := 4; d <= 10; d++ {
		on := time.Date(2024, 1, d, 9, 0, 0, 0, time.UTC)
		everyDay = append(everyDay, activity(models.CategoryEnergy, 1, on))
	}
	stats = ComputeStats(everyDay, goal, boardNow, time.UTC)
	require.Equal(t, 7, stats.WeekActiveDays)
	assert.Contains(t, badgeIDs(ev.Evaluate(stats, everyDay, goal, nil)), "week_tracker")
}

func TestEvaluate_CatalogOrder(t *testing.T) {
	acts := repeat(100, activity(models.CategoryWaste, 0.1, at("2024-01-09T09:00:00Z")))
	acts = append(acts, repeat(5, activity(models.CategoryTransport, 1, at("2024-01-09T10:00:00Z")))...)
	goal := models.GoalInfo{Goal: 50, GoalType: models.GoalMonthly}
	stats := ComputeStats(acts, goal, boardNow, time.UTC)

	earned := badgeIDs(NewBadgeEvaluator().Evaluate(stats, acts, goal, []string{"first_entry"}))
	assert.Equal(t, []string{
		"transport_saver",
		"consistent_tracker",
		"goal_achiever",
		"waste_warrior",
		"carbon_saver",
		"century_tracker",
	}, earned)
}

func TestBadgePredicates(t *testing.T) {
	weekly := models.GoalInfo{Goal: 10, GoalType: models.GoalWeekly}
	tests := []struct {
		badge string
		snap  Snapshot
		want  bool
	}{
		{"first_entry", Snapshot{Stats: models.Stats{TotalEntries: 1}}, true},
		{"week_tracker", Snapshot{Stats: models.Stats{WeekEntries: 12, WeekActiveDays: 6}}, false},
		{"week_tracker", Snapshot{Stats: models.Stats{WeekEntries: 7, WeekActiveDays: 7}}, true},
		{"low_carbon_week", Snapshot{Stats: models.Stats{WeekImpact: 10, WeekEntries: 5}}, false},
		{"low_carbon_week", Snapshot{Stats: models.Stats{WeekImpact: 9.9, WeekEntries: 2}}, false},
		{"transport_saver", Snapshot{Activities: repeat(5, activity(models.CategoryTransport, 3, boardNow))}, false},
		{"transport_saver", Snapshot{Activities: repeat(5, activity(models.CategoryTransport, 2.9, boardNow))}, true},
		{"consistent_tracker", Snapshot{Stats: models.Stats{TotalEntries: 29}}, false},
		{"goal_achiever", Snapshot{Stats: models.Stats{PeriodEntries: 2, PeriodImpact: 10}, Goal: weekly}, true},
		{"goal_achiever", Snapshot{Stats: models.Stats{PeriodEntries: 2, PeriodImpact: 10.5}, Goal: weekly}, false},
		{"goal_achiever", Snapshot{Stats: models.Stats{}, Goal: weekly}, false},
		{"goal_achiever", Snapshot{Stats: models.Stats{PeriodEntries: 1}, Goal: models.GoalInfo{}}, false},
		{"waste_warrior", Snapshot{Activities: repeat(9, activity(models.CategoryWaste, 1, boardNow))}, false},
		{"waste_warrior", Snapshot{Activities: repeat(10, activity(models.CategoryWaste, 1, boardNow))}, true},
		{"carbon_saver", Snapshot{Stats: models.Stats{TotalEntries: 10, TotalImpact: 49}}, true},
		{"carbon_saver", Snapshot{Stats: models.Stats{TotalEntries: 9, TotalImpact: 1}}, false},
		{"century_tracker", Snapshot{Stats: models.Stats{TotalEntries: 100}}, true},
	}
	for _, tt := range tests {
		ok, err := predicateFor(t, tt.badge)(tt.snap)
		require.NoError(t, err, tt.badge)
		assert.Equal(t, tt.want, ok, "%s with %+v", tt.badge, tt.snap.Stats)
	}
}

func TestGoalAchiever_UnknownGoalType(t *testing.T) {
	ok, err := goalMet(Snapshot{
		Stats: models.Stats{PeriodEntries: 1, PeriodImpact: 1},
		Goal:  models.GoalInfo{Goal: 5, GoalType: "daily"},
	})
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestEvaluate_FailingPredicatesDoNotBlockOthers(t *testing.T) {
	ev := &BadgeEvaluator{rules: []badgeRule{
		{badge: models.Badge{ID: "errors"}, predicate: func(Snapshot) (bool, error) { return true, errors.New("bad data") }},
		{badge: models.Badge{ID: "panics"}, predicate: func(s Snapshot) (bool, error) { return s.Activities[3].Quantity > 0, nil }},
		{badge: models.Badge{ID: "holds"}, predicate: func(Snapshot) (bool, error) { return true, nil }},
	}}

	earned := ev.Evaluate(models.Stats{}, nil, models.GoalInfo{}, nil)
	assert.Equal(t, []string{"holds"}, badgeIDs(earned))
}

func TestCatalog(t *testing.T) {
	catalog := Catalog()
	require.Len(t, catalog, 9)
	assert.Equal(t, "first_entry", catalog[0].ID)
	assert.Equal(t, "century_tracker", catalog[8].ID)

	catalog[0].Title = "changed"
	b, ok := LookupBadge("first_entry")
	require.True(t, ok)
	assert.Equal(t, "Getting Started", b.Title)

	_, ok = LookupBadge("nope")
	assert.False(t, ok)

	seen := map[string]bool{}
	for _, b := range catalog {
		assert.False(t, seen[b.ID], "duplicate badge %s", b.ID)
		seen[b.ID] = true
	}

	statuses := BadgeStatuses([]string{"waste_warrior"})
	require.Len(t, statuses, 9)
	assert.True(t, statuses[6].Earned)
	assert.False(t, statuses[0].Earned)
}
