package services

import (
	"fmt"

	"ecotrack/models"
	"ecotrack/utils"
)

// Snapshot is the read-only input every badge predicate sees.
type Snapshot struct {
	Stats      models.Stats
	Activities []models.Activity
	Goal       models.GoalInfo
}

// Predicate reports whether a badge is achieved for a snapshot. An error
// counts as not achieved.
type Predicate func(Snapshot) (bool, error)

type badgeRule struct {
	badge     models.Badge
	predicate Predicate
}

// Badge thresholds. They are fixed and not configurable per user.
const (
	weekTrackerDays         = 7
	lowCarbonWeekMaxImpact  = 10.0
	lowCarbonWeekMinEntries = 3
	transportSaverMaxQty    = 3.0
	transportSaverCount     = 5
	consistentTrackerCount  = 30
	wasteWarriorCount       = 10
	carbonSaverMaxImpact    = 50.0
	carbonSaverMinEntries   = 10
	centuryTrackerCount     = 100
)

var badgeCatalog = []badgeRule{
	{
		badge: models.Badge{ID: "first_entry", Title: "Getting Started", Description: "Logged your first entry", Icon: "🌱", Rarity: models.RarityCommon},
		predicate: func(s Snapshot) (bool, error) {
			return s.Stats.TotalEntries >= 1, nil
		},
	},
	{
		badge: models.Badge{ID: "week_tracker", Title: "Weekly Warrior", Description: "Logged activity on 7 different days in a week", Icon: "📅", Rarity: models.RarityRare},
		predicate: func(s Snapshot) (bool, error) {
			return s.Stats.WeekActiveDays >= weekTrackerDays, nil
		},
	},
	{
		badge: models.Badge{ID: "low_carbon_week", Title: "Eco Champion", Description: "Kept weekly emissions under 10kg CO₂", Icon: "🏆", Rarity: models.RarityEpic},
		predicate: func(s Snapshot) (bool, error) {
			return s.Stats.WeekImpact < lowCarbonWeekMaxImpact && s.Stats.WeekEntries >= lowCarbonWeekMinEntries, nil
		},
	},
	{
		badge: models.Badge{ID: "transport_saver", Title: "Green Commuter", Description: "Used low-carbon transport 5 times", Icon: "🚲", Rarity: models.RarityRare},
		predicate: func(s Snapshot) (bool, error) {
			n := countActivities(s.Activities, func(a models.Activity) bool {
				return a.Category == models.CategoryTransport && a.Quantity < transportSaverMaxQty
			})
			return n >= transportSaverCount, nil
		},
	},
	{
		badge: models.Badge{ID: "consistent_tracker", Title: "Consistency King", Description: "Logged 30 entries", Icon: "👑", Rarity: models.RarityLegendary},
		predicate: func(s Snapshot) (bool, error) {
			return s.Stats.TotalEntries >= consistentTrackerCount, nil
		},
	},
	{
		badge:     models.Badge{ID: "goal_achiever", Title: "Goal Crusher", Description: "Stayed within your CO₂ goal this period", Icon: "🎯", Rarity: models.RarityEpic},
		predicate: goalMet,
	},
	{
		badge: models.Badge{ID: "waste_warrior", Title: "Waste Warrior", Description: "Logged 10 waste reduction activities", Icon: "♻️", Rarity: models.RarityRare},
		predicate: func(s Snapshot) (bool, error) {
			n := countActivities(s.Activities, func(a models.Activity) bool {
				return a.Category == models.CategoryWaste
			})
			return n >= wasteWarriorCount, nil
		},
	},
	{
		badge: models.Badge{ID: "carbon_saver", Title: "Carbon Saver", Description: "Total emissions under 50kg CO₂ over 10 entries", Icon: "🌍", Rarity: models.RarityEpic},
		predicate: func(s Snapshot) (bool, error) {
			return s.Stats.TotalImpact < carbonSaverMaxImpact && s.Stats.TotalEntries >= carbonSaverMinEntries, nil
		},
	},
	{
		badge: models.Badge{ID: "century_tracker", Title: "Centurion", Description: "Logged 100 entries", Icon: "💯", Rarity: models.RarityLegendary},
		predicate: func(s Snapshot) (bool, error) {
			return s.Stats.TotalEntries >= centuryTrackerCount, nil
		},
	},
}

// goalMet compares the impact of the goal period against the goal. A period
// without entries does not count as met.
func goalMet(s Snapshot) (bool, error) {
	if s.Goal.Goal <= 0 {
		return false, nil
	}
	if !s.Goal.GoalType.Valid() {
		return false, fmt.Errorf("unknown goal type %q", s.Goal.GoalType)
	}
	if s.Stats.PeriodEntries == 0 {
		return false, nil
	}
	return s.Stats.PeriodImpact <= s.Goal.Goal, nil
}

func countActivities(activities []models.Activity, match func(models.Activity) bool) int {
	n := 0
	for _, a := range activities {
		if match(a) {
			n++
		}
	}
	return n
}

// Catalog returns the badge catalog in evaluation order.
func Catalog() []models.Badge {
	badges := make([]models.Badge, len(badgeCatalog))
	for i, r := range badgeCatalog {
		badges[i] = r.badge
	}
	return badges
}

// LookupBadge finds a catalog badge by id.
func LookupBadge(id string) (models.Badge, bool) {
	for _, r := range badgeCatalog {
		if r.badge.ID == id {
			return r.badge, true
		}
	}
	return models.Badge{}, false
}

// BadgeStatuses pairs every catalog badge with whether it is in earned.
func BadgeStatuses(earned []string) []models.BadgeStatus {
	have := toSet(earned)
	statuses := make([]models.BadgeStatus, 0, len(badgeCatalog))
	for _, r := range badgeCatalog {
		_, ok := have[r.badge.ID]
		statuses = append(statuses, models.BadgeStatus{Badge: r.badge, Earned: ok})
	}
	return statuses
}

// BadgeEvaluator runs badge predicates over a snapshot.
type BadgeEvaluator struct {
	rules []badgeRule
}

func NewBadgeEvaluator() *BadgeEvaluator {
	return &BadgeEvaluator{rules: badgeCatalog}
}

// Evaluate returns the badges newly earned for the snapshot, in catalog
// order. Badges in alreadyEarned are skipped. A predicate that fails or panics
// is logged and treated as not achieved.
func (e *BadgeEvaluator) Evaluate(stats models.Stats, activities []models.Activity, goal models.GoalInfo, alreadyEarned []string) []models.Badge {
	snap := Snapshot{Stats: stats, Activities: activities, Goal: goal}
	have := toSet(alreadyEarned)

	earned := []models.Badge{}
	for _, r := range e.rules {
		if _, ok := have[r.badge.ID]; ok {
			continue
		}
		ok, err := runPredicate(r.predicate, snap)
		if err != nil {
			utils.LogWarn("badges: predicate %s failed: %v", r.badge.ID, err)
			continue
		}
		if ok {
			earned = append(earned, r.badge)
		}
	}
	return earned
}

func runPredicate(p Predicate, snap Snapshot) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("panic: %v", r)
		}
	}()
	return p(snap)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
