package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ecotrack/models"
)

// ActivityKind selects the point value granted for an activity.
type ActivityKind string

const (
	KindRecycling         ActivityKind = "RECYCLING"
	KindTransport         ActivityKind = "TRANSPORT"
	KindEnergySaving      ActivityKind = "ENERGY_SAVING"
	KindWaterConservation ActivityKind = "WATER_CONSERVATION"
	KindWasteReduction    ActivityKind = "WASTE_REDUCTION"
	KindGreenPurchase     ActivityKind = "GREEN_PURCHASE"
)

// DefaultPoints is granted for kinds missing from the table.
const DefaultPoints = 5

var pointsByKind = map[ActivityKind]int{
	KindRecycling:         10,
	KindTransport:         15,
	KindEnergySaving:      20,
	KindWaterConservation: 8,
	KindWasteReduction:    12,
	KindGreenPurchase:     5,
}

// PointsFor returns the ledger points for kind.
func PointsFor(kind ActivityKind) int {
	if p, ok := pointsByKind[ActivityKind(strings.ToUpper(string(kind)))]; ok {
		return p
	}
	return DefaultPoints
}

// KindForActivity picks the kind of an activity: its explicit kind when set,
// otherwise one derived from the category.
func KindForActivity(a *models.Activity) ActivityKind {
	if a.Kind != "" {
		return ActivityKind(strings.ToUpper(a.Kind))
	}
	switch a.Category {
	case models.CategoryTransport:
		return KindTransport
	case models.CategoryEnergy:
		return KindEnergySaving
	case models.CategoryWaste:
		return KindWasteReduction
	case models.CategoryFood:
		return KindGreenPurchase
	default:
		return ""
	}
}

// Award is the result of one ledger grant.
type Award struct {
	Points        int                `json:"points"`
	Streak        models.StreakState `json:"streak"`
	StreakChanged bool               `json:"streakChanged"`
}

// PointsLedger grants points and advances the streak in one store update.
type PointsLedger struct {
	users UserStore
	loc   *time.Location
}

func NewPointsLedger(users UserStore, loc *time.Location) *PointsLedger {
	if loc == nil {
		loc = time.UTC
	}
	return &PointsLedger{users: users, loc: loc}
}

// Award grants the points for kind to userID for an activity on activityDate.
// Streak and counters are written together or not at all; on any error no
// points are granted.
func (l *PointsLedger) Award(ctx context.Context, userID string, kind ActivityKind, activityDate time.Time) (Award, error) {
	if activityDate.IsZero() {
		return Award{}, fmt.Errorf("award points: activity date is required: %w", ErrInvalidInput)
	}

	user, err := l.users.Get(ctx, userID)
	if err != nil {
		return Award{}, fmt.Errorf("award points to %s: %w", userID, err)
	}

	next, changed := NextStreak(user.Streak(), activityDate, l.loc)
	points := PointsFor(kind)

	var streak *models.StreakState
	if changed {
		streak = &next
	}
	if err := l.users.ApplyAward(ctx, userID, streak, points); err != nil {
		return Award{}, fmt.Errorf("apply award to %s: %w", userID, err)
	}
	return Award{Points: points, Streak: next, StreakChanged: changed}, nil
}
