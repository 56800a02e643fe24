package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"ecotrack/models"
	"ecotrack/utils"
)

// Outcome reports what recording one activity changed.
type Outcome struct {
	Points        int            `json:"points"`
	CurrentStreak int            `json:"currentStreak"`
	LongestStreak int            `json:"longestStreak"`
	NewBadges     []models.Badge `json:"newBadges"`
}

// EngagementService is the entry point the entry-management flow and the
// dashboard handlers call.
type EngagementService struct {
	activities ActivityStore
	users      UserStore
	events     EventPublisher
	tracker    *StreakTracker
	ledger     *PointsLedger
	evaluator  *BadgeEvaluator
	now        Clock
	loc        *time.Location
}

// NewEngagementService wires the engine. events may be nil.
func NewEngagementService(activities ActivityStore, users UserStore, events EventPublisher, now Clock, loc *time.Location) *EngagementService {
	if now == nil {
		now = SystemClock
	}
	if loc == nil {
		loc = time.UTC
	}
	return &EngagementService{
		activities: activities,
		users:      users,
		events:     events,
		tracker:    NewStreakTracker(users, loc),
		ledger:     NewPointsLedger(users, loc),
		evaluator:  NewBadgeEvaluator(),
		now:        now,
		loc:        loc,
	}
}

// RecordActivity applies a durably created activity: points and streak in one
// update, then a badge refresh. It must run exactly once per created record.
// A badge refresh failure is logged and does not fail the call.
func (s *EngagementService) RecordActivity(ctx context.Context, activity *models.Activity) (*Outcome, error) {
	award, err := s.ledger.Award(ctx, activity.OwnerID, KindForActivity(activity), activity.OccurredOn)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, models.GamificationEvent{
		Type:   models.EventPointsAwarded,
		UserID: activity.OwnerID,
		Points: award.Points,
		Streak: award.Streak.Current,
	})
	if award.StreakChanged {
		s.publish(ctx, models.GamificationEvent{
			Type:   models.EventStreakUpdated,
			UserID: activity.OwnerID,
			Streak: award.Streak.Current,
		})
	}

	outcome := &Outcome{
		Points:        award.Points,
		CurrentStreak: award.Streak.Current,
		LongestStreak: award.Streak.Longest,
		NewBadges:     []models.Badge{},
	}
	badges, err := s.RefreshBadges(ctx, activity.OwnerID)
	if err != nil {
		utils.LogWarn("engagement: badge refresh for %s failed: %v", activity.OwnerID, err)
		return outcome, nil
	}
	outcome.NewBadges = badges
	return outcome, nil
}

// RefreshBadges evaluates the catalog against the user's current activities
// and stores any newly earned badges.
func (s *EngagementService) RefreshBadges(ctx context.Context, userID string) ([]models.Badge, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	activities, err := s.activities.ListByOwner(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("load activities of %s: %w", userID, err)
	}

	goal := user.GoalInfo()
	stats := ComputeStats(activities, goal, s.now(), s.loc)
	earned := s.evaluator.Evaluate(stats, activities, goal, user.Badges)
	if len(earned) == 0 {
		return earned, nil
	}

	ids := make([]string, len(earned))
	for i, b := range earned {
		ids[i] = b.ID
	}
	if err := s.users.AddBadges(ctx, userID, ids); err != nil {
		return nil, fmt.Errorf("store badges for %s: %w", userID, err)
	}
	for _, id := range ids {
		s.publish(ctx, models.GamificationEvent{
			Type:    models.EventBadgeAwarded,
			UserID:  userID,
			BadgeID: id,
		})
	}
	utils.LogInfo("engagement: %s earned %v", userID, ids)
	return earned, nil
}

// Stats computes the user's aggregate statistics for their goal period.
func (s *EngagementService) Stats(ctx context.Context, userID string) (models.Stats, models.GoalInfo, error) {
	user, activities, err := s.load(ctx, userID)
	if err != nil {
		return models.Stats{}, models.GoalInfo{}, err
	}
	goal := user.GoalInfo()
	return ComputeStats(activities, goal, s.now(), s.loc), goal, nil
}

// Summary collects stats, streak, points and badges for a dashboard.
func (s *EngagementService) Summary(ctx context.Context, userID string) (*models.EngagementSummary, error) {
	user, activities, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	goal := user.GoalInfo()
	return &models.EngagementSummary{
		Stats:  ComputeStats(activities, goal, s.now(), s.loc),
		Streak: user.Streak(),
		Points: models.PointsBalance{
			Total:   user.TotalPoints,
			Weekly:  user.WeeklyPoints,
			Monthly: user.MonthlyPoints,
		},
		Goal:   goal,
		Badges: BadgeStatuses(user.Badges),
	}, nil
}

// Streak returns the stored streak state of a user.
func (s *EngagementService) Streak(ctx context.Context, userID string) (models.StreakState, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return models.StreakState{}, fmt.Errorf("load user %s: %w", userID, err)
	}
	return user.Streak(), nil
}

// Badges returns the catalog with the user's earned flags.
func (s *EngagementService) Badges(ctx context.Context, userID string) ([]models.BadgeStatus, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	return BadgeStatuses(user.Badges), nil
}

// SetGoal validates and stores a user's emission goal.
func (s *EngagementService) SetGoal(ctx context.Context, userID string, goal models.GoalInfo) error {
	if math.IsNaN(goal.Goal) || math.IsInf(goal.Goal, 0) || goal.Goal < 0 {
		return fmt.Errorf("goal must be a non-negative number: %w", ErrInvalidInput)
	}
	if goal.GoalType == "" {
		goal.GoalType = models.GoalWeekly
	}
	if !goal.GoalType.Valid() {
		return fmt.Errorf("unknown goal type %q: %w", goal.GoalType, ErrInvalidInput)
	}
	if err := s.users.UpdateGoal(ctx, userID, goal); err != nil {
		return fmt.Errorf("update goal of %s: %w", userID, err)
	}
	return nil
}

func (s *EngagementService) MonthlyComparison(ctx context.Context, userID string) (models.MonthlyComparison, error) {
	now := s.now()
	start := startOfMonth(now, s.loc).AddDate(0, -1, 0)
	activities, err := s.activities.ListByOwner(ctx, userID, start, time.Time{})
	if err != nil {
		return models.MonthlyComparison{}, fmt.Errorf("load activities of %s: %w", userID, err)
	}
	return CompareMonths(activities, now, s.loc), nil
}

func (s *EngagementService) CategoryBreakdown(ctx context.Context, userID string) ([]models.CategoryShare, error) {
	activities, err := s.activities.ListByOwner(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("load activities of %s: %w", userID, err)
	}
	return CategoryBreakdown(activities), nil
}

func (s *EngagementService) Intensity(ctx context.Context, userID string) (models.Intensity, error) {
	now := s.now()
	activities, err := s.activities.ListByOwner(ctx, userID, startOfMonth(now, s.loc), time.Time{})
	if err != nil {
		return models.Intensity{}, fmt.Errorf("load activities of %s: %w", userID, err)
	}
	return MonthIntensity(activities, now, s.loc), nil
}

func (s *EngagementService) Suggestions(ctx context.Context, userID string) (models.SuggestionReport, error) {
	now := s.now()
	start := DayOf(now, s.loc).AddDate(0, 0, -historyDays)
	activities, err := s.activities.ListByOwner(ctx, userID, start, time.Time{})
	if err != nil {
		return models.SuggestionReport{}, fmt.Errorf("load activities of %s: %w", userID, err)
	}
	return Suggestions(activities, now, s.loc), nil
}

func (s *EngagementService) load(ctx context.Context, userID string) (*models.User, []models.Activity, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	activities, err := s.activities.ListByOwner(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, nil, fmt.Errorf("load activities of %s: %w", userID, err)
	}
	return user, activities, nil
}

func (s *EngagementService) publish(ctx context.Context, event models.GamificationEvent) {
	if s.events == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	if err := s.events.Publish(ctx, event); err != nil {
		utils.LogWarn("engagement: publish %s for %s: %v", event.Type, event.UserID, err)
	}
}
