package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ecotrack/models"
	"ecotrack/services"
)

// UserStore reads and updates the engagement fields of the users collection.
type UserStore struct {
	coll    *mongo.Collection
	timeout time.Duration
	now     services.Clock
}

var _ services.UserStore = (*UserStore)(nil)

func NewUserStore(database *mongo.Database, timeout time.Duration) *UserStore {
	return &UserStore{
		coll:    database.Collection(UsersCollection),
		timeout: timeout,
		now:     services.SystemClock,
	}
}

func (s *UserStore) Get(ctx context.Context, userID string) (*models.User, error) {
	oid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var user models.User
	if err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		return nil, translateError("get user "+userID, err)
	}
	return &user, nil
}

// DisplayNames resolves ids in one query. Malformed and unknown ids are
// left out of the result.
func (s *UserStore) DisplayNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(userIDs))
	oids := make([]primitive.ObjectID, 0, len(userIDs))
	for _, id := range userIDs {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return names, nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"email": 1, "username": 1, "displayName": 1})
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, opts)
	if err != nil {
		return nil, translateError("resolve display names", err)
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, translateError("resolve display names", err)
	}
	for i := range users {
		names[users[i].ID.Hex()] = users[i].Name()
	}
	return names, nil
}

func (s *UserStore) SaveStreak(ctx context.Context, userID string, streak models.StreakState) error {
	return s.updateOne(ctx, "save streak", userID, bson.M{"$set": s.streakFields(&streak)})
}

// ApplyAward increments the three point counters and stores the streak in a
// single update so readers never see one without the other.
func (s *UserStore) ApplyAward(ctx context.Context, userID string, streak *models.StreakState, points int) error {
	set := bson.M{"updatedAt": s.now().UTC()}
	if streak != nil {
		set = s.streakFields(streak)
	}
	update := bson.M{
		"$inc": bson.M{
			"totalPoints":   points,
			"weeklyPoints":  points,
			"monthlyPoints": points,
		},
		"$set": set,
	}
	return s.updateOne(ctx, "apply award", userID, update)
}

func (s *UserStore) AddBadges(ctx context.Context, userID string, badgeIDs []string) error {
	if len(badgeIDs) == 0 {
		return nil
	}
	update := bson.M{
		"$addToSet": bson.M{"badges": bson.M{"$each": badgeIDs}},
		"$set":      bson.M{"updatedAt": s.now().UTC()},
	}
	return s.updateOne(ctx, "add badges", userID, update)
}

func (s *UserStore) UpdateGoal(ctx context.Context, userID string, goal models.GoalInfo) error {
	update := bson.M{"$set": bson.M{
		"goal":      goal.Goal,
		"goalType":  goal.GoalType,
		"updatedAt": s.now().UTC(),
	}}
	return s.updateOne(ctx, "update goal", userID, update)
}

// ResetPeriod zeroes the period counter of every user whose last reset is
// before cutoff or missing, and stamps the reset time.
func (s *UserStore) ResetPeriod(ctx context.Context, period models.Period, cutoff, now time.Time) (int64, error) {
	var pointsField, stampField string
	switch period {
	case models.PeriodWeekly:
		pointsField, stampField = "weeklyPoints", "weeklyResetAt"
	case models.PeriodMonthly:
		pointsField, stampField = "monthlyPoints", "monthlyResetAt"
	default:
		return 0, fmt.Errorf("reset period %q: %w", period, services.ErrInvalidInput)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{stampField: bson.M{"$lt": cutoff}},
		bson.M{stampField: nil},
	}}
	update := bson.M{"$set": bson.M{pointsField: 0, stampField: now}}
	res, err := s.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, translateError("reset "+string(period)+" points", err)
	}
	return res.MatchedCount, nil
}

func (s *UserStore) streakFields(streak *models.StreakState) bson.M {
	return bson.M{
		"currentStreak": streak.Current,
		"longestStreak": streak.Longest,
		"lastEntryDate": streak.LastEntryDate,
		"updatedAt":     s.now().UTC(),
	}
}

func (s *UserStore) updateOne(ctx context.Context, op, userID string, update bson.M) error {
	oid, err := parseID(userID)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return translateError(op, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s for %s: %w", op, userID, services.ErrNotFound)
	}
	return nil
}
