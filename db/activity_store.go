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

// ActivityStore keeps activity records in the entries collection.
type ActivityStore struct {
	coll    *mongo.Collection
	timeout time.Duration
	now     services.Clock
}

var _ services.ActivityStore = (*ActivityStore)(nil)

func NewActivityStore(database *mongo.Database, timeout time.Duration) *ActivityStore {
	return &ActivityStore{
		coll:    database.Collection(EntriesCollection),
		timeout: timeout,
		now:     services.SystemClock,
	}
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("malformed id %q: %w", id, services.ErrInvalidInput)
	}
	return oid, nil
}

func (s *ActivityStore) Create(ctx context.Context, activity *models.Activity) error {
	if err := activity.Validate(); err != nil {
		return fmt.Errorf("create entry: %v: %w", err, services.ErrInvalidInput)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	now := s.now().UTC()
	if activity.ID.IsZero() {
		activity.ID = primitive.NewObjectID()
	}
	activity.CreatedAt = now
	activity.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, activity); err != nil {
		return translateError("create entry", err)
	}
	return nil
}

func (s *ActivityStore) Get(ctx context.Context, id, ownerID string) (*models.Activity, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var activity models.Activity
	err = s.coll.FindOne(ctx, bson.M{"_id": oid, "ownerId": ownerID}).Decode(&activity)
	if err != nil {
		return nil, translateError("get entry "+id, err)
	}
	return &activity, nil
}

// Update rewrites the editable fields of an existing record of the same owner.
func (s *ActivityStore) Update(ctx context.Context, activity *models.Activity) error {
	if err := activity.Validate(); err != nil {
		return fmt.Errorf("update entry: %v: %w", err, services.ErrInvalidInput)
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	activity.UpdatedAt = s.now().UTC()
	update := bson.M{"$set": bson.M{
		"category":         activity.Category,
		"kind":             activity.Kind,
		"label":            activity.Label,
		"note":             activity.Note,
		"quantity":         activity.Quantity,
		"unit":             activity.Unit,
		"originalQuantity": activity.OriginalQuantity,
		"occurredOn":       activity.OccurredOn,
		"updatedAt":        activity.UpdatedAt,
	}}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": activity.ID, "ownerId": activity.OwnerID}, update)
	if err != nil {
		return translateError("update entry", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update entry %s: %w", activity.ID.Hex(), services.ErrNotFound)
	}
	return nil
}

func (s *ActivityStore) Delete(ctx context.Context, id, ownerID string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid, "ownerId": ownerID})
	if err != nil {
		return translateError("delete entry", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete entry %s: %w", id, services.ErrNotFound)
	}
	return nil
}

// ListByOwner returns the owner's records in [start, end), newest first.
func (s *ActivityStore) ListByOwner(ctx context.Context, ownerID string, start, end time.Time) ([]models.Activity, error) {
	filter := bson.M{"ownerId": ownerID}
	if r := dateRange(start, end); r != nil {
		filter["occurredOn"] = r
	}
	opts := options.Find().SetSort(bson.D{{Key: "occurredOn", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, "list entries of "+ownerID, filter, opts)
}

// ListSince returns every owner's records on or after start, oldest first.
func (s *ActivityStore) ListSince(ctx context.Context, start time.Time) ([]models.Activity, error) {
	filter := bson.M{}
	if r := dateRange(start, time.Time{}); r != nil {
		filter["occurredOn"] = r
	}
	opts := options.Find().SetSort(bson.D{{Key: "occurredOn", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, "list entries since "+start.Format(time.RFC3339), filter, opts)
}

func (s *ActivityStore) find(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]models.Activity, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateError(op, err)
	}
	defer cursor.Close(ctx)

	activities := []models.Activity{}
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, translateError(op, err)
	}
	return activities, nil
}

func dateRange(start, end time.Time) bson.M {
	r := bson.M{}
	if !start.IsZero() {
		r["$gte"] = start
	}
	if !end.IsZero() {
		r["$lt"] = end
	}
	if len(r) == 0 {
		return nil
	}
	return r
}
