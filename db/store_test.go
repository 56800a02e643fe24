package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"ecotrack/models"
	"ecotrack/services"
)

var storeNow = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return storeNow }

func newMockT(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func updateOK(n int32) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: n},
		bson.E{Key: "nModified", Value: n},
	)
}

func commandFailure() bson.D {
	return mtest.CreateCommandErrorResponse(mtest.CommandError{
		Code:    1,
		Name:    "InternalError",
		Message: "storage engine failure",
	})
}

func TestExtractDBName(t *testing.T) {
	assert.Equal(t, "carbon", extractDBName("mongodb://localhost:27017/carbon"))
	assert.Equal(t, "ecotrack", extractDBName("mongodb://localhost:27017/"))
	assert.Equal(t, "ecotrack", extractDBName("mongodb://localhost:27017"))
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError("op", nil))

	err := translateError("get entry", mongo.ErrNoDocuments)
	assert.ErrorIs(t, err, services.ErrNotFound)

	err = translateError("list entries", context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, services.IsStoreUnavailable(err))

	err = translateError("list entries", context.DeadlineExceeded)
	assert.ErrorIs(t, err, services.ErrStoreUnavailable)

	err = translateError("create entry", mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}},
	})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	err = translateError("list entries", errors.New("connection reset"))
	assert.ErrorIs(t, err, services.ErrStoreUnavailable)
	assert.EqualError(t, err, "list entries: store unavailable: connection reset")
}

func TestActivityStore(t *testing.T) {
	mt := newMockT(t)

	mt.Run("create stamps ids and times", func(mt *mtest.T) {
		store := NewActivityStore(mt.DB, time.Second)
		store.now = fixedNow
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		a := &models.Activity{OwnerID: "u1", Category: models.CategoryEnergy, Quantity: 2, OccurredOn: storeNow}
		require.NoError(mt, store.Create(context.Background(), a))
		assert.False(mt, a.ID.IsZero())
		assert.Equal(mt, storeNow, a.CreatedAt)
	})

	mt.Run("create with a duplicate key is invalid input", func(mt *mtest.T) {
		store := NewActivityStore(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		a := &models.Activity{OwnerID: "u1", Category: models.CategoryEnergy, Quantity: 2, OccurredOn: storeNow}
		err := store.Create(context.Background(), a)
		assert.ErrorIs(mt, err, services.ErrInvalidInput)
		assert.False(mt, services.IsStoreUnavailable(err))
	})

	mt.Run("create rejects invalid records", func(mt *mtest.T) {
		store := NewActivityStore(mt.DB, time.Second)
		err := store.Create(context.Background(), &models.Activity{OwnerID: "u1", Category: "plastic", OccurredOn: storeNow})
		assert.ErrorIs(mt, err, services.ErrInvalidInput)

		err = store.Create(context.Background(), &models.Activity{OwnerID: "u1", Category: models.CategoryFood, Quantity: -1, OccurredOn: storeNow})
		assert.ErrorIs(mt, err, services.ErrInvalidInput)
	})

	mt.Run("get decodes the owner's record", func(mt *mtest.T) {
		store := NewActivityStore(mt.DB, time.Second)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ecotrack.entries", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "ownerId", Value: "u1"},
			{Key: "category", Value: "transport"},
			{Key: "quantity", Value: 2.5},
			{Key: "occurredOn", Value: primitive.NewDateTimeFromTime(storeNow)},
		}))

		a, err := store.Get(context.Background(), id.Hex(), "u1")
		require.NoError(mt, err)
		assert.Equal(mt, id, a.ID)
		assert.Equal(mt, models.CategoryTransport, a.Category)
		assert.Equal(mt, 2.5, a.Quantity)
		assert.True(mt, storeNow.Equal(a.OccurredOn))
	})

	mt.Run("get maps missing documents to not found", func(mt *mtest.T) {
		store := NewActivityStore(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ecotrack.entries", mtest.FirstBatch))

		_, err := store.Get(context.Background(), primitive.NewObjectID().Hex(), "u1")
		assert.ErrorIs(mt, err, services.ErrNotFound)

		_, err = store.Get(context.Background(), "not-an-id", "u1")
		assert.ErrorIs(mt, err, services.ErrInvalidInput)
	})

	mt.Run("delete of another owner's record is not found", func(mt *mtest.T) {
		store := NewActivityStore(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}))

		err := store.Delete(context.Background(), primitive.NewObjectID().Hex(), "intruder")
		assert.ErrorIs(mt, err, services.ErrNotFound)
	})

	mt.Run("update of a missing record is not found", func(mt *mtest.T) {
		store := NewActivityStore(mt.DB, time.Second)
		mt.AddMockResponses(updateOK(0))

		a := &models.Activity{ID: primitive.NewObjectID(), OwnerID: "u1", Category: models.CategoryWaste, Quantity: 1, OccurredOn: storeNow}
		assert.ErrorIs(mt, store.Update(context.Background(), a), services.ErrNotFound)
	})

	mt.Run("list since filters by window start", func(mt *mtest.T) {
		store := NewActivityStore(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ecotrack.entries", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "ownerId", Value: "a"}, {Key: "quantity", Value: 1.0}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "ownerId", Value: "b"}, {Key: "quantity", Value: 2.0}},
		))

		start := storeNow.AddDate(0, 0, -7)
		records, err := store.ListSince(context.Background(), start)
		require.NoError(mt, err)
		require.Len(mt, records, 2)
		assert.Equal(mt, "b", records[1].OwnerID)

		cmd := mt.GetStartedEvent().Command
		gte := cmd.Lookup("filter", "occurredOn", "$gte").Time()
		assert.True(mt, start.Equal(gte))
	})

	mt.Run("list since without a start scans everything", func(mt *mtest.T) {
		store := NewActivityStore(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ecotrack.entries", mtest.FirstBatch))

		records, err := store.ListSince(context.Background(), time.Time{})
		require.NoError(mt, err)
		assert.NotNil(mt, records)
		assert.Empty(mt, records)

		_, err = mt.GetStartedEvent().Command.Lookup("filter").Document().LookupErr("occurredOn")
		assert.Error(mt, err)
	})

	mt.Run("driver failures are store unavailable", func(mt *mtest.T) {
		store := NewActivityStore(mt.DB, time.Second)
		mt.AddMockResponses(commandFailure())

		_, err := store.ListByOwner(context.Background(), "u1", time.Time{}, time.Time{})
		assert.ErrorIs(mt, err, services.ErrStoreUnavailable)
	})
}

func TestUserStore(t *testing.T) {
	mt := newMockT(t)
	userID := primitive.NewObjectID()

	mt.Run("get decodes engagement fields", func(mt *mtest.T) {
		store := NewUserStore(mt.DB, time.Second)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ecotrack.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: userID},
			{Key: "email", Value: "ada@example.com"},
			{Key: "currentStreak", Value: int32(3)},
			{Key: "longestStreak", Value: int32(5)},
			{Key: "totalPoints", Value: int32(120)},
			{Key: "badges", Value: bson.A{"first_entry"}},
		}))

		u, err := store.Get(context.Background(), userID.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, 3, u.CurrentStreak)
		assert.Equal(mt, 5, u.LongestStreak)
		assert.Equal(mt, 120, u.TotalPoints)
		assert.True(mt, u.HasBadge("first_entry"))
		assert.Equal(mt, "ada", u.Name())
	})

	mt.Run("apply award is one combined update", func(mt *mtest.T) {
		store := NewUserStore(mt.DB, time.Second)
		store.now = fixedNow
		mt.AddMockResponses(updateOK(1))

		last := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
		streak := &models.StreakState{Current: 2, Longest: 4, LastEntryDate: &last}
		require.NoError(mt, store.ApplyAward(context.Background(), userID.Hex(), streak, 15))

		started := mt.GetStartedEvent()
		require.Equal(mt, "update", started.CommandName)
		assert.Nil(mt, mt.GetStartedEvent(), "award must be a single command")

		u := started.Command.Lookup("updates").Array().Index(0).Value().Document().Lookup("u").Document()
		for _, field := range []string{"totalPoints", "weeklyPoints", "monthlyPoints"} {
			assert.EqualValues(mt, 15, u.Lookup("$inc", field).AsInt64(), field)
		}
		assert.EqualValues(mt, 2, u.Lookup("$set", "currentStreak").AsInt64())
		assert.EqualValues(mt, 4, u.Lookup("$set", "longestStreak").AsInt64())
		assert.True(mt, last.Equal(u.Lookup("$set", "lastEntryDate").Time()))
	})

	mt.Run("apply award without streak change leaves streak fields", func(mt *mtest.T) {
		store := NewUserStore(mt.DB, time.Second)
		mt.AddMockResponses(updateOK(1))

		require.NoError(mt, store.ApplyAward(context.Background(), userID.Hex(), nil, 5))
		u := mt.GetStartedEvent().Command.Lookup("updates").Array().Index(0).Value().Document().Lookup("u").Document()
		_, err := u.Lookup("$set").Document().LookupErr("currentStreak")
		assert.Error(mt, err)
	})

	mt.Run("apply award to unknown user is not found", func(mt *mtest.T) {
		store := NewUserStore(mt.DB, time.Second)
		mt.AddMockResponses(updateOK(0))

		err := store.ApplyAward(context.Background(), userID.Hex(), nil, 5)
		assert.ErrorIs(mt, err, services.ErrNotFound)
	})

	mt.Run("apply award failure is store unavailable", func(mt *mtest.T) {
		store := NewUserStore(mt.DB, time.Second)
		mt.AddMockResponses(commandFailure())

		err := store.ApplyAward(context.Background(), userID.Hex(), nil, 5)
		assert.ErrorIs(mt, err, services.ErrStoreUnavailable)
	})

	mt.Run("add badges uses addToSet", func(mt *mtest.T) {
		store := NewUserStore(mt.DB, time.Second)
		mt.AddMockResponses(updateOK(1))

		require.NoError(mt, store.AddBadges(context.Background(), userID.Hex(), []string{"first_entry", "waste_warrior"}))
		u := mt.GetStartedEvent().Command.Lookup("updates").Array().Index(0).Value().Document().Lookup("u").Document()
		each := u.Lookup("$addToSet", "badges", "$each").Array()
		values, err := each.Values()
		require.NoError(mt, err)
		assert.Len(mt, values, 2)

		require.NoError(mt, store.AddBadges(context.Background(), userID.Hex(), nil))
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("reset period counts matched users", func(mt *mtest.T) {
		store := NewUserStore(mt.DB, time.Second)
		mt.AddMockResponses(updateOK(3))

		cutoff := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
		n, err := store.ResetPeriod(context.Background(), models.PeriodWeekly, cutoff, storeNow)
		require.NoError(mt, err)
		assert.EqualValues(mt, 3, n)

		update := mt.GetStartedEvent().Command.Lookup("updates").Array().Index(0).Value().Document()
		assert.True(mt, update.Lookup("multi").Boolean())
		assert.EqualValues(mt, 0, update.Lookup("u", "$set", "weeklyPoints").AsInt64())
		_, err = update.Lookup("u", "$set").Document().LookupErr("totalPoints")
		assert.Error(mt, err)

		_, err = store.ResetPeriod(context.Background(), models.PeriodAllTime, cutoff, storeNow)
		assert.ErrorIs(mt, err, services.ErrInvalidInput)
	})

	mt.Run("display names skip unknown and malformed ids", func(mt *mtest.T) {
		store := NewUserStore(mt.DB, time.Second)
		other := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "ecotrack.users", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: userID}, {Key: "displayName", Value: "Ada"}},
			bson.D{{Key: "_id", Value: other}, {Key: "username", Value: "grace"}},
		))

		names, err := store.DisplayNames(context.Background(), []string{userID.Hex(), other.Hex(), primitive.NewObjectID().Hex(), "bogus"})
		require.NoError(mt, err)
		assert.Equal(mt, map[string]string{userID.Hex(): "Ada", other.Hex(): "grace"}, names)

		names, err = store.DisplayNames(context.Background(), []string{"bogus"})
		require.NoError(mt, err)
		assert.Empty(mt, names)
	})
}
