package mongodb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"templatehub/application/ports"
	pkgerrors "templatehub/pkg/errors"
	"templatehub/pkg/observability"
)

func newMockStore(mt *mtest.T) *Store {
	return NewStore(mt.DB, zap.NewNop(), observability.NewCollector("test"))
}

func e(key string, value interface{}) bson.E {
	return bson.E{Key: key, Value: value}
}

func TestStore_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns generated id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store := newMockStore(mt)

		id, err := store.Create(context.Background(), "projects", ports.Document{"project_name": "Foo"})

		require.NoError(mt, err)
		_, parseErr := primitive.ObjectIDFromHex(id)
		assert.NoError(mt, parseErr)
	})

	mt.Run("duplicate key is a write conflict", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: test.users index: username_1",
		}))
		store := newMockStore(mt)

		_, err := store.Create(context.Background(), "users", ports.Document{"username": "alice"})

		require.Error(mt, err)
		assert.True(mt, pkgerrors.IsWriteError(err))
		assert.True(mt, pkgerrors.IsConflict(err))
	})
}

func TestStore_CreateMany(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns one id per document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(e("n", 2)))
		store := newMockStore(mt)

		ids, err := store.CreateMany(context.Background(), "orgs", []ports.Document{{"org_name": "a"}, {"org_name": "b"}})

		require.NoError(mt, err)
		assert.Len(mt, ids, 2)
		assert.NotEqual(mt, ids[0], ids[1])
	})
}

func TestStore_Read(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	oid := primitive.NewObjectID()

	mt.Run("converts identifiers and arrays", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.projects", mtest.FirstBatch, bson.D{
			e("_id", oid),
			e("project_name", "Foo"),
			e("project_tags", bson.A{"a", "b"}),
			e("advanced", bson.D{e("database", "postgres")}),
		}))
		store := newMockStore(mt)

		doc, err := store.Read(context.Background(), "projects", ports.Document{"_id": oid.Hex()}, ports.ReadOptions{})

		require.NoError(mt, err)
		require.NotNil(mt, doc)
		assert.Equal(mt, oid.Hex(), doc["_id"])
		assert.Equal(mt, "Foo", doc["project_name"])
		assert.Equal(mt, []any{"a", "b"}, doc["project_tags"])
		assert.Equal(mt, map[string]any{"database": "postgres"}, doc["advanced"])

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		filterID := started.Command.Lookup("filter", "_id")
		assert.Equal(mt, oid, filterID.ObjectID())
	})

	mt.Run("no match is nil without error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.projects", mtest.FirstBatch))
		store := newMockStore(mt)

		doc, err := store.Read(context.Background(), "projects", ports.Document{"created_by": "nobody"}, ports.ReadOptions{})

		assert.NoError(mt, err)
		assert.Nil(mt, doc)
	})

	mt.Run("malformed id is invalid argument", func(mt *mtest.T) {
		store := newMockStore(mt)

		_, err := store.Read(context.Background(), "projects", ports.Document{"_id": "p1"}, ports.ReadOptions{})

		assert.True(mt, pkgerrors.IsInvalidArgument(err))
		assert.Nil(mt, mt.GetStartedEvent())
	})
}

func TestStore_ReadMany(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("applies the default limit", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.projects", mtest.FirstBatch,
			bson.D{e("_id", primitive.NewObjectID()), e("created_by", "u1")},
			bson.D{e("_id", primitive.NewObjectID()), e("created_by", "u1")},
		))
		store := newMockStore(mt)

		docs, err := store.ReadMany(context.Background(), "projects", ports.Document{"created_by": "u1"}, ports.ReadOptions{})

		require.NoError(mt, err)
		assert.Len(mt, docs, 2)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, ports.DefaultReadLimit, started.Command.Lookup("limit").AsInt64())
	})

	mt.Run("forwards sort skip and projection", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.templates", mtest.FirstBatch))
		store := newMockStore(mt)

		_, err := store.ReadMany(context.Background(), "templates", ports.Document{}, ports.ReadOptions{
			Projection: []string{"template_name"},
			Sort:       []ports.SortField{{Field: "stars", Descending: true}},
			Limit:      5,
			Skip:       10,
		})
		require.NoError(mt, err)

		cmd := mt.GetStartedEvent().Command
		assert.Equal(mt, int64(5), cmd.Lookup("limit").AsInt64())
		assert.Equal(mt, int64(10), cmd.Lookup("skip").AsInt64())
		assert.Equal(mt, int64(-1), cmd.Lookup("sort", "stars").AsInt64())
		assert.Equal(mt, int64(1), cmd.Lookup("projection", "template_name").AsInt64())
	})
}

func TestStore_Count(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("returns server count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.templates", mtest.FirstBatch, bson.D{e("n", int32(3))}))
		store := newMockStore(mt)

		n, err := store.Count(context.Background(), "templates", ports.Document{"is_private": false})

		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)
	})
}

func TestStore_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("increment returns modified count", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(e("n", 1), e("nModified", 1)))
		store := newMockStore(mt)

		n, err := store.Update(context.Background(), "templates", ports.Document{"template_name": "X"}, ports.Update{
			Operator: ports.UpdateIncrement,
			Fields:   ports.Document{"stars": 1},
		})

		require.NoError(mt, err)
		assert.Equal(mt, int64(1), n)

		started := mt.GetStartedEvent()
		assert.Equal(mt, "update", started.CommandName)
		assert.Equal(mt, int64(1), started.Command.Lookup("updates", "0", "u", "$inc", "stars").AsInt64())
	})

	mt.Run("unknown operator performs no call", func(mt *mtest.T) {
		store := newMockStore(mt)

		_, err := store.Update(context.Background(), "templates", ports.Document{}, ports.Update{
			Operator: ports.UpdateOperator(42),
			Fields:   ports.Document{"stars": 1},
		})

		assert.True(mt, pkgerrors.IsInvalidArgument(err))
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("multi uses updateMany", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(e("n", 3), e("nModified", 2)))
		store := newMockStore(mt)

		n, err := store.Update(context.Background(), "projects", ports.Document{"created_by": "u1"}, ports.Update{
			Operator: ports.UpdateUnset,
			Fields:   ports.Document{"database": nil},
			Multi:    true,
		})

		require.NoError(mt, err)
		assert.Equal(mt, int64(2), n)
		assert.True(mt, mt.GetStartedEvent().Command.Lookup("updates", "0", "multi").Boolean())
	})
}

func TestStore_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("zero matches is not an error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(e("n", 0)))
		store := newMockStore(mt)

		n, err := store.Delete(context.Background(), "projects", ports.Document{"_id": primitive.NewObjectID().Hex()}, false)

		assert.NoError(mt, err)
		assert.Zero(mt, n)
	})
}

func TestStore_Indexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	idIndex := bson.D{e("v", int32(2)), e("key", bson.D{e("_id", int32(1))}), e("name", "_id_")}
	usernameIndex := bson.D{e("v", int32(2)), e("key", bson.D{e("username", int32(1))}), e("name", "username_1"), e("unique", true)}

	mt.Run("create returns index name", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store := newMockStore(mt)

		name, err := store.CreateIndex(context.Background(), "users", ports.SingleFieldIndex("username", true))

		require.NoError(mt, err)
		assert.Equal(mt, "username_1", name)
	})

	mt.Run("compound index", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		store := newMockStore(mt)

		name, err := store.CreateIndex(context.Background(), "projects", ports.IndexSpec{Keys: []ports.IndexKey{
			{Field: "created_by"},
			{Field: "created_at", Descending: true},
		}})

		require.NoError(mt, err)
		assert.Equal(mt, "created_by_1_created_at_-1", name)
	})

	mt.Run("drop missing index is a no-op", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, idIndex))
		store := newMockStore(mt)

		err := store.DropIndex(context.Background(), "users", "email_1")

		assert.NoError(mt, err)
		assert.Len(mt, mt.GetAllStartedEvents(), 1)
	})

	mt.Run("drop existing index", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, idIndex, usernameIndex),
			mtest.CreateSuccessResponse(),
		)
		store := newMockStore(mt)

		err := store.DropIndex(context.Background(), "users", "username_1")

		require.NoError(mt, err)
		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 2)
		assert.Equal(mt, "dropIndexes", events[1].CommandName)
	})
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"duplicate key", mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}, pkgerrors.IsConflict},
		{"other write error", mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 121, Message: "document failed validation"}}}, pkgerrors.IsWriteError},
		{"network", mongo.CommandError{Code: 6, Labels: []string{"NetworkError"}}, pkgerrors.IsNetwork},
		{"deadline", context.DeadlineExceeded, pkgerrors.IsNetwork},
		{"other", errors.New("boom"), func(err error) bool { return pkgerrors.IsType(err, pkgerrors.ErrorTypeDatabase) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(mapError("op", tt.err)))
		})
	}
	assert.Nil(t, mapError("op", nil))
}

func TestToUpdate(t *testing.T) {
	u, err := toUpdate(ports.Update{Operator: ports.UpdatePush, Fields: ports.Document{"starred_templates": "t1"}})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"$push": bson.M{"starred_templates": "t1"}}, u)

	_, err = toUpdate(ports.Update{Operator: ports.UpdateSet})
	assert.True(t, pkgerrors.IsInvalidArgument(err))
}
