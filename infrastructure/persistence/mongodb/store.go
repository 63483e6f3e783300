package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"templatehub/application/ports"
	pkgerrors "templatehub/pkg/errors"
	"templatehub/pkg/observability"
)

const storeName = "mongodb"

// Store implements ports.DocumentStore on a MongoDB database.
type Store struct {
	db      *mongo.Database
	logger  *zap.Logger
	metrics *observability.Collector
	tracer  *observability.Tracer
}

var _ ports.DocumentStore = (*Store)(nil)

// NewStore creates a document store over db. metrics may be nil.
func NewStore(db *mongo.Database, logger *zap.Logger, metrics *observability.Collector) *Store {
	return &Store{
		db:      db,
		logger:  logger.Named("mongodb"),
		metrics: metrics,
		tracer:  observability.NewTracer("templatehub/mongodb"),
	}
}

// begin opens a span for one store call and returns the function that
// closes it with the call's final error.
func (s *Store) begin(ctx context.Context, op, collection string) (context.Context, func(*error)) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "mongodb."+op,
		attribute.String("db.system", "mongodb"),
		attribute.String("db.collection", collection),
	)
	return ctx, func(errp *error) {
		s.metrics.ObserveStore(storeName, op, started, *errp)
		observability.Finish(span, *errp)
		if *errp != nil {
			s.logger.Error("Document store operation failed",
				zap.String("operation", op),
				zap.String("collection", collection),
				zap.Error(*errp),
			)
		}
	}
}

// Create inserts one document and returns its identifier.
func (s *Store) Create(ctx context.Context, collection string, doc ports.Document) (id string, err error) {
	ctx, done := s.begin(ctx, "create", collection)
	defer done(&err)

	insert, err := toInsert(doc)
	if err != nil {
		return "", err
	}

	res, err := s.db.Collection(collection).InsertOne(ctx, insert)
	if err != nil {
		return "", mapError("insert "+collection, err)
	}

	id = idString(res.InsertedID)
	s.logger.Debug("Document created", zap.String("collection", collection), zap.String("id", id))
	return id, nil
}

// CreateMany inserts docs in order and returns their identifiers.
func (s *Store) CreateMany(ctx context.Context, collection string, docs []ports.Document) (ids []string, err error) {
	ctx, done := s.begin(ctx, "create_many", collection)
	defer done(&err)

	if len(docs) == 0 {
		return []string{}, nil
	}

	inserts := make([]interface{}, len(docs))
	for i, d := range docs {
		if inserts[i], err = toInsert(d); err != nil {
			return nil, err
		}
	}

	res, err := s.db.Collection(collection).InsertMany(ctx, inserts)
	if err != nil {
		return nil, mapError("insert many "+collection, err)
	}

	ids = make([]string, len(res.InsertedIDs))
	for i, v := range res.InsertedIDs {
		ids[i] = idString(v)
	}
	s.logger.Debug("Documents created", zap.String("collection", collection), zap.Int("count", len(ids)))
	return ids, nil
}

// Read returns the first matching document, or nil when none matches.
func (s *Store) Read(ctx context.Context, collection string, filter ports.Document, opts ports.ReadOptions) (doc ports.Document, err error) {
	ctx, done := s.begin(ctx, "read", collection)
	defer done(&err)

	f, err := toFilter(filter)
	if err != nil {
		return nil, err
	}

	findOpts := options.FindOne()
	if p := toProjection(opts.Projection); p != nil {
		findOpts.SetProjection(p)
	}
	if srt := toSort(opts.Sort); srt != nil {
		findOpts.SetSort(srt)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}

	var raw bson.M
	err = s.db.Collection(collection).FindOne(ctx, f, findOpts).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError("find "+collection, err)
	}
	return fromM(raw), nil
}

// ReadMany returns matching documents honouring sort, skip and limit. The
// limit defaults to ports.DefaultReadLimit.
func (s *Store) ReadMany(ctx context.Context, collection string, filter ports.Document, opts ports.ReadOptions) (docs []ports.Document, err error) {
	ctx, done := s.begin(ctx, "read_many", collection)
	defer done(&err)

	f, err := toFilter(filter)
	if err != nil {
		return nil, err
	}

	findOpts := options.Find().SetLimit(opts.EffectiveLimit())
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if p := toProjection(opts.Projection); p != nil {
		findOpts.SetProjection(p)
	}
	if srt := toSort(opts.Sort); srt != nil {
		findOpts.SetSort(srt)
	}

	cursor, err := s.db.Collection(collection).Find(ctx, f, findOpts)
	if err != nil {
		return nil, mapError("find "+collection, err)
	}
	defer cursor.Close(ctx)

	var raw []bson.M
	if err := cursor.All(ctx, &raw); err != nil {
		return nil, mapError("decode "+collection, err)
	}

	docs = make([]ports.Document, len(raw))
	for i, r := range raw {
		docs[i] = fromM(r)
	}
	return docs, nil
}

// Count returns the number of matching documents.
func (s *Store) Count(ctx context.Context, collection string, filter ports.Document) (n int64, err error) {
	ctx, done := s.begin(ctx, "count", collection)
	defer done(&err)

	f, err := toFilter(filter)
	if err != nil {
		return 0, err
	}
	n, err = s.db.Collection(collection).CountDocuments(ctx, f)
	if err != nil {
		return 0, mapError("count "+collection, err)
	}
	return n, nil
}

// Update applies one operator to the first matching document, or to all of
// them when update.Multi is set. An unknown operator is rejected before the
// store is contacted.
func (s *Store) Update(ctx context.Context, collection string, filter ports.Document, update ports.Update) (modified int64, err error) {
	ctx, done := s.begin(ctx, "update", collection)
	defer done(&err)

	u, err := toUpdate(update)
	if err != nil {
		return 0, err
	}
	f, err := toFilter(filter)
	if err != nil {
		return 0, err
	}

	coll := s.db.Collection(collection)
	var res *mongo.UpdateResult
	if update.Multi {
		res, err = coll.UpdateMany(ctx, f, u)
	} else {
		res, err = coll.UpdateOne(ctx, f, u)
	}
	if err != nil {
		return 0, mapError("update "+collection, err)
	}

	s.logger.Debug("Documents updated",
		zap.String("collection", collection),
		zap.Stringer("operator", update.Operator),
		zap.Int64("matched", res.MatchedCount),
		zap.Int64("modified", res.ModifiedCount),
	)
	return res.ModifiedCount, nil
}

// Delete removes the first matching document, or all of them when many is
// set. Matching nothing returns zero.
func (s *Store) Delete(ctx context.Context, collection string, filter ports.Document, many bool) (deleted int64, err error) {
	ctx, done := s.begin(ctx, "delete", collection)
	defer done(&err)

	f, err := toFilter(filter)
	if err != nil {
		return 0, err
	}

	coll := s.db.Collection(collection)
	var res *mongo.DeleteResult
	if many {
		res, err = coll.DeleteMany(ctx, f)
	} else {
		res, err = coll.DeleteOne(ctx, f)
	}
	if err != nil {
		return 0, mapError("delete "+collection, err)
	}

	s.logger.Debug("Documents deleted", zap.String("collection", collection), zap.Int64("count", res.DeletedCount))
	return res.DeletedCount, nil
}

// CreateIndex creates a single or compound index and returns its name.
func (s *Store) CreateIndex(ctx context.Context, collection string, spec ports.IndexSpec) (name string, err error) {
	ctx, done := s.begin(ctx, "create_index", collection)
	defer done(&err)

	if len(spec.Keys) == 0 {
		return "", pkgerrors.NewInvalidArgumentError("index on %s has no keys", collection)
	}

	keys := make(bson.D, 0, len(spec.Keys))
	for _, k := range spec.Keys {
		if k.Field == "" {
			return "", pkgerrors.NewInvalidArgumentError("index on %s has an empty field", collection)
		}
		dir := 1
		if k.Descending {
			dir = -1
		}
		keys = append(keys, bson.E{Key: k.Field, Value: dir})
	}

	idxOpts := options.Index().SetUnique(spec.Unique)
	if spec.Name != "" {
		idxOpts.SetName(spec.Name)
	}

	name, err = s.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys, Options: idxOpts})
	if err != nil {
		return "", mapError("create index on "+collection, err)
	}

	s.logger.Info("Index created", zap.String("collection", collection), zap.String("index", name), zap.Bool("unique", spec.Unique))
	return name, nil
}

// DropIndex drops the named index. A missing index is not an error.
func (s *Store) DropIndex(ctx context.Context, collection, name string) (err error) {
	ctx, done := s.begin(ctx, "drop_index", collection)
	defer done(&err)

	indexes := s.db.Collection(collection).Indexes()
	specs, err := indexes.ListSpecifications(ctx)
	if err != nil {
		return mapError("list indexes on "+collection, err)
	}

	found := false
	for _, spec := range specs {
		if spec.Name == name {
			found = true
			break
		}
	}
	if !found {
		s.logger.Debug("Index not present, nothing to drop", zap.String("collection", collection), zap.String("index", name))
		return nil
	}

	if _, err := indexes.DropOne(ctx, name); err != nil {
		return mapError("drop index on "+collection, err)
	}
	s.logger.Info("Index dropped", zap.String("collection", collection), zap.String("index", name))
	return nil
}

// DropCollection removes a collection and its indexes.
func (s *Store) DropCollection(ctx context.Context, collection string) (err error) {
	ctx, done := s.begin(ctx, "drop_collection", collection)
	defer done(&err)

	if err := s.db.Collection(collection).Drop(ctx); err != nil {
		return mapError("drop collection "+collection, err)
	}
	s.logger.Warn("Collection dropped", zap.String("collection", collection))
	return nil
}

// DropDatabase removes the whole database.
func (s *Store) DropDatabase(ctx context.Context) (err error) {
	ctx, done := s.begin(ctx, "drop_database", "")
	defer done(&err)

	if err := s.db.Drop(ctx); err != nil {
		return mapError("drop database", err)
	}
	s.logger.Warn("Database dropped", zap.String("database", s.db.Name()))
	return nil
}

func idString(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return ""
	}
}
