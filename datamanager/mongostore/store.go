// Package mongostore provides a data manager keeping highload block rows as mongodb documents.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/iancoleman/strcase"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hlblock/hlorm/clause"
	"github.com/hlblock/hlorm/datamanager"
	"github.com/hlblock/hlorm/logger"
)

// DefaultPrimaryKey column mapped to the _id field
const DefaultPrimaryKey = "ID"

// Collection operations used by the store, satisfied by *mongo.Collection
type Collection interface {
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*options.AggregateOptions) (*mongo.Cursor, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// Config mongo store config
type Config struct {
	// PrimaryKey column mapped to _id, ID by default
	PrimaryKey string
	Logger     logger.Interface
}

// Store data manager of one collection
type Store struct {
	*Config
	collection Collection
	name       string
}

// New store over the collection
func New(collection Collection, name string, config *Config) *Store {
	if config == nil {
		config = &Config{}
	}
	if config.PrimaryKey == "" {
		config.PrimaryKey = DefaultPrimaryKey
	}
	if config.Logger == nil {
		config.Logger = logger.Discard
	}
	return &Store{Config: config, collection: collection, name: name}
}

// CollectionName collection of a highload block table, eg: BlogArticles -> blog_articles
func CollectionName(table string) string {
	return strcase.ToSnake(table)
}

// Connect connect to the uri and check the deployment is reachable
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri)
	opts.SetConnectTimeout(10 * time.Second).SetServerSelectionTimeout(10 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// Resolver resolver creating one store per collection of the database, stores are cached
func Resolver(database *mongo.Database, config *Config) datamanager.Resolver {
	var stores sync.Map
	return func(table string) (datamanager.Manager, error) {
		if table == "" {
			return nil, errors.New("mongostore: empty table name")
		}
		if store, ok := stores.Load(table); ok {
			return store.(*Store), nil
		}
		name := CollectionName(table)
		store, _ := stores.LoadOrStore(table, New(database.Collection(name), name, config))
		return store.(*Store), nil
	}
}

// Name collection name of the store
func (s *Store) Name() string {
	return s.name
}

// GetList documents matching the parameters, grouped lists run as an aggregation keeping the first document per group
func (s *Store) GetList(ctx context.Context, params clause.Parameters) (datamanager.Rows, error) {
	var (
		cursor *mongo.Cursor
		err    error
		begin  = time.Now()
		filter = s.BuildFilter(params.Filter)
		sort   = s.sortDocument(params.Order)
	)

	if len(params.Group) > 0 {
		pipeline := s.groupPipeline(filter, sort, params)
		cursor, err = s.collection.Aggregate(ctx, pipeline)
		return s.collect(ctx, cursor, err, begin, func() logger.Operation {
			return s.operation(logger.OpGetList, params, "aggregate pipeline="+explain(bson.M{"pipeline": pipeline}))
		})
	}

	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	if projection := s.projection(params.Select); len(projection) > 0 {
		opts.SetProjection(projection)
	}
	if params.Limit > 0 {
		opts.SetLimit(int64(params.Limit))
	}
	if params.Offset > 0 {
		opts.SetSkip(int64(params.Offset))
	}

	cursor, err = s.collection.Find(ctx, filter, opts)
	return s.collect(ctx, cursor, err, begin, func() logger.Operation {
		return s.operation(logger.OpGetList, params, fmt.Sprintf("find filter=%s sort=%s limit=%d skip=%d", explain(filter), explain(sort), params.Limit, params.Offset))
	})
}

// GetCount count documents matching the filter
func (s *Store) GetCount(ctx context.Context, filter clause.Filter) (int64, error) {
	doc := s.BuildFilter(filter)
	begin := time.Now()
	count, err := s.collection.CountDocuments(ctx, doc)
	s.Logger.Trace(ctx, begin, func() (logger.Operation, int64) {
		return s.operation(logger.OpGetCount, clause.Parameters{Filter: filter}, "count filter="+explain(doc)), count
	}, err)
	return count, err
}

// Add insert document, a value of the primary key column becomes the _id
func (s *Store) Add(ctx context.Context, values map[string]interface{}) *datamanager.Result {
	if len(values) == 0 {
		return datamanager.Failure("mongostore: no values to insert into " + s.name)
	}

	doc := s.document(values)
	begin := time.Now()
	result, err := s.collection.InsertOne(ctx, doc)
	s.Logger.Trace(ctx, begin, func() (logger.Operation, int64) {
		op := s.operation(logger.OpAdd, clause.Parameters{}, "insert document="+explain(doc))
		op.Values = values
		return op, 1
	}, err)
	if err != nil {
		return datamanager.FailureFromError(err)
	}

	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		return datamanager.Success(id.Hex())
	}
	return datamanager.Success(result.InsertedID)
}

// Update set values on the document with the primary key, the _id of a document cannot change
func (s *Store) Update(ctx context.Context, primary interface{}, values map[string]interface{}) *datamanager.Result {
	if key, ok := values[s.PrimaryKey]; ok && !clause.LooseEqual(key, primary) {
		return datamanager.Failure(fmt.Sprintf("mongostore: %s of %s %v cannot change to %v", IDField, s.name, primary, key))
	}

	set := s.document(values)
	delete(set, IDField)
	if len(set) == 0 {
		return datamanager.Success(primary)
	}

	filter := bson.M{IDField: documentID(primary)}
	update := bson.M{"$set": set}
	begin := time.Now()
	result, err := s.collection.UpdateOne(ctx, filter, update)

	var matched int64
	if err == nil {
		matched = result.MatchedCount
	}
	s.Logger.Trace(ctx, begin, func() (logger.Operation, int64) {
		op := s.operation(logger.OpUpdate, clause.Parameters{}, fmt.Sprintf("update filter=%s update=%s", explain(filter), explain(update)))
		op.ID = primary
		return op, matched
	}, err)

	if err != nil {
		return datamanager.FailureFromError(err)
	}
	if matched == 0 {
		return s.notFound(primary)
	}
	return datamanager.Success(primary)
}

// Delete delete the document with the primary key
func (s *Store) Delete(ctx context.Context, primary interface{}) *datamanager.Result {
	filter := bson.M{IDField: documentID(primary)}
	begin := time.Now()
	result, err := s.collection.DeleteOne(ctx, filter)

	var deleted int64
	if err == nil {
		deleted = result.DeletedCount
	}
	s.Logger.Trace(ctx, begin, func() (logger.Operation, int64) {
		op := s.operation(logger.OpDelete, clause.Parameters{}, "delete filter="+explain(filter))
		op.ID = primary
		return op, deleted
	}, err)

	if err != nil {
		return datamanager.FailureFromError(err)
	}
	if deleted == 0 {
		return s.notFound(primary)
	}
	return datamanager.Success(primary)
}

// operation traced operation running the native command statement
func (s *Store) operation(name string, params clause.Parameters, statement string) logger.Operation {
	return logger.Operation{Name: name, Table: s.name, Params: params, Statement: statement}
}

func (s *Store) notFound(primary interface{}) *datamanager.Result {
	return datamanager.Failure(fmt.Sprintf("%v: %s %v", datamanager.ErrRecordNotFound, s.name, primary))
}

func (s *Store) sortDocument(order []clause.OrderByColumn) bson.D {
	sort := bson.D{}
	for _, column := range order {
		direction := 1
		if column.Desc {
			direction = -1
		}
		sort = append(sort, bson.E{Key: s.field(column.Column), Value: direction})
	}
	return sort
}

func (s *Store) projection(columns []string) bson.D {
	projection := bson.D{}
	for _, column := range columns {
		projection = append(projection, bson.E{Key: s.field(column), Value: 1})
	}
	return projection
}

func (s *Store) groupPipeline(filter bson.M, sort bson.D, params clause.Parameters) mongo.Pipeline {
	key := bson.D{}
	for _, column := range params.Group {
		key = append(key, bson.E{Key: column, Value: "$" + s.field(column)})
	}

	pipeline := mongo.Pipeline{{{Key: "$match", Value: filter}}}
	if len(sort) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: bson.D{{Key: IDField, Value: key}, {Key: "doc", Value: bson.M{"$first": "$$ROOT"}}}}},
		bson.D{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$doc"}}},
	)
	if len(sort) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	if projection := s.projection(params.Select); len(projection) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: projection}})
	}
	if params.Offset > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(params.Offset)}})
	}
	if params.Limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(params.Limit)}})
	}
	return pipeline
}

func (s *Store) collect(ctx context.Context, cursor *mongo.Cursor, err error, begin time.Time, operation func() logger.Operation) (datamanager.Rows, error) {
	var rows []map[string]interface{}
	if err == nil {
		var docs []bson.M
		if err = cursor.All(ctx, &docs); err == nil {
			rows = make([]map[string]interface{}, 0, len(docs))
			for _, doc := range docs {
				rows = append(rows, s.row(doc))
			}
		}
	}

	s.Logger.Trace(ctx, begin, func() (logger.Operation, int64) {
		return operation(), int64(len(rows))
	}, err)
	if err != nil {
		return nil, err
	}
	return datamanager.NewRows(rows...), nil
}

func (s *Store) document(values map[string]interface{}) bson.M {
	doc := make(bson.M, len(values))
	for column, value := range values {
		if column == s.PrimaryKey {
			doc[IDField] = documentID(value)
		} else {
			doc[column] = value
		}
	}
	return doc
}

// row document as a host row, the _id field is renamed to the primary key column
func (s *Store) row(doc bson.M) map[string]interface{} {
	row := make(map[string]interface{}, len(doc))
	for field, value := range doc {
		if field == IDField {
			row[s.PrimaryKey] = plain(value)
		} else {
			row[field] = plain(value)
		}
	}
	return row
}

func plain(value interface{}) interface{} {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time()
	case int32:
		return int64(v)
	case primitive.A:
		values := make([]interface{}, len(v))
		for idx, item := range v {
			values[idx] = plain(item)
		}
		return values
	case bson.M:
		results := make(map[string]interface{}, len(v))
		for key, item := range v {
			results[key] = plain(item)
		}
		return results
	case bson.D:
		results := make(map[string]interface{}, len(v))
		for _, item := range v {
			results[item.Key] = plain(item.Value)
		}
		return results
	}
	return value
}
