package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// Defaults used by Open for mongodb:// URLs.
const (
	DefaultMongoDatabase   = "nodeflow"
	DefaultMongoCollection = "documents"
)

// MongoStore keeps one MongoDB document per key, using the key as _id.
type MongoStore struct {
	coll   *mongo.Collection
	client *mongo.Client // disconnected on Close when set
}

type mongoDocument struct {
	Key       string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore wraps coll. Close leaves the collection's client connected.
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func byKey(key string) bson.D {
	return bson.D{{Key: "_id", Value: key}}
}

// Get returns the document stored under key.
func (s *MongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := errs.ValidateKey(key); err != nil {
		return nil, err
	}
	var doc mongoDocument
	err := s.coll.FindOne(ctx, byKey(key)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", key, err)
	}
	return doc.Data, nil
}

// Put upserts the document for key.
func (s *MongoStore) Put(ctx context.Context, key string, data []byte) error {
	if err := errs.ValidateKey(key); err != nil {
		return err
	}
	doc := mongoDocument{Key: key, Data: data, UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, byKey(key), doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo replace %s: %w", key, err)
	}
	return nil
}

// Delete removes the document for key.
func (s *MongoStore) Delete(ctx context.Context, key string) error {
	if err := errs.ValidateKey(key); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, byKey(key))
	if err != nil {
		return fmt.Errorf("mongo delete %s: %w", key, err)
	}
	if res.DeletedCount == 0 {
		return notFound(key)
	}
	return nil
}

// List returns every key in the collection.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	var keys []string
	for cur.Next(ctx) {
		var doc struct {
			Key string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		keys = append(keys, doc.Key)
	}
	return keys, cur.Err()
}

// Close disconnects the client if the store created it.
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
