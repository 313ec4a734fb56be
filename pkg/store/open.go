package store

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	errs "github.com/matzehuels/nodeflow/pkg/errors"
)

// Connection attempts made by Open for network backends.
const (
	connectAttempts = 3
	connectDelay    = 200 * time.Millisecond
)

// Open creates the store described by rawURL. The returned store reports
// its operations to the observability store hooks.
func Open(ctx context.Context, rawURL string) (Store, error) {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return nil, errs.New(errs.ErrCodeInvalidInput, "store URL %q has no scheme", rawURL)
	}

	var (
		s   Store
		err error
	)
	switch scheme {
	case "file":
		if rest == "" {
			return nil, errs.New(errs.ErrCodeInvalidInput, "file store needs a directory")
		}
		s, err = NewFileStore(rest)
	case "mem", "memory":
		s = NewMemoryStore()
	case "sqlite", "sqlite3":
		if rest == "" {
			return nil, errs.New(errs.ErrCodeInvalidInput, "sqlite store needs a database path")
		}
		s, err = NewSQLiteStore(rest)
	case "redis", "rediss":
		s, err = openRedis(ctx, rawURL)
	case "http", "https":
		s = NewHTTPStore(rawURL, nil)
	case "mongodb", "mongodb+srv":
		s, err = openMongo(ctx, rawURL)
	default:
		return nil, errs.New(errs.ErrCodeUnsupported, "unsupported store scheme %q", scheme)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s, scheme), nil
}

func openRedis(ctx context.Context, rawURL string) (Store, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse redis URL")
	}
	client := redis.NewClient(opt)
	err = RetryWithBackoff(ctx, connectAttempts, connectDelay, func() error {
		return Retryable(client.Ping(ctx).Err())
	})
	if err != nil {
		client.Close()
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "connect to redis")
	}
	return NewRedisStore(client, ""), nil
}

// openMongo connects to the server named by rawURL. The URL path selects
// the database and the collection query parameter selects the collection.
func openMongo(ctx context.Context, rawURL string) (Store, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse mongodb URL")
	}
	q := u.Query()
	collection := q.Get("collection")
	if collection == "" {
		collection = DefaultMongoCollection
	}
	q.Del("collection")
	u.RawQuery = q.Encode()

	database := strings.Trim(u.Path, "/")
	if database == "" {
		database = DefaultMongoDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(u.String()))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "configure mongodb client")
	}
	err = RetryWithBackoff(ctx, connectAttempts, connectDelay, func() error {
		return Retryable(client.Ping(ctx, nil))
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "connect to mongodb")
	}

	s := NewMongoStore(client.Database(database).Collection(collection))
	s.client = client
	return s, nil
}
