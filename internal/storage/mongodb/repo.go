// Package mongodb implements a MongoDB-backed storage.Repository with the
// official v2 driver. Targets are collections; each batch becomes one
// InsertMany call with one document per row.
package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	gddl "pisaetl/internal/ddl"
)

const (
	pingTimeout       = 10 * time.Second
	disconnectTimeout = 5 * time.Second
)

// Config holds Mongo repository configuration.
type Config struct {
	URI string
	// Database is required unless the URI carries a path, e.g.
	// mongodb://host/pisa2018.
	Database string
}

// database is the slice of the driver the repository relies on.
type database interface {
	ListCollectionNames(ctx context.Context, filter any) ([]string, error)
	DropCollection(ctx context.Context, name string) error
	InsertMany(ctx context.Context, collection string, docs []any) (int64, error)
}

// Repository is a MongoDB implementation of storage.Repository.
type Repository struct {
	db database
}

// NewRepository connects, pings and returns a Repository plus a Close
// function that disconnects the client.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.URI) == "" {
		return nil, nil, fmt.Errorf("mongo: URI must not be empty")
	}
	dbName := cfg.Database
	if dbName == "" {
		dbName = databaseFromURI(cfg.URI)
	}
	if dbName == "" {
		return nil, nil, fmt.Errorf("mongo: database name is required")
	}

	slog.Info("mongo: connecting", "uri", maskURI(cfg.URI), "database", dbName)
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	closeFn := func() {
		dctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			slog.Warn("mongo: disconnect", "err", err)
		}
	}
	return &Repository{db: driverDatabase{db: client.Database(dbName)}}, closeFn, nil
}

// Prepare drops the collection when dropExisting is set and it exists.
// Collections are created implicitly by the first insert.
func (r *Repository) Prepare(ctx context.Context, def gddl.TableDef, dropExisting bool) error {
	if !dropExisting {
		return nil
	}
	names, err := r.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: def.FQN}})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, n := range names {
		if n == def.FQN {
			if err := r.db.DropCollection(ctx, def.FQN); err != nil {
				return fmt.Errorf("drop %s: %w", def.FQN, err)
			}
			slog.Info("mongo: dropped collection", "collection", def.FQN)
			return nil
		}
	}
	return nil
}

// CopyFrom inserts one document per row into collection target. Nil values
// are stored as BSON null so every document carries the full column set.
func (r *Repository) CopyFrom(ctx context.Context, target string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	docs, err := toDocuments(columns, rows)
	if err != nil {
		return 0, err
	}
	n, err := r.db.InsertMany(ctx, target, docs)
	if err != nil {
		return n, fmt.Errorf("insert into %s: %w", target, err)
	}
	return n, nil
}

func toDocuments(columns []string, rows [][]any) ([]any, error) {
	docs := make([]any, len(rows))
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("mongo: row %d length %d != columns length %d", i, len(row), len(columns))
		}
		doc := make(bson.D, len(columns))
		for j, c := range columns {
			doc[j] = bson.E{Key: c, Value: row[j]}
		}
		docs[i] = doc
	}
	return docs, nil
}

// databaseFromURI returns the path component of a Mongo URI, if any.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return strings.Trim(u.Path, "/")
}

// maskURI hides the password of a Mongo URI for logging.
func maskURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return uri
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// driverDatabase adapts *mongo.Database to the database interface.
type driverDatabase struct {
	db *mongo.Database
}

func (d driverDatabase) ListCollectionNames(ctx context.Context, filter any) ([]string, error) {
	return d.db.ListCollectionNames(ctx, filter)
}

func (d driverDatabase) DropCollection(ctx context.Context, name string) error {
	return d.db.Collection(name).Drop(ctx)
}

func (d driverDatabase) InsertMany(ctx context.Context, collection string, docs []any) (int64, error) {
	res, err := d.db.Collection(collection).InsertMany(ctx, docs)
	if res == nil {
		return 0, err
	}
	return int64(len(res.InsertedIDs)), err
}
