// Package storage contains storage-agnostic contracts and utilities.
//
// Concrete backends (mongo, mssql, postgres, sqlite, mysql) live in
// subpackages and register a Factory under their kind in init. Callers import
// pisaetl/internal/storage/all for side effects and then open a Repository
// with New, staying independent of the backend in use.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"pisaetl/internal/ddl"
)

// Config carries connection-level settings shared by every backend. One
// Repository serves every target (table or collection) written in a run.
type Config struct {
	// Kind selects the backend, e.g. "mongo" or "mssql".
	Kind string
	// DSN is the driver connection string (Mongo URI, sqlserver://..., ...).
	DSN string
	// Database names the Mongo database or the SQL Server database to ensure.
	Database string
	// Schema qualifies relational targets, e.g. "dbo". Ignored by mongo.
	Schema string
	// CreateDatabase asks backends that support it to create Database first.
	CreateDatabase bool
}

// Repository is the sink abstraction used by the ingestion pipeline.
type Repository interface {
	// Prepare makes target def ready to receive rows. When dropExisting is
	// set, an existing target is removed first.
	Prepare(ctx context.Context, def ddl.TableDef, dropExisting bool) error

	// CopyFrom performs one bulk write of rows (aligned to columns) into
	// target and returns the number of rows reported as written.
	CopyFrom(ctx context.Context, target string, columns []string, rows [][]any) (int64, error)

	// Close releases the underlying connection.
	Close()
}

// Factory constructs a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs f under kind. Registering an existing kind replaces it.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns a sorted snapshot of the registered kinds.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
