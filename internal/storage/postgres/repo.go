// Package postgres implements a Postgres repository using pgx v5. Each batch
// is written with a single COPY FROM.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	gddl "pisaetl/internal/ddl"
	pgddl "pisaetl/internal/storage/postgres/ddl"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
	// Schema qualifies bare target names; defaults to "public".
	Schema string
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if cfg.Schema == "" {
		cfg.Schema = "public"
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, closeFn, nil
}

func (r *Repository) qualify(name string) string {
	if strings.Contains(name, ".") || r.cfg.Schema == "" {
		return name
	}
	return r.cfg.Schema + "." + name
}

// Prepare drops the target when asked and creates it if missing.
func (r *Repository) Prepare(ctx context.Context, def gddl.TableDef, dropExisting bool) error {
	def.FQN = r.qualify(def.FQN)
	if dropExisting {
		drop, err := pgddl.BuildDropTableSQL(def.FQN)
		if err != nil {
			return err
		}
		if err := r.Exec(ctx, drop); err != nil {
			return fmt.Errorf("drop %s: %w", def.FQN, err)
		}
	}
	create, err := pgddl.BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	if err := r.Exec(ctx, create); err != nil {
		return fmt.Errorf("create %s: %w", def.FQN, err)
	}
	return nil
}

// CopyFrom writes rows into target with one COPY.
func (r *Repository) CopyFrom(ctx context.Context, target string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx, splitFQN(r.qualify(target)), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("copy into %s: %s (%s)", target, pgErr.Detail, pgErr.SQLState())
		}
		return n, fmt.Errorf("copy into %s: %w", target, err)
	}
	return n, nil
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

// Exec runs a statement on the pool.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	_, err := r.pool.Exec(ctx, sql)
	return err
}
