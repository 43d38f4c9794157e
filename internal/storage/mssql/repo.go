// Package mssql implements a Microsoft SQL Server repository using the
// go-mssqldb bulk copy API. Each CopyFrom call streams one batch through
// INSERT BULK inside its own transaction.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	gddl "pisaetl/internal/ddl"
	msddl "pisaetl/internal/storage/mssql/ddl"
)

const pingTimeout = 10 * time.Second

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string
	// Database overrides the database named in DSN when set.
	Database string
	// Schema qualifies unqualified target names; defaults to "dbo".
	Schema string
	// CreateDatabase runs IF DB_ID(...) IS NULL CREATE DATABASE against
	// master before connecting to Database.
	CreateDatabase bool
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	dsnCfg, err := msdsn.Parse(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	if cfg.Schema == "" {
		cfg.Schema = "dbo"
	}

	if cfg.CreateDatabase && cfg.Database != "" {
		master := dsnCfg
		master.Database = "master"
		if err := ensureDatabase(ctx, sql.OpenDB(mssql.NewConnectorConfig(master)), cfg.Database); err != nil {
			return nil, nil, err
		}
	}
	if cfg.Database != "" {
		dsnCfg.Database = cfg.Database
	}

	db := sql.OpenDB(mssql.NewConnectorConfig(dsnCfg))
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	slog.Info("mssql: connected", "host", dsnCfg.Host, "database", dsnCfg.Database, "schema", cfg.Schema)

	closeFn := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// ensureDatabase creates name through db (connected to master) and closes db.
func ensureDatabase(ctx context.Context, db *sql.DB, name string) error {
	defer db.Close()
	stmt, err := msddl.BuildEnsureDatabaseSQL(name)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("ensure database %s: %w", name, err)
	}
	return nil
}

// qualify prefixes unqualified names with the configured schema.
func (r *Repository) qualify(name string) string {
	if strings.Contains(name, ".") || r.cfg.Schema == "" {
		return name
	}
	return r.cfg.Schema + "." + name
}

// Prepare drops the target when asked, then creates it if missing.
func (r *Repository) Prepare(ctx context.Context, def gddl.TableDef, dropExisting bool) error {
	def.FQN = r.qualify(def.FQN)
	if dropExisting {
		drop, err := msddl.BuildDropTableSQL(def.FQN)
		if err != nil {
			return err
		}
		if err := r.Exec(ctx, drop); err != nil {
			return fmt.Errorf("drop %s: %w", def.FQN, err)
		}
	}
	create, err := msddl.BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	if err := r.Exec(ctx, create); err != nil {
		return fmt.Errorf("create %s: %w", def.FQN, err)
	}
	return nil
}

// CopyFrom performs a bulk insert of rows into target.
func (r *Repository) CopyFrom(ctx context.Context, target string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	table := msddl.QuoteFQN(r.qualify(target))
	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(table, mssql.BulkOptions{}, columns...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	_, err := r.db.ExecContext(ctx, sqlText)
	return err
}
