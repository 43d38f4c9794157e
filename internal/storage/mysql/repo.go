// Package mysql implements a MySQL-backed storage.Repository. A batch is
// written as multi-row INSERT statements inside one transaction.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	gddl "pisaetl/internal/ddl"
)

// maxPlaceholders is MySQL's prepared statement parameter limit.
const maxPlaceholders = 65535

// Config holds MySQL repository configuration.
type Config struct {
	// DSN in go-sql-driver format, e.g. "user:pass@tcp(localhost:3306)/pisa".
	DSN string
	// Database overrides the schema named in DSN when set.
	Database string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db *sql.DB
}

// NewRepository parses the DSN, connects and returns a Close function.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	mc, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql dsn: %w", err)
	}
	if cfg.Database != "" {
		mc.DBName = cfg.Database
	}
	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	closeFn := func() { _ = db.Close() }
	return &Repository{db: db}, closeFn, nil
}

// Prepare drops the target when asked and creates it if missing.
func (r *Repository) Prepare(ctx context.Context, def gddl.TableDef, dropExisting bool) error {
	if dropExisting {
		drop, err := dialect.BuildDropTableSQL(def.FQN)
		if err != nil {
			return err
		}
		if _, err := r.db.ExecContext(ctx, drop); err != nil {
			return fmt.Errorf("drop %s: %w", def.FQN, err)
		}
	}
	create, err := dialect.BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create %s: %w", def.FQN, err)
	}
	return nil
}

// CopyFrom inserts rows into target within one transaction.
func (r *Repository) CopyFrom(ctx context.Context, target string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: CopyFrom: columns must not be empty")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	var total int64
	for _, stmt := range buildInserts(target, columns, rows) {
		res, err := tx.ExecContext(ctx, stmt.sql, stmt.args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert into %s: %w", target, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

type insertStmt struct {
	sql  string
	args []any
}

// buildInserts splits rows into multi-row INSERT statements that stay under
// the placeholder limit.
func buildInserts(target string, columns []string, rows [][]any) []insertStmt {
	perStmt := max(1, maxPlaceholders/len(columns))
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	head := fmt.Sprintf("INSERT INTO %s (%s) VALUES ",
		dialect.QuoteFQN(target), strings.Join(dialect.QuoteColumns(columns), ", "))

	var out []insertStmt
	for start := 0; start < len(rows); start += perStmt {
		end := min(start+perStmt, len(rows))
		tuples := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*len(columns))
		for _, row := range rows[start:end] {
			tuples = append(tuples, tuple)
			args = append(args, row...)
		}
		out = append(out, insertStmt{sql: head + strings.Join(tuples, ", "), args: args})
	}
	return out
}
