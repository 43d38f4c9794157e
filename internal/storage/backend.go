package storage

import (
	"context"
	"fmt"

	"pisaetl/internal/ddl"
)

// Sink is the write half of Repository. Backend constructors return a Sink
// plus the cleanup func that becomes Close.
type Sink interface {
	Prepare(ctx context.Context, def ddl.TableDef, dropExisting bool) error
	CopyFrom(ctx context.Context, target string, columns []string, rows [][]any) (int64, error)
}

// RegisterBackend registers kind with a Factory that maps Config through conf
// and calls *open. open is read on every New, so tests can swap the
// constructor variable after init.
//
//	var newRepository = NewRepository
//	func init() { storage.RegisterBackend("mysql", configFrom, &newRepository) }
func RegisterBackend[C any, S Sink](kind string, conf func(Config) C, open *func(context.Context, C) (S, func(), error)) {
	Register(kind, func(ctx context.Context, cfg Config) (Repository, error) {
		s, closeFn, err := (*open)(ctx, conf(cfg))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", kind, err)
		}
		return &closingSink{Sink: s, closeFn: closeFn}, nil
	})
}

type closingSink struct {
	Sink
	closeFn func()
}

func (c *closingSink) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}
