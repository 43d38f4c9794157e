package mysql

import "pisaetl/internal/storage"

// newRepository is swapped by tests to avoid a live server.
var newRepository = NewRepository

func init() { storage.RegisterBackend("mysql", configFrom, &newRepository) }

// configFrom maps Database onto the DSN's schema; MySQL has no separate
// schema level.
func configFrom(cfg storage.Config) Config {
	return Config{DSN: cfg.DSN, Database: cfg.Database}
}
