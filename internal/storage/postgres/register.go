package postgres

import "pisaetl/internal/storage"

// newRepository is swapped by tests to avoid a live server.
var newRepository = NewRepository

func init() { storage.RegisterBackend("postgres", configFrom, &newRepository) }

func configFrom(cfg storage.Config) Config {
	return Config{DSN: cfg.DSN, Schema: cfg.Schema}
}
