package mongodb

import "pisaetl/internal/storage"

// newRepository is swapped by tests to avoid a live server.
var newRepository = NewRepository

func init() { storage.RegisterBackend("mongo", configFrom, &newRepository) }

// configFrom reads the connection URI from DSN.
func configFrom(cfg storage.Config) Config {
	return Config{URI: cfg.DSN, Database: cfg.Database}
}
