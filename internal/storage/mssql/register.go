package mssql

import "pisaetl/internal/storage"

// newRepository is swapped by tests to avoid a live server.
var newRepository = NewRepository

func init() { storage.RegisterBackend("mssql", configFrom, &newRepository) }

func configFrom(cfg storage.Config) Config {
	return Config{
		DSN:            cfg.DSN,
		Database:       cfg.Database,
		Schema:         cfg.Schema,
		CreateDatabase: cfg.CreateDatabase,
	}
}
