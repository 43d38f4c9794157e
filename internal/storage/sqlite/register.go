package sqlite

import "pisaetl/internal/storage"

// newRepository is swapped by tests.
var newRepository = NewRepository

func init() { storage.RegisterBackend("sqlite", configFrom, &newRepository) }

// configFrom ignores Database and Schema; the DSN names the file.
func configFrom(cfg storage.Config) Config { return Config{DSN: cfg.DSN} }
