// Package all registers every built-in sink with the storage factory.
// Import it for side effects:
//
//	import _ "pisaetl/internal/storage/all"
//
// Kinds made available: "mongo", "mssql", "mysql", "postgres", "sqlite".
package all

import (
	_ "pisaetl/internal/storage/mongodb"
	_ "pisaetl/internal/storage/mssql"
	_ "pisaetl/internal/storage/mysql"
	_ "pisaetl/internal/storage/postgres"
	_ "pisaetl/internal/storage/sqlite"
)
