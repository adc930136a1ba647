// Package database handles database connections and schema migrations.
//
// It provides a wrapper around GORM to configure MySQL connections based on
// the application's configuration. SQLite is supported as a lightweight
// driver for tests and local development.
//
// # Connect
//
// Connect establishes a connection to the database and verifies it with a
// ping. The booking service requires a reachable database, so startup aborts
// when Connect fails.
//
// # Migrations
//
// Versioned SQL migrations are embedded in the binary and applied in order
// through golang-migrate, tracked in the schema_migrations table. On SQLite
// the schema is instead derived from the GORM models via AutoMigrate.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//	if err := database.Migrate(db); err != nil {
//	    log.Fatal("Migration failed", err)
//	}
package database
