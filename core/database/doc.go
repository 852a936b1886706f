// Package database handles the application's database connection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to properly configure
// MySQL connections based on the application's configuration: DSN construction with
// encoded credentials, connect/read/write timeouts, and connection pool limits.
//
// # Connect
//
// The Connect function establishes a connection to the database and verifies it with
// a bounded ping. Schema management for the sync tables (configs, snapshots, runs)
// lives with the feature repositories, not here.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
