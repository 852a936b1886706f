// Package config provides configuration management for the catalog sync service.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file (via godotenv).
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, body limit)
//   - Database: MySQL connection details for configs, snapshots, and run history
//   - Storage: S3/MinIO credentials and bucket settings for the document store
//   - Log: Logging level and format
//   - Sync: Executor tunables (worker pool size, run timeout, fetch retry attempts, scheduler)
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
