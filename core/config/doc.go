// Package config provides configuration management for qrbooks.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, prefork workers, base URLs, CORS origins)
//   - Auth: JWT secret and token lifetimes
//   - Database: MySQL connection details (SQLite for tests)
//   - Storage: S3/MinIO credentials and bucket for QR images
//   - RateLimit: request rate limiting thresholds
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
