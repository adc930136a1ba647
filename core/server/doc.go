// Package server holds the HTTP server configuration.
//
// While the main application entry point handles the server startup, this package
// defines the configuration structure for server settings: the listen port,
// prefork worker mode, public base URLs, and CORS origins.
//
// # Usage
//
// This package is primarily used by the core/config package to embed server settings
// and by the QR generator to resolve target and public URLs.
package server
