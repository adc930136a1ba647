package server

import "strings"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// Prefork enables multi-process listening (one worker per CPU),
	// the equivalent of the worker count of a process manager.
	Prefork bool `mapstructure:"prefork" default:"false"`
	// ExternalBase is the public base URL of this server, used to build
	// absolute links (QR image URLs).
	ExternalBase string `mapstructure:"external_base" default:"http://localhost:8080"`
	// FrontendBase is the base URL of the web frontend. QR codes point here.
	FrontendBase string `mapstructure:"frontend_base" default:"http://localhost:5173"`
	// QRBase overrides FrontendBase as the QR target when set.
	QRBase string `mapstructure:"qr_base" default:""`
	// CORSOrigins is a comma separated list of allowed CORS origins.
	CORSOrigins string `mapstructure:"cors_origins" default:"http://localhost:5173,http://localhost:5174"`
	// ReadTimeoutSeconds bounds how long reading a request may take.
	ReadTimeoutSeconds int `mapstructure:"read_timeout_seconds" default:"30"`
}

// Origins returns the configured CORS origins as a cleaned slice.
func (c Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// QRTarget returns the base URL QR codes should point at.
func (c Config) QRTarget() string {
	if c.QRBase != "" {
		return strings.TrimRight(c.QRBase, "/")
	}
	return strings.TrimRight(c.FrontendBase, "/")
}

// PublicURL joins a path onto the external base URL.
func (c Config) PublicURL(path string) string {
	return strings.TrimRight(c.ExternalBase, "/") + "/" + strings.TrimLeft(path, "/")
}
