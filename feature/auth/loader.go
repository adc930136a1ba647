package auth

import (
	coreauth "qrbooks/core/middleware/auth"
	"qrbooks/core/middleware/ratelimit"
	auditfeat "qrbooks/feature/audit"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new Auth feature. The login endpoint gets its own
// per-IP limiter, stricter than the global one.
func NewFeature(service *Service, audit *auditfeat.Service, tokens *coreauth.Manager, logger *zap.Logger, limits ratelimit.Config) *Feature {
	login := ratelimit.New(rate.Limit(float64(limits.LoginPerMinute)/60.0), limits.LoginPerMinute)
	h := NewHandler(service, audit, tokens, logger, login)
	return &Feature{service: service, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "auth"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
