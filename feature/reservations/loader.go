package reservations

import (
	coreauth "qrbooks/core/middleware/auth"
	auditfeat "qrbooks/feature/audit"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates a new Reservations feature.
func NewFeature(service *Service, audit *auditfeat.Service, tokens *coreauth.Manager, logger *zap.Logger) *Feature {
	h := NewHandler(service, audit, tokens, logger)
	return &Feature{service: service, handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "reservations"
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
