package admin

import (
	coreauth "qrbooks/core/middleware/auth"
	auditfeat "qrbooks/feature/audit"
	authfeat "qrbooks/feature/auth"
	"qrbooks/feature/reservations"
	"qrbooks/feature/rooms"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	handler *Handler
}

// Deps bundles the services the admin console operates on.
type Deps struct {
	Rooms        *rooms.Service
	Reservations *reservations.Service
	Users        *authfeat.Service
	Audit        *auditfeat.Service
	Stats        *Service
	Tokens       *coreauth.Manager
	Logger       *zap.Logger
}

// NewFeature creates a new Admin feature.
func NewFeature(deps Deps) *Feature {
	h := NewHandler(deps.Rooms, deps.Reservations, deps.Users, deps.Audit, deps.Stats, deps.Tokens, deps.Logger)
	return &Feature{handler: h}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "admin"
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
