package audit

import (
	"context"
	"encoding/json"

	"qrbooks/feature/audit/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultListLimit caps how many entries ListRecent returns when the
// caller does not ask for a limit.
const DefaultListLimit = 200

// Service records and lists audit trail entries.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new audit service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Record writes a single audit entry. Failures are logged rather than
// returned so that a broken audit trail never fails the user's request.
func (s *Service) Record(ctx context.Context, actorID *uint, action models.AuditAction, description string, payload any) {
	entry := models.AuditLog{
		ActorID:     actorID,
		Action:      action,
		Description: description,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn("Failed to encode audit payload", zap.String("action", string(action)), zap.Error(err))
		} else {
			entry.Payload = raw
		}
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.logger.Warn("Failed to record audit entry", zap.String("action", string(action)), zap.Error(err))
	}
}

// ListRecent returns the newest audit entries, most recent first.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}

	var entries []models.AuditLog
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
