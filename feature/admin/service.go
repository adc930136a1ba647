package admin

import (
	"context"
	"time"

	auditmodels "qrbooks/feature/audit/models"
	authmodels "qrbooks/feature/auth/models"
	resmodels "qrbooks/feature/reservations/models"
	roommodels "qrbooks/feature/rooms/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Stats is a point-in-time dashboard snapshot.
type Stats struct {
	Rooms        RoomStats        `json:"rooms"`
	Reservations ReservationStats `json:"reservations"`
	Users        UserStats        `json:"users"`
	AuditEntries int64            `json:"audit_entries"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// RoomStats summarizes the room catalog.
type RoomStats struct {
	Total   int64            `json:"total"`
	Blocked int64            `json:"blocked"`
	ByType  map[string]int64 `json:"by_type"`
}

// ReservationStats summarizes booking activity.
type ReservationStats struct {
	Total     int64            `json:"total"`
	ActiveNow int64            `json:"active_now"`
	Upcoming  int64            `json:"upcoming"`
	ByStatus  map[string]int64 `json:"by_status"`
}

// UserStats summarizes the account base.
type UserStats struct {
	Total  int64            `json:"total"`
	ByRole map[string]int64 `json:"by_role"`
}

// Service computes admin dashboard statistics.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new admin stats service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Snapshot gathers the dashboard counters in one pass per table.
func (s *Service) Snapshot(ctx context.Context) (*Stats, error) {
	now := time.Now().UTC()
	stats := &Stats{GeneratedAt: now}
	db := s.db.WithContext(ctx)

	if err := db.Model(&roommodels.Room{}).Count(&stats.Rooms.Total).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&roommodels.Room{}).Where("is_blocked = ?", true).Count(&stats.Rooms.Blocked).Error; err != nil {
		return nil, err
	}
	byType, err := groupCount(db.Model(&roommodels.Room{}), "type")
	if err != nil {
		return nil, err
	}
	stats.Rooms.ByType = byType

	if err := db.Model(&resmodels.Reservation{}).Count(&stats.Reservations.Total).Error; err != nil {
		return nil, err
	}
	byStatus, err := groupCount(db.Model(&resmodels.Reservation{}), "status")
	if err != nil {
		return nil, err
	}
	stats.Reservations.ByStatus = byStatus

	err = db.Model(&resmodels.Reservation{}).
		Where("status = ? AND start_time <= ? AND end_time > ?", resmodels.StatusActive, now, now).
		Count(&stats.Reservations.ActiveNow).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&resmodels.Reservation{}).
		Where("status = ? AND start_time > ?", resmodels.StatusActive, now).
		Count(&stats.Reservations.Upcoming).Error
	if err != nil {
		return nil, err
	}

	if err := db.Model(&authmodels.User{}).Count(&stats.Users.Total).Error; err != nil {
		return nil, err
	}
	byRole, err := groupCount(db.Model(&authmodels.User{}), "role")
	if err != nil {
		return nil, err
	}
	stats.Users.ByRole = byRole

	if err := db.Model(&auditmodels.AuditLog{}).Count(&stats.AuditEntries).Error; err != nil {
		return nil, err
	}

	return stats, nil
}

func groupCount(query *gorm.DB, column string) (map[string]int64, error) {
	// "key" is reserved in MySQL, so the grouping column gets a neutral alias.
	var rows []struct {
		Grp   string
		Count int64
	}
	err := query.
		Select(column + " AS grp, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Grp] = row.Count
	}
	return counts, nil
}
