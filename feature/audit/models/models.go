package models

import (
	"encoding/json"
	"time"
)

// AuditAction identifies what kind of change an audit entry records.
type AuditAction string

// Known audit actions.
const (
	ActionCreateReservation AuditAction = "create_reservation"
	ActionCancelReservation AuditAction = "cancel_reservation"
	ActionUpdateReservation AuditAction = "update_reservation"
	ActionUpdateRoom        AuditAction = "update_room"
	ActionCreateUser        AuditAction = "create_user"
	ActionLogin             AuditAction = "login"
	ActionLogout            AuditAction = "logout"
)

// AuditLog represents the 'audit_logs' table. ActorID is nil for entries
// recorded without an authenticated user.
type AuditLog struct {
	ID          uint            `gorm:"column:id;primaryKey" json:"id"`
	ActorID     *uint           `gorm:"column:actor_id" json:"actor_id"`
	Action      AuditAction     `gorm:"column:action;size:32" json:"action"`
	Description string          `gorm:"column:description;size:512" json:"description"`
	Payload     json.RawMessage `gorm:"column:payload;type:json" json:"payload"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name.
func (AuditLog) TableName() string {
	return "audit_logs"
}
