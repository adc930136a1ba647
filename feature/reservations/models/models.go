package models

import (
	"time"

	authmodels "qrbooks/feature/auth/models"
	roommodels "qrbooks/feature/rooms/models"
)

// ReservationStatus is the lifecycle state of a booking.
type ReservationStatus string

// Known reservation statuses.
const (
	StatusActive    ReservationStatus = "active"
	StatusFinished  ReservationStatus = "finished"
	StatusCancelled ReservationStatus = "cancelled"
)

// Valid reports whether the status is one of the known values.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusActive, StatusFinished, StatusCancelled:
		return true
	default:
		return false
	}
}

// Reservation represents the 'reservations' table. Times are stored in UTC.
// The (room_id, start_time, end_time) triple is unique so two identical
// bookings cannot race past the overlap check.
type Reservation struct {
	ID        uint              `gorm:"column:id;primaryKey" json:"id"`
	RoomID    uint              `gorm:"column:room_id;uniqueIndex:uq_room_time" json:"room_id"`
	UserID    uint              `gorm:"column:user_id" json:"user_id"`
	StartTime time.Time         `gorm:"column:start_time;index;uniqueIndex:uq_room_time" json:"start_time"`
	EndTime   time.Time         `gorm:"column:end_time;index;uniqueIndex:uq_room_time" json:"end_time"`
	Status    ReservationStatus `gorm:"column:status;size:16;default:active" json:"status"`
	CreatedAt time.Time         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at" json:"updated_at"`

	Room *roommodels.Room `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	User *authmodels.User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName overrides the table name.
func (Reservation) TableName() string {
	return "reservations"
}
