package models

import "time"

// RoomType classifies who may book a room.
type RoomType string

// Known room types. Only public rooms are bookable by regular users.
const (
	TypePublic  RoomType = "public"
	TypeAdmin   RoomType = "admin"
	TypeService RoomType = "service"
)

// Valid reports whether the type is one of the known values.
func (t RoomType) Valid() bool {
	switch t {
	case TypePublic, TypeAdmin, TypeService:
		return true
	default:
		return false
	}
}

// Room status values derived from block flag and active reservations.
const (
	StatusAvailable = "available"
	StatusOccupied  = "occupied"
	StatusBlocked   = "blocked"
)

// Room represents the 'rooms' table. The booking window fields hold
// "HH:MM" clock strings; nil means the side is unrestricted.
type Room struct {
	ID           uint      `gorm:"column:id;primaryKey" json:"id"`
	Name         string    `gorm:"column:name;size:255;uniqueIndex:uq_rooms_name" json:"name"`
	Type         RoomType  `gorm:"column:type;size:16" json:"type"`
	QRCodeURL    *string   `gorm:"column:qr_code_url;size:512" json:"qr_code_url"`
	IsBlocked    bool      `gorm:"column:is_blocked" json:"is_blocked"`
	BookingStart *string   `gorm:"column:booking_start;size:5" json:"booking_start"`
	BookingEnd   *string   `gorm:"column:booking_end;size:5" json:"booking_end"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name.
func (Room) TableName() string {
	return "rooms"
}
