package models

import "time"

// UserRole classifies what a user is allowed to do.
type UserRole string

// Known user roles.
const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// Valid reports whether the role is one of the known values.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}

// SelfServiceAllowed reports whether the role may be chosen at self-signup.
// Admin accounts can only be created by another admin.
func (r UserRole) SelfServiceAllowed() bool {
	return r == RoleStudent || r == RoleTeacher
}

// User represents the 'users' table.
type User struct {
	ID             uint      `gorm:"column:id;primaryKey" json:"id"`
	Name           string    `gorm:"column:name;size:255;uniqueIndex:uq_users_name" json:"name"`
	Role           UserRole  `gorm:"column:role;size:16" json:"role"`
	HashedPassword string    `gorm:"column:hashed_password;size:255" json:"-"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the table name.
func (User) TableName() string {
	return "users"
}
