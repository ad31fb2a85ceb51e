package model

import "time"

// Well-known role names seeded at migration time.
const (
	RoleGuildMaster      = "Guild Master"
	RolePartyLeader      = "Party Leader"
	RoleVerifiedLecturer = "Verified Lecturer"
)

// Role is a global role definition.
type Role struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
}

// RoleAssignment grants a global role to a user.
type RoleAssignment struct {
	AuthUserID int64     `gorm:"primaryKey" json:"auth_user_id"`
	RoleID     int64     `gorm:"primaryKey" json:"role_id"`
	AssignedAt time.Time `gorm:"autoCreateTime" json:"assigned_at"`
	AssignedBy int64     `json:"assigned_by"`
}
