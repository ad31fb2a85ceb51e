package model

import "time"

// PartyRole is a member's role within a party.
type PartyRole string

const (
	PartyRoleLeader PartyRole = "leader"
	PartyRoleMember PartyRole = "member"
)

// Party is a small ad-hoc group with a single leader. It shares the guild's
// leadership-succession rules but has no invitation workflows of its own.
type Party struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	LeaderID  int64     `gorm:"not null" json:"leader_id"`
	MaxSize   int       `gorm:"not null" json:"max_size"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PartyMember links a user to a party.
type PartyMember struct {
	PartyID    int64     `gorm:"primaryKey" json:"party_id"`
	AuthUserID int64     `gorm:"primaryKey;index:idx_party_user" json:"auth_user_id"`
	Role       PartyRole `gorm:"size:16;default:member" json:"role"`
	JoinedAt   time.Time `json:"joined_at"`
}
