package model

import "time"

// WorkflowStatus is the state of an invitation or join request.
// Pending is the only non-terminal state.
type WorkflowStatus string

const (
	WorkflowPending  WorkflowStatus = "pending"
	WorkflowAccepted WorkflowStatus = "accepted"
	WorkflowDeclined WorkflowStatus = "declined"
	WorkflowExpired  WorkflowStatus = "expired"
)

// Terminal reports whether s is a terminal workflow state.
func (s WorkflowStatus) Terminal() bool { return s != WorkflowPending }

// GuildInvitation is a host-initiated offer to join a guild. There is at most
// one row per (guild, invitee) pair: a terminal row is revived in place when
// the pair is re-invited, so the unique index covers the whole pair.
type GuildInvitation struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	PublicID    string         `gorm:"uniqueIndex;size:36;not null" json:"public_id"`
	GuildID     int64          `gorm:"uniqueIndex:idx_invite_pair;not null" json:"guild_id"`
	InviterID   int64          `gorm:"not null" json:"inviter_id"`
	InviteeID   int64          `gorm:"uniqueIndex:idx_invite_pair;index;not null" json:"invitee_id"`
	Status      WorkflowStatus `gorm:"size:16;default:pending;index" json:"status"`
	Message     string         `gorm:"size:255" json:"message"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
	RespondedAt *time.Time     `json:"responded_at"`
}

// GuildJoinRequest is a user-initiated request to join a guild, finalized by
// a guild authority. Same one-row-per-pair rule as GuildInvitation.
type GuildJoinRequest struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	GuildID     int64          `gorm:"uniqueIndex:idx_request_pair;not null" json:"guild_id"`
	RequesterID int64          `gorm:"uniqueIndex:idx_request_pair;index;not null" json:"requester_id"`
	Status      WorkflowStatus `gorm:"size:16;default:pending;index" json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
	RespondedAt *time.Time     `json:"responded_at"`
}
