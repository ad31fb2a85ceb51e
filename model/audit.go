package model

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records membership and workflow mutations. It is the durable
// history for invitation/join-request rows, which are revived in place and
// therefore lose their prior terminal state.
type AuditLog struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID    string         `gorm:"index:idx_audit_trace;size:36" json:"trace_id"`
	ActorID    *int64         `gorm:"index:idx_audit_actor" json:"actor_id"`
	GuildID    *int64         `gorm:"index:idx_audit_guild" json:"guild_id"`
	Action     string         `gorm:"size:64;not null" json:"action"`
	Detail     datatypes.JSON `json:"detail"`
	Error      string         `gorm:"type:text" json:"error"`
	DurationMs int            `json:"duration_ms"`
	CreatedAt  time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"created_at"`
}
