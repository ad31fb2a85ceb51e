package model

import "time"

// GuildVisibility controls how a guild can be discovered and joined.
type GuildVisibility string

const (
	GuildVisibilityPublic     GuildVisibility = "public"
	GuildVisibilityInviteOnly GuildVisibility = "invite_only"
)

// GuildRole is a member's role within the guild.
type GuildRole string

const (
	GuildRoleMaster  GuildRole = "guild_master"
	GuildRoleOfficer GuildRole = "officer"
	GuildRoleMember  GuildRole = "member"
)

// MemberStatus is the lifecycle state of a membership row.
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
	MemberStatusLeft     MemberStatus = "left"
)

// Guild represents a bounded social group with exactly one guild master.
// CurrentMemberCount is a derived projection of the active member set; it is
// fully recomputed after every membership mutation, never incremented.
type Guild struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name               string          `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description        string          `gorm:"type:text" json:"description"`
	Visibility         GuildVisibility `gorm:"size:16;default:public" json:"visibility"`
	MaxMembers         int             `gorm:"not null" json:"max_members"`
	CurrentMemberCount int             `gorm:"default:0" json:"current_member_count"`
	CreatedBy          int64           `gorm:"index;not null" json:"created_by"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// GuildMember links a user to a guild. RankWithinGuild is set only while the
// member is active and is recomputed as a whole set, so ranks stay a
// contiguous 1..N ordered by (contribution_points desc, joined_at asc).
type GuildMember struct {
	GuildID            int64        `gorm:"primaryKey" json:"guild_id"`
	AuthUserID         int64        `gorm:"primaryKey;index:idx_member_user" json:"auth_user_id"`
	Role               GuildRole    `gorm:"size:16;default:member" json:"role"`
	Status             MemberStatus `gorm:"size:16;default:active;index" json:"status"`
	JoinedAt           time.Time    `json:"joined_at"`
	ContributionPoints int          `gorm:"default:0" json:"contribution_points"`
	RankWithinGuild    *int         `json:"rank_within_guild"`
}
