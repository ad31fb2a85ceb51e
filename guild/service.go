package guild

import (
	"context"
	"errors"
	"strings"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/apperr"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/audit"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/config"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/group"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/identity"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/notify"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/role"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service is the guild membership and invitation consistency engine. All
// invariant checks run before any write, inside one transaction per mutating
// operation; once the membership write commits, remaining cleanup and
// notifications are best-effort and never unwind it.
type Service struct {
	db       *gorm.DB
	resolver identity.Resolver
	notifier notify.Notifier
	aud      *audit.Service
	cfg      config.GuildConfig
	logger   *zap.Logger
}

// NewService creates a new guild Service.
func NewService(db *gorm.DB, resolver identity.Resolver, notifier notify.Notifier,
	aud *audit.Service, cfg config.GuildConfig, logger *zap.Logger) *Service {
	return &Service{
		db:       db,
		resolver: resolver,
		notifier: notifier,
		aud:      aud,
		cfg:      cfg,
		logger:   logger,
	}
}

// CreateGuildInput is the payload for CreateGuild.
type CreateGuildInput struct {
	Name        string
	Description string
	Visibility  model.GuildVisibility
	MaxMembers  int
}

// CreateGuild creates a guild with the creator as its active guild master and
// grants the global Guild Master role (a no-op if already held).
func (s *Service) CreateGuild(ctx context.Context, creatorID int64, in CreateGuildInput) (*model.Guild, error) {
	lecturer, err := role.HasRole(s.db.WithContext(ctx), creatorID, model.RoleVerifiedLecturer)
	if err != nil {
		return nil, err
	}
	capMembers := s.cfg.MaxMembersCap
	if lecturer {
		capMembers = s.cfg.LecturerMembersCap
	}
	if in.MaxMembers < 1 || in.MaxMembers > capMembers {
		return nil, apperr.BadRequest("max_members out of range")
	}
	if in.Visibility == "" {
		in.Visibility = model.GuildVisibilityPublic
	}

	var g *model.Guild
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUser(tx, creatorID); err != nil {
			return err
		}
		var active int64
		if err := tx.Model(&model.GuildMember{}).
			Where("auth_user_id = ? AND status = ?", creatorID, model.MemberStatusActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return apperr.BadRequest("already in a guild")
		}
		var created int64
		if err := tx.Model(&model.Guild{}).
			Where("created_by = ?", creatorID).
			Count(&created).Error; err != nil {
			return err
		}
		if created > 0 {
			return apperr.BadRequest("user has already created a guild")
		}

		g = &model.Guild{
			Name:               in.Name,
			Description:        in.Description,
			Visibility:         in.Visibility,
			MaxMembers:         in.MaxMembers,
			CurrentMemberCount: 1,
			CreatedBy:          creatorID,
		}
		if err := tx.Create(g).Error; err != nil {
			if isUniqueViolation(err) {
				return apperr.Conflict("guild name already taken")
			}
			return err
		}
		rank := 1
		if err := tx.Create(&model.GuildMember{
			GuildID:         g.ID,
			AuthUserID:      creatorID,
			Role:            model.GuildRoleMaster,
			Status:          model.MemberStatusActive,
			JoinedAt:        tx.NowFunc(),
			RankWithinGuild: &rank,
		}).Error; err != nil {
			return err
		}
		return role.Grant(tx, creatorID, model.RoleGuildMaster, creatorID)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(audit.ActionGuildCreate, creatorID, g.ID, map[string]interface{}{
		"name":        g.Name,
		"max_members": g.MaxMembers,
	})
	return g, nil
}

// GetGuild returns a guild and its active members ordered by rank.
func (s *Service) GetGuild(ctx context.Context, guildID int64) (*model.Guild, []model.GuildMember, error) {
	var g model.Guild
	if err := s.db.WithContext(ctx).First(&g, guildID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("guild not found")
		}
		return nil, nil, err
	}
	var members []model.GuildMember
	if err := s.db.WithContext(ctx).
		Where("guild_id = ? AND status = ?", guildID, model.MemberStatusActive).
		Order("rank_within_guild ASC").
		Find(&members).Error; err != nil {
		return nil, nil, err
	}
	return &g, members, nil
}

// Leave removes the user from the guild. A departing guild master triggers
// leadership succession; if no active member remains, the guild is deleted,
// because a guild cannot exist without a leader.
func (s *Service) Leave(ctx context.Context, guildID, userID int64) error {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockGuild(tx, guildID); err != nil {
			return err
		}
		m, err := activeMember(tx, guildID, userID)
		if err != nil {
			return err
		}

		if m.Role != model.GuildRoleMaster {
			if err := markLeft(tx, guildID, userID); err != nil {
				return err
			}
			return s.refreshProjections(tx, guildID)
		}

		var others []model.GuildMember
		if err := tx.Where("guild_id = ? AND status = ? AND auth_user_id <> ?",
			guildID, model.MemberStatusActive, userID).
			Find(&others).Error; err != nil {
			return err
		}
		cands := make([]group.Candidate, len(others))
		for i, o := range others {
			cands[i] = group.Candidate{UserID: o.AuthUserID, Role: string(o.Role), JoinedAt: o.JoinedAt}
		}
		successor, ok := group.PickSuccessor(cands, string(model.GuildRoleMember))
		if !ok {
			// Sole member: delete the membership row, then the guild.
			if err := tx.Where("guild_id = ? AND auth_user_id = ?", guildID, userID).
				Delete(&model.GuildMember{}).Error; err != nil {
				return err
			}
			if err := role.Revoke(tx, userID, model.RoleGuildMaster); err != nil {
				return err
			}
			deleted = true
			return tx.Delete(&model.Guild{}, guildID).Error
		}

		if err := markLeft(tx, guildID, userID); err != nil {
			return err
		}
		if err := tx.Model(&model.GuildMember{}).
			Where("guild_id = ? AND auth_user_id = ?", guildID, successor).
			Update("role", model.GuildRoleMaster).Error; err != nil {
			return err
		}
		if err := role.Revoke(tx, userID, model.RoleGuildMaster); err != nil {
			return err
		}
		if err := role.Grant(tx, successor, model.RoleGuildMaster, userID); err != nil {
			return err
		}
		return s.refreshProjections(tx, guildID)
	})
	if err != nil {
		return err
	}

	s.recordAudit(audit.ActionGuildLeave, userID, guildID, map[string]interface{}{
		"guild_deleted": deleted,
	})
	return nil
}

// KickMember removes target from the guild. The actor must outrank the
// target; the guild master cannot be kicked.
func (s *Service) KickMember(ctx context.Context, guildID, actorID, targetID int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockGuild(tx, guildID); err != nil {
			return err
		}
		actor, err := activeMember(tx, guildID, actorID)
		if err != nil {
			return apperr.Forbidden("not an active guild member")
		}
		if actor.Role == model.GuildRoleMember {
			return apperr.Forbidden("insufficient role")
		}
		target, err := activeMember(tx, guildID, targetID)
		if err != nil {
			return err
		}
		if target.Role == model.GuildRoleMaster {
			return apperr.Forbidden("guild master cannot be kicked")
		}
		if target.Role == model.GuildRoleOfficer && actor.Role != model.GuildRoleMaster {
			return apperr.Forbidden("only the guild master can kick an officer")
		}
		if err := markLeft(tx, guildID, targetID); err != nil {
			return err
		}
		return s.refreshProjections(tx, guildID)
	})
	if err != nil {
		return err
	}

	s.recordAudit(audit.ActionGuildKick, actorID, guildID, map[string]interface{}{
		"target_id": targetID,
	})
	return nil
}

// DisbandGuild deletes the guild and all its membership rows. Only the active
// guild master may disband.
func (s *Service) DisbandGuild(ctx context.Context, guildID, actorID int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockGuild(tx, guildID); err != nil {
			return err
		}
		actor, err := activeMember(tx, guildID, actorID)
		if err != nil {
			return apperr.Forbidden("not an active guild member")
		}
		if actor.Role != model.GuildRoleMaster {
			return apperr.Forbidden("only the guild master can disband the guild")
		}
		if err := tx.Where("guild_id = ?", guildID).Delete(&model.GuildMember{}).Error; err != nil {
			return err
		}
		if err := role.Revoke(tx, actorID, model.RoleGuildMaster); err != nil {
			return err
		}
		return tx.Delete(&model.Guild{}, guildID).Error
	})
	if err != nil {
		return err
	}

	s.recordAudit(audit.ActionGuildDisband, actorID, guildID, nil)
	return nil
}

// ---- shared helpers ----

// lockGuild takes a row lock on the guild for the duration of the
// transaction, so concurrent admissions for the same guild serialize and
// cannot both pass the capacity check. SQLite serializes writers on its own
// and rejects FOR UPDATE syntax.
func lockGuild(tx *gorm.DB, guildID int64) error {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var g model.Guild
	if err := q.First(&g, guildID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("guild not found")
		}
		return err
	}
	return nil
}

// lockUser takes a row lock on the user for the duration of the transaction.
// The single-active-guild invariant spans every guild's membership rows, so
// mutations that admit a user must serialize per user as well as per guild.
// Lock order is always guild first, then user.
func lockUser(tx *gorm.DB, userID int64) error {
	q := tx
	if tx.Dialector.Name() != "sqlite" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var u model.User
	if err := q.First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user not found")
		}
		return err
	}
	return nil
}

func activeMember(tx *gorm.DB, guildID, userID int64) (*model.GuildMember, error) {
	var m model.GuildMember
	err := tx.Where("guild_id = ? AND auth_user_id = ? AND status = ?",
		guildID, userID, model.MemberStatusActive).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.BadRequest("not an active member of this guild")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func markLeft(tx *gorm.DB, guildID, userID int64) error {
	return tx.Model(&model.GuildMember{}).
		Where("guild_id = ? AND auth_user_id = ?", guildID, userID).
		Updates(map[string]interface{}{
			"status":           model.MemberStatusLeft,
			"role":             model.GuildRoleMember,
			"rank_within_guild": nil,
		}).Error
}

// requireAuthority verifies the actor is an active officer or guild master.
func requireAuthority(tx *gorm.DB, guildID, actorID int64) error {
	m, err := activeMember(tx, guildID, actorID)
	if err != nil {
		return apperr.Forbidden("not an active guild member")
	}
	if m.Role == model.GuildRoleMember {
		return apperr.Forbidden("requires officer or guild master role")
	}
	return nil
}

func (s *Service) recordAudit(action string, actorID, guildID int64, detail interface{}) {
	if s.aud == nil {
		return
	}
	a, g := actorID, guildID
	s.aud.Log(audit.Entry{ActorID: &a, GuildID: &g, Action: action, Detail: detail})
}

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
