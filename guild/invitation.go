package guild

import (
	"context"
	"errors"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/apperr"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/audit"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/identity"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/role"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InviteInput targets an invitation at a user, either directly by ID or by
// their registered email. Exactly one of the two must be set.
type InviteInput struct {
	InviteeID int64
	Email     string
	Message   string
}

// Invite creates (or revives) a pending invitation. There is at most one
// invitation row per (guild, invitee) pair; a terminal row is reset to
// pending in place, preserving its identity.
func (s *Service) Invite(ctx context.Context, guildID, inviterID int64, in InviteInput) (*model.GuildInvitation, error) {
	inviteeID, err := s.resolveInvitee(ctx, in)
	if err != nil {
		return nil, err
	}
	if inviteeID == inviterID {
		return nil, apperr.BadRequest("cannot invite yourself")
	}

	var (
		inv     *model.GuildInvitation
		revived bool
		prior   model.WorkflowStatus
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockGuild(tx, guildID); err != nil {
			return err
		}
		if err := requireAuthority(tx, guildID, inviterID); err != nil {
			return err
		}

		var g model.Guild
		if err := tx.First(&g, guildID).Error; err != nil {
			return err
		}
		limit, err := s.effectiveInviteCap(tx, &g)
		if err != nil {
			return err
		}
		var pending int64
		if err := tx.Model(&model.GuildInvitation{}).
			Where("guild_id = ? AND status = ?", guildID, model.WorkflowPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if g.CurrentMemberCount+int(pending) >= limit {
			return apperr.Unprocessable("guild cannot accommodate more invitations")
		}

		if _, err := activeMember(tx, guildID, inviteeID); err == nil {
			return apperr.Conflict("user is already a member of this guild")
		}

		var existing model.GuildInvitation
		err = tx.Where("guild_id = ? AND invitee_id = ?", guildID, inviteeID).
			First(&existing).Error
		switch {
		case err == nil:
			if !existing.Status.Terminal() {
				return apperr.Conflict("invitation already pending")
			}
			revived = true
			prior = existing.Status
			now := tx.NowFunc()
			if err := tx.Model(&model.GuildInvitation{}).
				Where("id = ?", existing.ID).
				Updates(map[string]interface{}{
					"status":       model.WorkflowPending,
					"inviter_id":   inviterID,
					"message":      in.Message,
					"created_at":   now,
					"expires_at":   now.Add(s.cfg.InvitationTTL),
					"responded_at": nil,
				}).Error; err != nil {
				return err
			}
			// Reload into a fresh struct: scanning NULL does not zero
			// the stale responded_at already held in existing.
			var fresh model.GuildInvitation
			if err := tx.First(&fresh, existing.ID).Error; err != nil {
				return err
			}
			inv = &fresh
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			existing = model.GuildInvitation{
				PublicID:  uuid.NewString(),
				GuildID:   guildID,
				InviteeID: inviteeID,
				InviterID: inviterID,
				Status:    model.WorkflowPending,
				Message:   in.Message,
				CreatedAt: tx.NowFunc(),
				ExpiresAt: tx.NowFunc().Add(s.cfg.InvitationTTL),
			}
			if err := tx.Create(&existing).Error; err != nil {
				return err
			}
			inv = &existing
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	action := audit.ActionInvitationCreate
	detail := map[string]interface{}{"invitee_id": inviteeID}
	if revived {
		action = audit.ActionInvitationRevive
		detail["previous_status"] = prior
	}
	s.recordAudit(action, inviterID, guildID, detail)
	s.notifier.InvitationCreated(ctx, inviteeID, guildID, inviterID, in.Message)
	return inv, nil
}

// resolveInvitee turns an invite target into a user ID. A target that
// matches no registered user is a client error, not a missing resource.
func (s *Service) resolveInvitee(ctx context.Context, in InviteInput) (int64, error) {
	if in.InviteeID > 0 {
		var u model.User
		err := s.db.WithContext(ctx).First(&u, in.InviteeID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.BadRequest("unresolvable invite target")
		}
		if err != nil {
			return 0, err
		}
		return u.ID, nil
	}
	if in.Email == "" {
		return 0, apperr.BadRequest("invitee_id or email is required")
	}
	inviteeID, err := s.resolver.ResolveEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, identity.ErrUnknownEmail) {
			return 0, apperr.BadRequest("unresolvable invite target")
		}
		return 0, err
	}
	return inviteeID, nil
}

// effectiveInviteCap bounds members-plus-pending-invitations. Guilds run by a
// verified lecturer may fill their full member capacity; everyone else is
// held to the standard invite ceiling even when max_members exceeds it.
func (s *Service) effectiveInviteCap(tx *gorm.DB, g *model.Guild) (int, error) {
	lecturer, err := role.HasRole(tx, g.CreatedBy, model.RoleVerifiedLecturer)
	if err != nil {
		return 0, err
	}
	if lecturer {
		return g.MaxMembers, nil
	}
	if g.MaxMembers < s.cfg.InviteSoftCap {
		return g.MaxMembers, nil
	}
	return s.cfg.InviteSoftCap, nil
}

// AcceptInvitation admits the invitee through the join procedure and marks
// the invitation accepted, all in one transaction. Accepting twice is a
// no-op. After commit the user's other pending workflows are cancelled and
// the inviter is notified, best-effort.
func (s *Service) AcceptInvitation(ctx context.Context, publicID string, guildID, userID int64) error {
	var (
		inv     model.GuildInvitation
		expired bool
		already bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("public_id = ?", publicID).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("invitation not found")
			}
			return err
		}
		if inv.GuildID != guildID {
			return apperr.NotFound("invitation not found")
		}
		if inv.InviteeID != userID {
			return apperr.Forbidden("invitation belongs to another user")
		}
		if inv.Status == model.WorkflowAccepted {
			already = true
			return nil
		}
		if inv.Status != model.WorkflowPending {
			return apperr.BadRequest("invitation is no longer pending")
		}
		if tx.NowFunc().After(inv.ExpiresAt) {
			// Commit the expiry write; the error is raised after the
			// transaction so the status change is not rolled back.
			expired = true
			return settle(tx, &inv, model.WorkflowExpired)
		}

		if err := lockGuild(tx, guildID); err != nil {
			return err
		}
		if err := s.joinTx(tx, guildID, userID); err != nil {
			return err
		}
		return settle(tx, &inv, model.WorkflowAccepted)
	})
	if err != nil {
		return err
	}
	if expired {
		return apperr.BadRequest("invitation has expired")
	}
	if already {
		return nil
	}

	s.recordAudit(audit.ActionInvitationAccept, userID, guildID, map[string]interface{}{
		"invitation": publicID,
	})
	s.settleOtherWorkflows(ctx, userID, inv.ID, 0)
	s.notifier.InvitationAccepted(ctx, inv.InviterID, guildID, userID)
	return nil
}

// DeclineInvitation marks a pending invitation declined. Only the invitee
// may decline.
func (s *Service) DeclineInvitation(ctx context.Context, publicID string, guildID, userID int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv model.GuildInvitation
		if err := tx.Where("public_id = ?", publicID).First(&inv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("invitation not found")
			}
			return err
		}
		if inv.GuildID != guildID {
			return apperr.NotFound("invitation not found")
		}
		if inv.InviteeID != userID {
			return apperr.Forbidden("invitation belongs to another user")
		}
		if inv.Status != model.WorkflowPending {
			return apperr.BadRequest("invitation is no longer pending")
		}
		return settle(tx, &inv, model.WorkflowDeclined)
	})
	if err != nil {
		return err
	}
	s.recordAudit(audit.ActionInvitationDecline, userID, guildID, map[string]interface{}{
		"invitation": publicID,
	})
	return nil
}

// ListInvitations returns the pending invitations for a guild, visible to
// officers and the guild master.
func (s *Service) ListInvitations(ctx context.Context, guildID, actorID int64) ([]model.GuildInvitation, error) {
	if err := requireAuthority(s.db.WithContext(ctx), guildID, actorID); err != nil {
		return nil, err
	}
	var invs []model.GuildInvitation
	if err := s.db.WithContext(ctx).
		Where("guild_id = ? AND status = ?", guildID, model.WorkflowPending).
		Order("created_at ASC").
		Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}

// ListUserInvitations returns a user's own pending invitations.
func (s *Service) ListUserInvitations(ctx context.Context, userID int64) ([]model.GuildInvitation, error) {
	var invs []model.GuildInvitation
	if err := s.db.WithContext(ctx).
		Where("invitee_id = ? AND status = ?", userID, model.WorkflowPending).
		Order("created_at ASC").
		Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}

// settle moves a workflow row to a terminal status with a response timestamp.
func settle(tx *gorm.DB, inv *model.GuildInvitation, status model.WorkflowStatus) error {
	now := tx.NowFunc()
	if err := tx.Model(&model.GuildInvitation{}).
		Where("id = ?", inv.ID).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": now,
		}).Error; err != nil {
		return err
	}
	inv.Status = status
	inv.RespondedAt = &now
	return nil
}

// settleOtherWorkflows declines the user's remaining pending invitations and
// join requests after they joined a guild. Best-effort: failures are logged,
// the completed admission stands, and the expiry sweep catches stragglers.
func (s *Service) settleOtherWorkflows(ctx context.Context, userID, keepInvitationID, keepRequestID int64) {
	now := s.db.NowFunc()
	if err := s.db.WithContext(ctx).Model(&model.GuildInvitation{}).
		Where("invitee_id = ? AND status = ? AND id <> ?",
			userID, model.WorkflowPending, keepInvitationID).
		Updates(map[string]interface{}{
			"status":       model.WorkflowDeclined,
			"responded_at": now,
		}).Error; err != nil {
		s.logger.Warn("failed to settle pending invitations",
			zap.Int64("user_id", userID), zap.Error(err))
	}
	if err := s.db.WithContext(ctx).Model(&model.GuildJoinRequest{}).
		Where("requester_id = ? AND status = ? AND id <> ?",
			userID, model.WorkflowPending, keepRequestID).
		Updates(map[string]interface{}{
			"status":       model.WorkflowDeclined,
			"responded_at": now,
		}).Error; err != nil {
		s.logger.Warn("failed to settle pending join requests",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}
