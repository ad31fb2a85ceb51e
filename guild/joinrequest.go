package guild

import (
	"context"
	"errors"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/apperr"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/audit"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"gorm.io/gorm"
)

// RequestJoin files (or revives) a join request for a public guild. The
// eligibility checks here are fail-fast only; the authoritative checks run
// again when an officer approves.
func (s *Service) RequestJoin(ctx context.Context, guildID, requesterID int64) (*model.GuildJoinRequest, error) {
	var (
		req     *model.GuildJoinRequest
		revived bool
		prior   model.WorkflowStatus
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g model.Guild
		if err := tx.First(&g, guildID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("guild not found")
			}
			return err
		}
		if g.Visibility == model.GuildVisibilityInviteOnly {
			return apperr.Forbidden("guild does not accept join requests")
		}

		var active int64
		if err := tx.Model(&model.GuildMember{}).
			Where("auth_user_id = ? AND status = ?", requesterID, model.MemberStatusActive).
			Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return apperr.BadRequest("already in a guild")
		}
		var created int64
		if err := tx.Model(&model.Guild{}).
			Where("created_by = ? AND id <> ?", requesterID, guildID).
			Count(&created).Error; err != nil {
			return err
		}
		if created > 0 {
			return apperr.BadRequest("guild creators cannot join another guild")
		}
		if g.CurrentMemberCount >= g.MaxMembers {
			return apperr.BadRequest("guild is full")
		}

		var existing model.GuildJoinRequest
		err := tx.Where("guild_id = ? AND requester_id = ?", guildID, requesterID).
			First(&existing).Error
		switch {
		case err == nil:
			if !existing.Status.Terminal() {
				return apperr.Conflict("join request already pending")
			}
			revived = true
			prior = existing.Status
			now := tx.NowFunc()
			if err := tx.Model(&model.GuildJoinRequest{}).
				Where("id = ?", existing.ID).
				Updates(map[string]interface{}{
					"status":       model.WorkflowPending,
					"created_at":   now,
					"expires_at":   now.Add(s.cfg.JoinRequestTTL),
					"responded_at": nil,
				}).Error; err != nil {
				return err
			}
			// Reload into a fresh struct: scanning NULL does not zero
			// the stale responded_at already held in existing.
			var fresh model.GuildJoinRequest
			if err := tx.First(&fresh, existing.ID).Error; err != nil {
				return err
			}
			req = &fresh
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			existing = model.GuildJoinRequest{
				GuildID:     guildID,
				RequesterID: requesterID,
				Status:      model.WorkflowPending,
				CreatedAt:   tx.NowFunc(),
				ExpiresAt:   tx.NowFunc().Add(s.cfg.JoinRequestTTL),
			}
			if err := tx.Create(&existing).Error; err != nil {
				return err
			}
			req = &existing
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	action := audit.ActionJoinRequestCreate
	detail := map[string]interface{}{}
	if revived {
		action = audit.ActionJoinRequestRevive
		detail["previous_status"] = prior
	}
	s.recordAudit(action, requesterID, guildID, detail)
	return req, nil
}

// ApproveJoinRequest admits the requester through the join procedure. It
// re-runs every eligibility check under the guild lock, so a requester who
// joined elsewhere or a guild that filled up since the request was filed
// fails here, not silently.
func (s *Service) ApproveJoinRequest(ctx context.Context, guildID, requestID, approverID int64) error {
	var req model.GuildJoinRequest
	var expired bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockGuild(tx, guildID); err != nil {
			return err
		}
		if err := requireAuthority(tx, guildID, approverID); err != nil {
			return err
		}
		if err := tx.First(&req, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("join request not found")
			}
			return err
		}
		if req.GuildID != guildID {
			return apperr.NotFound("join request not found")
		}
		if req.Status != model.WorkflowPending {
			return apperr.BadRequest("join request is no longer pending")
		}
		if tx.NowFunc().After(req.ExpiresAt) {
			expired = true
			return settleRequest(tx, &req, model.WorkflowExpired)
		}

		if err := s.joinTx(tx, guildID, req.RequesterID); err != nil {
			return err
		}
		return settleRequest(tx, &req, model.WorkflowAccepted)
	})
	if err != nil {
		return err
	}
	if expired {
		return apperr.BadRequest("join request has expired")
	}

	s.recordAudit(audit.ActionJoinRequestApprove, approverID, guildID, map[string]interface{}{
		"requester_id": req.RequesterID,
		"request_id":   requestID,
	})
	s.settleOtherWorkflows(ctx, req.RequesterID, 0, req.ID)
	s.notifier.JoinRequestApproved(ctx, req.RequesterID, guildID, approverID)
	return nil
}

// DeclineJoinRequest marks a pending request declined. Officers and the
// guild master decline others' requests; a requester may withdraw their own.
func (s *Service) DeclineJoinRequest(ctx context.Context, guildID, requestID, actorID int64) error {
	var req model.GuildJoinRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, requestID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("join request not found")
			}
			return err
		}
		if req.GuildID != guildID {
			return apperr.NotFound("join request not found")
		}
		if req.RequesterID != actorID {
			if err := requireAuthority(tx, guildID, actorID); err != nil {
				return err
			}
		}
		if req.Status != model.WorkflowPending {
			return apperr.BadRequest("join request is no longer pending")
		}
		return settleRequest(tx, &req, model.WorkflowDeclined)
	})
	if err != nil {
		return err
	}
	s.recordAudit(audit.ActionJoinRequestDecline, actorID, guildID, map[string]interface{}{
		"request_id": requestID,
	})
	return nil
}

// ListJoinRequests returns the pending join requests for a guild, visible to
// officers and the guild master.
func (s *Service) ListJoinRequests(ctx context.Context, guildID, actorID int64) ([]model.GuildJoinRequest, error) {
	if err := requireAuthority(s.db.WithContext(ctx), guildID, actorID); err != nil {
		return nil, err
	}
	var reqs []model.GuildJoinRequest
	if err := s.db.WithContext(ctx).
		Where("guild_id = ? AND status = ?", guildID, model.WorkflowPending).
		Order("created_at ASC").
		Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}

func settleRequest(tx *gorm.DB, req *model.GuildJoinRequest, status model.WorkflowStatus) error {
	now := tx.NowFunc()
	if err := tx.Model(&model.GuildJoinRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]interface{}{
			"status":       status,
			"responded_at": now,
		}).Error; err != nil {
		return err
	}
	req.Status = status
	req.RespondedAt = &now
	return nil
}
