package guild

import (
	"context"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/audit"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"go.uber.org/zap"
)

// ExpireStaleWorkflows marks pending invitations and join requests whose
// deadline has passed as expired. It runs on a scheduler tick; lazy expiry in
// the accept/approve paths covers the window between sweeps.
func (s *Service) ExpireStaleWorkflows(ctx context.Context) error {
	now := s.db.NowFunc()

	inv := s.db.WithContext(ctx).Model(&model.GuildInvitation{}).
		Where("status = ? AND expires_at < ?", model.WorkflowPending, now).
		Updates(map[string]interface{}{
			"status":       model.WorkflowExpired,
			"responded_at": now,
		})
	if inv.Error != nil {
		return inv.Error
	}

	req := s.db.WithContext(ctx).Model(&model.GuildJoinRequest{}).
		Where("status = ? AND expires_at < ?", model.WorkflowPending, now).
		Updates(map[string]interface{}{
			"status":       model.WorkflowExpired,
			"responded_at": now,
		})
	if req.Error != nil {
		return req.Error
	}

	if inv.RowsAffected > 0 || req.RowsAffected > 0 {
		s.logger.Info("expired stale workflows",
			zap.Int64("invitations", inv.RowsAffected),
			zap.Int64("join_requests", req.RowsAffected))
		if s.aud != nil {
			s.aud.Log(audit.Entry{
				Action: audit.ActionWorkflowExpire,
				Detail: map[string]interface{}{
					"invitations":   inv.RowsAffected,
					"join_requests": req.RowsAffected,
				},
			})
		}
	}
	return nil
}
