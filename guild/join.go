package guild

import (
	"errors"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/apperr"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"gorm.io/gorm"
)

// joinTx is the single admission path for guild membership. Every way into a
// guild (direct join, accepted invitation, approved request) funnels through
// here, inside the caller's transaction with the guild row already locked.
//
// Checks, in order: guild exists, exactly one active guild per user, creator
// exclusivity, capacity, then revive-or-insert and a full projection refresh.
// If the user is already an active member of this guild the call is a no-op,
// so re-submitting an accepted admission never fails on a full guild.
func (s *Service) joinTx(tx *gorm.DB, guildID, userID int64) error {
	var g model.Guild
	if err := tx.First(&g, guildID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("guild not found")
		}
		return err
	}

	// The guild row is locked by the caller; locking the user row as well
	// serializes concurrent admissions of the same user into different
	// guilds, which would otherwise each count zero active memberships.
	if err := lockUser(tx, userID); err != nil {
		return err
	}

	var existing model.GuildMember
	err := tx.Where("guild_id = ? AND auth_user_id = ?", guildID, userID).
		First(&existing).Error
	hasRow := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if hasRow && existing.Status == model.MemberStatusActive {
		return nil
	}

	var active int64
	if err := tx.Model(&model.GuildMember{}).
		Where("auth_user_id = ? AND status = ?", userID, model.MemberStatusActive).
		Count(&active).Error; err != nil {
		return err
	}
	if active > 0 {
		return apperr.BadRequest("already in a guild")
	}

	var created int64
	if err := tx.Model(&model.Guild{}).
		Where("created_by = ? AND id <> ?", userID, guildID).
		Count(&created).Error; err != nil {
		return err
	}
	if created > 0 {
		return apperr.BadRequest("guild creators cannot join another guild")
	}

	var current int64
	if err := tx.Model(&model.GuildMember{}).
		Where("guild_id = ? AND status = ?", guildID, model.MemberStatusActive).
		Count(&current).Error; err != nil {
		return err
	}
	if current >= int64(g.MaxMembers) {
		return apperr.BadRequest("guild is full")
	}

	if hasRow {
		// Reviving keeps the original joined_at: tenure drives rank
		// tie-breaks and leadership succession, so a leave-and-return
		// must not reset a member's standing.
		updates := map[string]interface{}{
			"status": model.MemberStatusActive,
		}
		if existing.JoinedAt.IsZero() {
			updates["joined_at"] = tx.NowFunc()
		}
		if err := tx.Model(&model.GuildMember{}).
			Where("guild_id = ? AND auth_user_id = ?", guildID, userID).
			Updates(updates).Error; err != nil {
			return err
		}
	} else {
		if err := tx.Create(&model.GuildMember{
			GuildID:    guildID,
			AuthUserID: userID,
			Role:       model.GuildRoleMember,
			Status:     model.MemberStatusActive,
			JoinedAt:   tx.NowFunc(),
		}).Error; err != nil {
			return err
		}
	}

	return s.refreshProjections(tx, guildID)
}

// refreshProjections recomputes the guild's member count and per-member ranks
// from the membership rows. Projections are always recomputed in full, never
// incremented, so they cannot drift from the ledger.
func (s *Service) refreshProjections(tx *gorm.DB, guildID int64) error {
	var members []model.GuildMember
	if err := tx.Where("guild_id = ? AND status = ?", guildID, model.MemberStatusActive).
		Order("contribution_points DESC, joined_at ASC").
		Find(&members).Error; err != nil {
		return err
	}

	for i := range members {
		rank := i + 1
		if err := tx.Model(&model.GuildMember{}).
			Where("guild_id = ? AND auth_user_id = ?", guildID, members[i].AuthUserID).
			Update("rank_within_guild", rank).Error; err != nil {
			return err
		}
	}
	if err := tx.Model(&model.GuildMember{}).
		Where("guild_id = ? AND status <> ?", guildID, model.MemberStatusActive).
		Update("rank_within_guild", nil).Error; err != nil {
		return err
	}

	return tx.Model(&model.Guild{}).
		Where("id = ?", guildID).
		Update("current_member_count", len(members)).Error
}
