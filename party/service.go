package party

import (
	"context"
	"errors"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/apperr"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/config"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/group"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/role"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service manages small persistent parties. Parties share the leadership
// succession rules with guilds but have no invitation workflow; membership
// is join-on-request up to the size limit.
type Service struct {
	db     *gorm.DB
	cfg    config.PartyConfig
	logger *zap.Logger
}

func NewService(db *gorm.DB, cfg config.PartyConfig, logger *zap.Logger) *Service {
	return &Service{db: db, cfg: cfg, logger: logger}
}

// Create creates a party with the creator as leader and grants the global
// Party Leader role.
func (s *Service) Create(ctx context.Context, leaderID int64, name string) (*model.Party, error) {
	var p *model.Party
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.PartyMember{}).
			Where("auth_user_id = ?", leaderID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.BadRequest("already in a party")
		}
		p = &model.Party{
			Name:      name,
			LeaderID:  leaderID,
			MaxSize:   s.cfg.MaxSize,
			CreatedAt: tx.NowFunc(),
		}
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.PartyMember{
			PartyID:    p.ID,
			AuthUserID: leaderID,
			Role:       model.PartyRoleLeader,
			JoinedAt:   tx.NowFunc(),
		}).Error; err != nil {
			return err
		}
		return role.Grant(tx, leaderID, model.RolePartyLeader, leaderID)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a party and its members ordered by join time.
func (s *Service) Get(ctx context.Context, partyID int64) (*model.Party, []model.PartyMember, error) {
	var p model.Party
	if err := s.db.WithContext(ctx).First(&p, partyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFound("party not found")
		}
		return nil, nil, err
	}
	var members []model.PartyMember
	if err := s.db.WithContext(ctx).
		Where("party_id = ?", partyID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, nil, err
	}
	return &p, members, nil
}

// Join adds the user to a party if there is room and the user is not already
// in one.
func (s *Service) Join(ctx context.Context, partyID, userID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Party
		if err := tx.First(&p, partyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("party not found")
			}
			return err
		}
		var n int64
		if err := tx.Model(&model.PartyMember{}).
			Where("auth_user_id = ?", userID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperr.BadRequest("already in a party")
		}
		if err := tx.Model(&model.PartyMember{}).
			Where("party_id = ?", partyID).
			Count(&n).Error; err != nil {
			return err
		}
		if n >= int64(p.MaxSize) {
			return apperr.BadRequest("party is full")
		}
		return tx.Create(&model.PartyMember{
			PartyID:    partyID,
			AuthUserID: userID,
			Role:       model.PartyRoleMember,
			JoinedAt:   tx.NowFunc(),
		}).Error
	})
}

// Leave removes the user from their party. A departing leader hands
// leadership to the earliest-joined remaining member; the last member out
// deletes the party.
func (s *Service) Leave(ctx context.Context, partyID, userID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.PartyMember
		err := tx.Where("party_id = ? AND auth_user_id = ?", partyID, userID).
			First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.BadRequest("not a member of this party")
		}
		if err != nil {
			return err
		}
		if err := tx.Where("party_id = ? AND auth_user_id = ?", partyID, userID).
			Delete(&model.PartyMember{}).Error; err != nil {
			return err
		}
		if m.Role != model.PartyRoleLeader {
			return nil
		}

		var others []model.PartyMember
		if err := tx.Where("party_id = ?", partyID).Find(&others).Error; err != nil {
			return err
		}
		cands := make([]group.Candidate, len(others))
		for i, o := range others {
			cands[i] = group.Candidate{UserID: o.AuthUserID, Role: string(o.Role), JoinedAt: o.JoinedAt}
		}
		successor, ok := group.PickSuccessor(cands, string(model.PartyRoleMember))
		if !ok {
			if err := role.Revoke(tx, userID, model.RolePartyLeader); err != nil {
				return err
			}
			return tx.Delete(&model.Party{}, partyID).Error
		}

		if err := tx.Model(&model.PartyMember{}).
			Where("party_id = ? AND auth_user_id = ?", partyID, successor).
			Update("role", model.PartyRoleLeader).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Party{}).
			Where("id = ?", partyID).
			Update("leader_id", successor).Error; err != nil {
			return err
		}
		if err := role.Revoke(tx, userID, model.RolePartyLeader); err != nil {
			return err
		}
		return role.Grant(tx, successor, model.RolePartyLeader, userID)
	})
}
