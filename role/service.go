package role

import (
	"context"
	"errors"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/apperr"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service manages global role assignments. The package-level functions take a
// *gorm.DB so callers can run them inside their own transactions; the Service
// methods wrap them for standalone use.
type Service struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new role Service.
func NewService(db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

func (s *Service) HasRole(ctx context.Context, userID int64, roleName string) (bool, error) {
	return HasRole(s.db.WithContext(ctx), userID, roleName)
}

func (s *Service) Grant(ctx context.Context, userID int64, roleName string, assignedBy int64) error {
	return Grant(s.db.WithContext(ctx), userID, roleName, assignedBy)
}

func (s *Service) Revoke(ctx context.Context, userID int64, roleName string) error {
	return Revoke(s.db.WithContext(ctx), userID, roleName)
}

// findRole resolves a role definition by name. A missing definition is an
// operational error: the roles are seeded at migration time.
func findRole(tx *gorm.DB, roleName string) (*model.Role, error) {
	var r model.Role
	if err := tx.Where("name = ?", roleName).First(&r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, "role definition missing: "+roleName, err)
		}
		return nil, err
	}
	return &r, nil
}

// HasRole reports whether the user holds the named role.
func HasRole(tx *gorm.DB, userID int64, roleName string) (bool, error) {
	r, err := findRole(tx, roleName)
	if err != nil {
		return false, err
	}
	var n int64
	if err := tx.Model(&model.RoleAssignment{}).
		Where("auth_user_id = ? AND role_id = ?", userID, r.ID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Grant assigns the named role to the user. A grant the user already holds
// (for example from a since-disbanded guild) is a no-op, not an error.
func Grant(tx *gorm.DB, userID int64, roleName string, assignedBy int64) error {
	r, err := findRole(tx, roleName)
	if err != nil {
		return err
	}
	var existing model.RoleAssignment
	err = tx.Where("auth_user_id = ? AND role_id = ?", userID, r.ID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.Create(&model.RoleAssignment{
		AuthUserID: userID,
		RoleID:     r.ID,
		AssignedBy: assignedBy,
	}).Error
}

// Revoke removes the named role from the user. Revoking an absent grant is a
// no-op.
func Revoke(tx *gorm.DB, userID int64, roleName string) error {
	r, err := findRole(tx, roleName)
	if err != nil {
		return err
	}
	return tx.Where("auth_user_id = ? AND role_id = ?", userID, r.ID).
		Delete(&model.RoleAssignment{}).Error
}
