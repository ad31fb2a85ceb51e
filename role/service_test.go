package role

import (
	"context"
	"testing"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/apperr"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGrant_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, 42, model.RoleGuildMaster, 42))
	require.NoError(t, svc.Grant(ctx, 42, model.RoleGuildMaster, 42), "re-grant is a no-op")

	has, err := svc.HasRole(ctx, 42, model.RoleGuildMaster)
	require.NoError(t, err)
	assert.True(t, has)

	var rows int64
	require.NoError(t, db.Model(&model.RoleAssignment{}).
		Where("auth_user_id = ?", 42).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestRevoke(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Grant(ctx, 7, model.RolePartyLeader, 7))
	require.NoError(t, svc.Revoke(ctx, 7, model.RolePartyLeader))

	has, err := svc.HasRole(ctx, 7, model.RolePartyLeader)
	require.NoError(t, err)
	assert.False(t, has)

	// Revoking an unheld role is harmless.
	require.NoError(t, svc.Revoke(ctx, 7, model.RolePartyLeader))
}

func TestUnknownRoleDefinition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db, zap.NewNop())

	err := svc.Grant(context.Background(), 1, "No Such Role", 1)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
