package party

import (
	"context"
	"testing"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/apperr"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/config"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/role"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewService(db, config.DefaultParty(), zap.NewNop()), db
}

func seedUser(t *testing.T, db *gorm.DB, name string) int64 {
	t.Helper()
	u := model.User{Username: name, Email: name + "@roguelearn.test", PasswordHash: "x"}
	require.NoError(t, db.Create(&u).Error)
	return u.ID
}

func TestCreate_LeaderGetsRole(t *testing.T) {
	svc, db := newTestService(t)
	leader := seedUser(t, db, "pl1")

	p, err := svc.Create(context.Background(), leader, "dungeon-crew")
	require.NoError(t, err)
	assert.Equal(t, leader, p.LeaderID)
	assert.Equal(t, 4, p.MaxSize)

	has, err := role.HasRole(db, leader, model.RolePartyLeader)
	require.NoError(t, err)
	assert.True(t, has)

	_, err = svc.Create(context.Background(), leader, "second-crew")
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
}

func TestJoin_CapacityAndSingleParty(t *testing.T) {
	svc, db := newTestService(t)
	leader := seedUser(t, db, "pl2")
	p, err := svc.Create(context.Background(), leader, "full-house")
	require.NoError(t, err)

	for i, name := range []string{"pm1", "pm2", "pm3"} {
		uid := seedUser(t, db, name)
		err := svc.Join(context.Background(), p.ID, uid)
		require.NoError(t, err, "member %d should fit", i+1)
	}
	late := seedUser(t, db, "pm4")
	err = svc.Join(context.Background(), p.ID, late)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))

	other := seedUser(t, db, "pl3")
	p2, err := svc.Create(context.Background(), other, "second-party")
	require.NoError(t, err)
	member := seedUser(t, db, "pm5")
	require.NoError(t, svc.Join(context.Background(), p2.ID, member))
	err = svc.Join(context.Background(), p.ID, member)
	assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err), "one party at a time")
}

func TestLeave_LeaderSuccession(t *testing.T) {
	svc, db := newTestService(t)
	leader := seedUser(t, db, "pl4")
	p, err := svc.Create(context.Background(), leader, "handover")
	require.NoError(t, err)
	first := seedUser(t, db, "pm6")
	second := seedUser(t, db, "pm7")
	require.NoError(t, svc.Join(context.Background(), p.ID, first))
	require.NoError(t, svc.Join(context.Background(), p.ID, second))

	require.NoError(t, svc.Leave(context.Background(), p.ID, leader))

	got, members, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got.LeaderID, "earliest joined member takes over")
	assert.Len(t, members, 2)

	has, err := role.HasRole(db, first, model.RolePartyLeader)
	require.NoError(t, err)
	assert.True(t, has)
	hasOld, err := role.HasRole(db, leader, model.RolePartyLeader)
	require.NoError(t, err)
	assert.False(t, hasOld)
}

func TestLeave_LastMemberDeletesParty(t *testing.T) {
	svc, db := newTestService(t)
	leader := seedUser(t, db, "pl5")
	p, err := svc.Create(context.Background(), leader, "solo")
	require.NoError(t, err)

	require.NoError(t, svc.Leave(context.Background(), p.ID, leader))
	_, _, err = svc.Get(context.Background(), p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
