package guild

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/config"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/identity"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/notify"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/role"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	_, ps := testutil.SetupTestCache(t)
	svc := NewService(db,
		identity.NewDBResolver(db),
		notify.NewGateway(ps, zap.NewNop()),
		nil,
		config.DefaultGuild(),
		zap.NewNop())
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB, name string) int64 {
	t.Helper()
	u := model.User{
		Username:     name,
		Email:        name + "@roguelearn.test",
		DisplayName:  name,
		PasswordHash: "x",
	}
	require.NoError(t, db.Create(&u).Error)
	return u.ID
}

var seedSeq int64

func seedGuild(t *testing.T, svc *Service, db *gorm.DB, maxMembers int) (int64, int64) {
	t.Helper()
	masterID := seedUser(t, db, fmt.Sprintf("master%d", atomic.AddInt64(&seedSeq, 1)))
	g, err := svc.CreateGuild(context.Background(), masterID, CreateGuildInput{
		Name:       fmt.Sprintf("guild-%d-%d", masterID, maxMembers),
		MaxMembers: maxMembers,
	})
	require.NoError(t, err)
	return g.ID, masterID
}

func grantRole(t *testing.T, db *gorm.DB, userID int64, roleName string) {
	t.Helper()
	require.NoError(t, role.Grant(db, userID, roleName, userID))
}

func activeCount(t *testing.T, db *gorm.DB, guildID int64) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.GuildMember{}).
		Where("guild_id = ? AND status = ?", guildID, model.MemberStatusActive).
		Count(&n).Error)
	return n
}
