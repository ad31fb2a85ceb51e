package audit

import (
	"context"
	"testing"
	"time"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func nop() *zap.Logger { l, _ := zap.NewDevelopment(); return l }

func TestNew_StartsWorker(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	require.NotNil(t, svc)
	svc.Stop(context.Background())
}

func TestLog_EnqueuedAndFlushed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())

	actorID := int64(1)
	guildID := int64(2)
	svc.Log(Entry{
		TraceID: "trace-123",
		ActorID: &actorID,
		GuildID: &guildID,
		Action:  ActionInvitationRevive,
		Detail: map[string]string{
			"previous_status": "declined",
		},
		DurationMs: 42,
	})

	// Stop drains and flushes the queue.
	svc.Stop(context.Background())

	var logs []model.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, ActionInvitationRevive, logs[0].Action)
	assert.Equal(t, "trace-123", logs[0].TraceID)
	require.NotNil(t, logs[0].ActorID)
	assert.Equal(t, actorID, *logs[0].ActorID)
	assert.Contains(t, string(logs[0].Detail), "declined")
}

func TestLog_BatchFlushOnTimer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	defer svc.Stop(context.Background())

	for i := 0; i < 5; i++ {
		svc.Log(Entry{Action: ActionGuildJoin})
	}

	// Worker flushes on its 2s ticker.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var n int64
		require.NoError(t, db.Model(&model.AuditLog{}).Count(&n).Error)
		if n == 5 {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("audit entries were not flushed in time")
}

func TestStop_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	svc.Stop(context.Background())
	svc.Stop(context.Background())
}

func TestPurgeOlderThan(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := New(db, nop())
	defer svc.Stop(context.Background())

	old := model.AuditLog{Action: ActionGuildCreate, CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := model.AuditLog{Action: ActionGuildJoin, CreatedAt: time.Now()}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&fresh).Error)

	n, err := svc.PurgeOlderThan(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	var remaining int64
	require.NoError(t, db.Model(&model.AuditLog{}).Count(&remaining).Error)
	require.EqualValues(t, 1, remaining)
}
