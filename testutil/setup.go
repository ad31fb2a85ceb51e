package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/cache"
	dbsqlite "github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/db/sqlite"
	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbSeq int64

// SetupTestDB creates a private in-memory SQLite DB and runs AutoMigrate.
// Each call gets its own named shared-cache database, so GORM's connection
// pool sees one store while parallel tests stay isolated.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := dbsqlite.Open(dsn)
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(db), "SetupTestDB: AutoMigrate")
	return db
}

// SetupTestCache creates LocalCache and LocalPubSub (no Redis required).
func SetupTestCache(t *testing.T) (cache.Cache, cache.PubSub) {
	t.Helper()
	cfg := cache.CacheConfig{} // empty RedisAddr → LocalCache
	c, err := cache.NewCache(cfg)
	require.NoError(t, err, "SetupTestCache: NewCache")
	ps, err := cache.NewPubSub(cfg)
	require.NoError(t, err, "SetupTestCache: NewPubSub")
	return c, ps
}
