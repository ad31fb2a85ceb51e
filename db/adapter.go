package db

import (
	"fmt"

	"github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/config"
	dbmysql "github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/db/mysql"
	dbpostgres "github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/db/postgres"
	dbsqlite "github.com/FA25SE050-RogueLearn/RogueLearn.User-sub004/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeSQLite   = "sqlite"
	ModeMySQL    = "mysql"
	ModePostgres = "postgres"
)

// MemoryDSN opens a private in-memory SQLite database, used by tests.
const MemoryDSN = "file::memory:?cache=shared"

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, cfg.MaxOpen, cfg.MaxIdle, cfg.MaxLife)
	case ModePostgres:
		return dbpostgres.Open(cfg.PostgresDSN, cfg.MaxOpen, cfg.MaxIdle, cfg.MaxLife)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
