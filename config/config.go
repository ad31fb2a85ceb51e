package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Security SecurityConfig `mapstructure:"security"`
	Guild    GuildConfig    `mapstructure:"guild"`
	Party    PartyConfig    `mapstructure:"party"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type AuditConfig struct {
	Retention time.Duration `mapstructure:"retention"`
}

type ServerConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
}

type DatabaseConfig struct {
	Mode        string        `mapstructure:"mode"` // sqlite | mysql | postgres
	SQLitePath  string        `mapstructure:"sqlite_path"`
	MySQLDSN    string        `mapstructure:"mysql_dsn"`
	PostgresDSN string        `mapstructure:"postgres_dsn"`
	MaxOpen     int           `mapstructure:"max_open"`
	MaxIdle     int           `mapstructure:"max_idle"`
	MaxLife     time.Duration `mapstructure:"max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
}

type GuildConfig struct {
	// MaxMembersCap bounds max_members at creation; LecturerMembersCap
	// applies instead when the creator holds the Verified Lecturer tier.
	MaxMembersCap      int `mapstructure:"max_members_cap"`
	LecturerMembersCap int `mapstructure:"lecturer_members_cap"`
	// InviteSoftCap disables invitations once the active member count
	// reaches it, unless the guild master holds the Verified Lecturer tier.
	InviteSoftCap       int           `mapstructure:"invite_soft_cap"`
	InvitationTTL       time.Duration `mapstructure:"invitation_ttl"`
	JoinRequestTTL      time.Duration `mapstructure:"join_request_ttl"`
	ExpirySweepInterval time.Duration `mapstructure:"expiry_sweep_interval"`
}

type PartyConfig struct {
	MaxSize int `mapstructure:"max_size"`
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/roguelearn.db")
	v.SetDefault("database.max_open", 50)
	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
	v.SetDefault("guild.max_members_cap", 50)
	v.SetDefault("guild.lecturer_members_cap", 100)
	v.SetDefault("guild.invite_soft_cap", 50)
	v.SetDefault("guild.invitation_ttl", "168h")
	v.SetDefault("guild.join_request_ttl", "72h")
	v.SetDefault("guild.expiry_sweep_interval", "10m")
	v.SetDefault("party.max_size", 4)
	v.SetDefault("audit.retention", "2160h") // 90 days

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultGuild returns the guild engine defaults used when no config file is
// loaded (tests, embedded use).
func DefaultGuild() GuildConfig {
	return GuildConfig{
		MaxMembersCap:       50,
		LecturerMembersCap:  100,
		InviteSoftCap:       50,
		InvitationTTL:       168 * time.Hour,
		JoinRequestTTL:      72 * time.Hour,
		ExpirySweepInterval: 10 * time.Minute,
	}
}

// DefaultParty returns the party defaults used when no config file is loaded.
func DefaultParty() PartyConfig {
	return PartyConfig{MaxSize: 4}
}
