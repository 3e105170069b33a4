package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath    = "CONFIG_PATH"
	EnvDBConnection  = "DATABASE_URL"
	EnvSecretKey     = "SECRET_KEY"
	EnvSessionExpiry = "SESSION_EXPIRY"
	EnvAdminUsername = "ADMIN_USERNAME"
	EnvAdminPassword = "ADMIN_PASSWORD"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// defaultSQLitePath is the default SQLite database file name.
const defaultSQLitePath = "zinal.db"

// DefaultSQLiteDSN builds the embedded file-store DSN used when no database
// connection string is configured.
func DefaultSQLiteDSN() string {
	return buildSQLiteDSN(defaultSQLitePath)
}

// buildSQLiteDSN constructs a SQLite DSN with default parameters.
func buildSQLiteDSN(path string) string {
	dsn := strings.TrimSpace(path)
	if dsn == "" {
		dsn = defaultSQLitePath
	}
	if !strings.HasPrefix(strings.ToLower(dsn), "file:") {
		dsn = "file:" + dsn
	}
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	return dsn + separator + strings.Join([]string{
		"_busy_timeout=5000",
		"_journal_mode=WAL",
		"_foreign_keys=on",
		"_synchronous=NORMAL",
	}, "&")
}

// LoadDatabaseDSN resolves the database DSN from env, the YAML config file,
// or the embedded SQLite default, in that order.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
				return dsn, nil
			}
			if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
				return dsn, nil
			}
		}
	}
	return DefaultSQLiteDSN(), nil
}

// RedisConfig holds the optional Redis session backend settings.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// SessionConfig holds session signing and storage settings.
type SessionConfig struct {
	Secret     string        `yaml:"secret"`
	Expiry     time.Duration `yaml:"expiry"`
	CookieName string        `yaml:"cookie-name"`
	Redis      RedisConfig   `yaml:"redis"`
}

// Session defaults applied when the config omits or invalidates values.
const (
	defaultSessionExpiry     = 24 * time.Hour
	defaultSessionCookieName = "zinal_session"
	// DefaultSessionRedisPrefix is the fallback Redis key prefix.
	DefaultSessionRedisPrefix = "zinal:sess"
	// devFallbackSecret keeps local development working without a SECRET_KEY.
	devFallbackSecret = "dev-fallback-secret"
)

// LoadSessionConfig loads session settings from the YAML config file with
// environment overrides for the secret and expiry.
func LoadSessionConfig(configPath string) (SessionConfig, error) {
	// fileConfig maps the YAML fields needed for session settings.
	type fileConfig struct {
		Session SessionConfig `yaml:"session"`
	}

	result := SessionConfig{Expiry: defaultSessionExpiry}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.Session
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvSecretKey)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvSessionExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if strings.TrimSpace(result.Secret) == "" {
		result.Secret = devFallbackSecret
	}
	if result.Expiry <= 0 {
		result.Expiry = defaultSessionExpiry
	}
	if strings.TrimSpace(result.CookieName) == "" {
		result.CookieName = defaultSessionCookieName
	}
	if strings.TrimSpace(result.Redis.Prefix) == "" {
		result.Redis.Prefix = DefaultSessionRedisPrefix
	}
	if result.Redis.DB < 0 {
		result.Redis.DB = 0
	}
	return result, nil
}

// AdminBootstrap holds the optional initial admin credentials.
type AdminBootstrap struct {
	Username string
	Password string
}

// LoadAdminBootstrap reads initial admin credentials from the environment.
func LoadAdminBootstrap() AdminBootstrap {
	return AdminBootstrap{
		Username: strings.TrimSpace(os.Getenv(EnvAdminUsername)),
		Password: os.Getenv(EnvAdminPassword),
	}
}

// ParsePort parses a port value, returning the fallback when invalid.
func ParsePort(raw string, fallback int) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	port, errParse := strconv.Atoi(trimmed)
	if errParse != nil || port <= 0 || port > 65535 {
		return fallback
	}
	return port
}
