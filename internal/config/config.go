package config

import (
	"strings"
	"time"

	"github.com/heartmarshall/salesdesk-backend/internal/domain"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	FollowUp FollowUpConfig `yaml:"followup"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PATCH,PUT,DELETE,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// RateLimit is requests per minute per client; 0 disables limiting.
	RateLimit int `yaml:"rate_limit" env:"SERVER_RATE_LIMIT" env-default:"600"`
}

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Backend      string        `yaml:"backend"       env:"STORE_BACKEND"       env-default:"postgres"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"STORE_FETCH_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"true"`
}

// RedisConfig holds Redis connection settings for the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"     env:"REDIS_ADDR"     env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
	Prefix   string `yaml:"prefix"   env:"REDIS_PREFIX"   env-default:"salesdesk"`
}

// StorageConfig holds S3-compatible attachment storage settings.
// An empty endpoint disables attachment removal.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"   env:"STORAGE_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"STORAGE_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"STORAGE_SECRET_KEY"`
	Bucket    string `yaml:"bucket"     env:"STORAGE_BUCKET"     env-default:"attachments"`
	Region    string `yaml:"region"     env:"STORAGE_REGION"     env-default:"us-east-1"`
	UseSSL    bool   `yaml:"use_ssl"    env:"STORAGE_USE_SSL"    env-default:"false"`
}

// Enabled reports whether attachment storage is configured.
func (c StorageConfig) Enabled() bool {
	return c.Endpoint != ""
}

// AuthConfig holds principal token settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"AUTH_JWT_SECRET"       env-required:"true"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"AUTH_JWT_ISSUER"       env-default:"salesdesk"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"12h"`
}

// FollowUpConfig holds the follow-up defaults used until the settings
// document exists, and the business timezone for calendar days.
type FollowUpConfig struct {
	DefaultOffsets string `yaml:"default_offsets" env:"FOLLOWUP_DEFAULT_OFFSETS" env-default:"3,7,14"`
	OptionsRaw     string `yaml:"options"         env:"FOLLOWUP_OPTIONS"         env-default:"3;7;3,7,14;none"`
	Timezone       string `yaml:"timezone"        env:"FOLLOWUP_TIMEZONE"        env-default:"UTC"`

	// Options is parsed from OptionsRaw during validation.
	Options []string `yaml:"-" env:"-"`
	// Location is resolved from Timezone during validation.
	Location *time.Location `yaml:"-" env:"-"`
}

// Settings returns the fallback follow-up settings document.
func (f FollowUpConfig) Settings() domain.Settings {
	return domain.Settings{
		FollowUpOptions: f.Options,
		DefaultFollowUp: f.DefaultOffsets,
	}
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// ParseOptions splits a semicolon-separated list of follow-up specs
// (e.g. "3;7;3,7,14;none"). Blank entries are skipped.
func ParseOptions(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ";") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
