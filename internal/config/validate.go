package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/heartmarshall/salesdesk-backend/internal/service/followup"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if err := c.Store.validate(c); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	if c.Storage.Enabled() && (c.Storage.AccessKey == "" || c.Storage.SecretKey == "") {
		return fmt.Errorf("storage: access_key and secret_key are required when endpoint is set")
	}

	if err := c.FollowUp.validate(); err != nil {
		return fmt.Errorf("followup: %w", err)
	}

	return nil
}

func (s *StoreConfig) validate(c *Config) error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case BackendPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}
	if s.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be > 0 (got %v)", s.FetchTimeout)
	}
	return nil
}

func (f *FollowUpConfig) validate() error {
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	f.Location = loc

	f.DefaultOffsets = strings.TrimSpace(f.DefaultOffsets)
	if err := followup.ValidateSpec(f.DefaultOffsets); err != nil {
		return fmt.Errorf("default_offsets: %w", err)
	}

	f.Options = ParseOptions(f.OptionsRaw)
	for _, opt := range f.Options {
		if err := followup.ValidateSpec(opt); err != nil {
			return fmt.Errorf("options: %w", err)
		}
	}
	if len(f.Options) > 0 && !slices.Contains(f.Options, f.DefaultOffsets) {
		return fmt.Errorf("default_offsets %q is not one of the options", f.DefaultOffsets)
	}

	return nil
}
