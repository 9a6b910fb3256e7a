package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                 int    `env:"PORT" envDefault:"8080"`
	DatabaseURL          string `env:"DATABASE_URL,required"`
	RedisURL             string `env:"REDIS_URL,required"`
	LogLevel             string `env:"LOG_LEVEL" envDefault:"info"`
	StatsCacheTTLSeconds int    `env:"STATS_CACHE_TTL_SECONDS" envDefault:"300"`
	StaleSessionHours    int    `env:"STALE_SESSION_HOURS" envDefault:"12"`
	AbandonedRetainDays  int    `env:"ABANDONED_RETAIN_DAYS" envDefault:"90"`
}

func (c *Config) StatsCacheTTL() time.Duration {
	return time.Duration(c.StatsCacheTTLSeconds) * time.Second
}

func (c *Config) StaleSessionAge() time.Duration {
	return time.Duration(c.StaleSessionHours) * time.Hour
}

func (c *Config) AbandonedRetention() time.Duration {
	return time.Duration(c.AbandonedRetainDays) * 24 * time.Hour
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.StaleSessionHours < 1 {
		return fmt.Errorf("STALE_SESSION_HOURS must be at least 1")
	}
	if isProduction && strings.HasPrefix(c.RedisURL, "redis://") {
		log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
