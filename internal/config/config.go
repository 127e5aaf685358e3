package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                 string        `mapstructure:"PORT"`
	Env                  string        `mapstructure:"ENV"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL             string        `mapstructure:"REDIS_URL"`
	PartnerCacheTTL      time.Duration `mapstructure:"PARTNER_CACHE_TTL"`
	SufficiencyThreshold int           `mapstructure:"SUFFICIENCY_THRESHOLD"`
	ReportValidity       time.Duration `mapstructure:"REPORT_VALIDITY"`
	ProvenanceTimeout    time.Duration `mapstructure:"PROVENANCE_TIMEOUT"`
	RequestTimeout       time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	AuthSigningKey       string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer           string        `mapstructure:"AUTH_ISSUER"`
	AuthAudience         string        `mapstructure:"AUTH_AUDIENCE"`
	CORSOrigins          []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS         float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst       int           `mapstructure:"RATE_LIMIT_BURST"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("PARTNER_CACHE_TTL", "5m")
	v.SetDefault("SUFFICIENCY_THRESHOLD", 5)
	v.SetDefault("REPORT_VALIDITY", "168h")
	v.SetDefault("PROVENANCE_TIMEOUT", "3s")
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"REDIS_URL", "PARTNER_CACHE_TTL", "SUFFICIENCY_THRESHOLD", "REPORT_VALIDITY",
		"PROVENANCE_TIMEOUT", "REQUEST_TIMEOUT", "AUTH_SIGNING_KEY", "AUTH_ISSUER",
		"AUTH_AUDIENCE", "CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: running in DEVELOPMENT mode (ENV=development); requests without a token get admin access.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is safe to run. Outside development
// a signing key is required so that bearer tokens are actually verified.
func (c *Config) Validate() error {
	if c.SufficiencyThreshold < 1 {
		return fmt.Errorf("SUFFICIENCY_THRESHOLD must be at least 1, got %d", c.SufficiencyThreshold)
	}
	if c.ReportValidity <= 0 {
		return fmt.Errorf("REPORT_VALIDITY must be positive, got %s", c.ReportValidity)
	}
	if c.ProvenanceTimeout <= 0 {
		return fmt.Errorf("PROVENANCE_TIMEOUT must be positive, got %s", c.ProvenanceTimeout)
	}
	if c.RequestTimeout > 0 && c.RequestTimeout < c.ProvenanceTimeout {
		return fmt.Errorf("REQUEST_TIMEOUT (%s) must not be shorter than PROVENANCE_TIMEOUT (%s)",
			c.RequestTimeout, c.ProvenanceTimeout)
	}
	if !c.IsDev() && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required when ENV=%q", c.Env)
	}
	return nil
}
