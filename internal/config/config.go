// Package config provides configuration loading using koanf.
// Precedence: environment variables over compiled defaults.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/aelexs/auth-gateway/internal/domain"
)

// Config holds all service configuration.
type Config struct {
	// Environment identifier: "local", "dev", "prod"
	Environment string `koanf:"environment"`

	// Logging configuration
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	Gateway   GatewayConfig   `koanf:"gateway"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`

	// Infrastructure configurations
	DynamoDB DynamoDBConfig `koanf:"dynamodb"`
	Redis    RedisConfig    `koanf:"redis"`
	AWS      AWSConfig      `koanf:"aws"`

	// OpenTelemetry configuration
	OTEL OTELConfig `koanf:"otel"`
}

// GatewayConfig holds the HTTP listener and request handling configuration.
type GatewayConfig struct {
	HTTPPort int `koanf:"http_port"`

	// RequestTimeout is the hard per-request deadline enforced by the
	// timeout middleware.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// AuthConfig holds token issuance and session policy configuration.
type AuthConfig struct {
	// SigningSecret is the symmetric HMAC key. Required outside local
	// unless SecretID is set.
	SigningSecret domain.SecretString `koanf:"signing_secret"`

	// SecretID names an AWS Secrets Manager secret holding the signing
	// key. Takes precedence over SigningSecret when non-empty.
	SecretID string `koanf:"secret_id"`

	AccessTokenTTL  time.Duration `koanf:"access_token_ttl"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl"`

	// MissingSessionInternal restores the legacy behavior of answering
	// 500 when a bearer-token request arrives without the session
	// cookie. Default is off: missing session rejects with 401.
	MissingSessionInternal bool `koanf:"missing_session_internal"`
}

// RateLimitConfig holds the shared request throttle configuration.
// The quota is global across all callers, not per client.
type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

// DynamoDBConfig holds DynamoDB configuration.
type DynamoDBConfig struct {
	Endpoint   string        `koanf:"endpoint"` // Empty for production (uses default AWS endpoint)
	Timeout    time.Duration `koanf:"timeout"`
	UsersTable string        `koanf:"users_table"`
}

// RedisConfig holds Redis configuration. An empty Addr selects the
// in-process rate limiter instead of the Redis-backed one.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	Timeout  time.Duration `koanf:"timeout"`
}

// AWSConfig holds AWS SDK configuration.
type AWSConfig struct {
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"` // LocalStack endpoint for development
}

// OTELConfig holds OpenTelemetry configuration.
type OTELConfig struct {
	Endpoint    string `koanf:"endpoint"` // Empty disables OTLP export
	ServiceName string `koanf:"service_name"`
}

// defaults returns a Config with compiled default values.
func defaults() *Config {
	return &Config{
		Environment: "local",
		LogLevel:    "info",
		LogFormat:   "json",

		Gateway: GatewayConfig{
			HTTPPort:       8080,
			RequestTimeout: domain.RequestTimeout,
		},
		Auth: AuthConfig{
			AccessTokenTTL:  domain.AccessTokenLifetime,
			RefreshTokenTTL: domain.RefreshTokenLifetime,
		},
		RateLimit: RateLimitConfig{
			Requests: domain.RateLimitRequests,
			Window:   domain.RateLimitWindow,
		},

		DynamoDB: DynamoDBConfig{
			Timeout:    domain.DynamoDBTimeout,
			UsersTable: "users",
		},
		Redis: RedisConfig{
			Timeout: domain.RedisTimeout,
		},
		AWS: AWSConfig{
			Region: "us-east-1",
		},
	}
}

// Load loads configuration following the precedence:
// 1. Environment variables (highest)
// 2. Compiled defaults (lowest)
//
// Required keys missing cause startup failure; optional keys fall back to
// defaults.
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")

	// Start with compiled defaults
	cfg := defaults()

	// Load environment variables
	// Prefix: none (full names like GATEWAY_HTTP_PORT)
	err := k.Load(env.Provider("", ".", envToKey), nil)
	if err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	// Unmarshal into config struct
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Validate required fields
	if err := validateRequired(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envSections are the nesting roots of the config struct. Only the
// underscore after one of these becomes a nesting dot; every other
// underscore is part of the key itself, so AUTH_SIGNING_SECRET maps to
// auth.signing_secret and LOG_LEVEL stays the top-level log_level.
var envSections = []string{
	"gateway", "auth", "ratelimit", "dynamodb", "redis", "aws", "otel",
}

// envToKey translates an environment variable name to a koanf key.
func envToKey(name string) string {
	key := strings.ToLower(name)
	for _, section := range envSections {
		if strings.HasPrefix(key, section+"_") {
			return section + "." + key[len(section)+1:]
		}
	}
	return key
}

// validateRequired checks that required configuration is present.
func validateRequired(cfg *Config) error {
	if cfg.RateLimit.Requests <= 0 || cfg.RateLimit.Window <= 0 {
		return fmt.Errorf("%w: ratelimit.requests and ratelimit.window must be positive", domain.ErrConfigRequired)
	}

	// Local development may fall back to an ephemeral secret.
	if cfg.Environment == "local" {
		return nil
	}

	if cfg.Auth.SigningSecret.IsEmpty() && cfg.Auth.SecretID == "" {
		return fmt.Errorf("%w: auth.signing_secret or auth.secret_id", domain.ErrConfigRequired)
	}

	return nil
}

// IsLocal returns true if running in local development environment.
func (c *Config) IsLocal() bool {
	return c.Environment == "local"
}

// IsProd returns true if running in production environment.
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}
