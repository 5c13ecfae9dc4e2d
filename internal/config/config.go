package config

import (
	"fmt"
	"time"

	"github.com/redlinehq/redline/pkg/constants"
)

// Config holds the full service configuration. It is built once by
// LoadConfig and passed by pointer to component constructors; nothing
// mutates it after construction. Reconfiguring means building a fresh
// Config and fresh components.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Vault     VaultConfig     `mapstructure:"vault"`
	Log       LogConfig       `mapstructure:"log"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host  string `mapstructure:"host"`
	Port  int    `mapstructure:"port"`
	Debug bool   `mapstructure:"debug"`
}

// AuthConfig is the token lifecycle configuration.
type AuthConfig struct {
	// Secret is the HMAC signing secret. Absence is fatal at token
	// creation/verification time, not at load time, so that a Vault-backed
	// secret can be injected after the file/env pass.
	Secret string `mapstructure:"secret"`
	// Algorithm is the HMAC signing algorithm, default HS256.
	Algorithm string `mapstructure:"algorithm"`
	// TokenTTLMinutes is the bearer token lifetime in minutes, default 30.
	TokenTTLMinutes int `mapstructure:"token_ttl_minutes"`
	// Enabled toggles verification. When false, Verify returns a synthetic
	// admin identity for any input; Issue still signs real tokens.
	Enabled bool `mapstructure:"enabled"`
}

// TokenTTL returns the configured token lifetime.
func (c AuthConfig) TokenTTL() time.Duration {
	if c.TokenTTLMinutes <= 0 {
		return constants.DefaultTokenTTL
	}
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// RateLimitConfig controls the in-process rate limiter.
type RateLimitConfig struct {
	// Disabled makes every Allow call succeed without consulting state.
	// Meant for upstream integration tests only.
	Disabled bool `mapstructure:"disabled"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DSN builds the postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers         []string `mapstructure:"brokers"`
	RevocationTopic string   `mapstructure:"revocation_topic"`
}

type VaultConfig struct {
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	MountPath string `mapstructure:"mount_path"`
	SecretKey string `mapstructure:"secret_key"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type TracingConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
}

// Validate checks configuration consistency at load time. The signing
// secret is deliberately not checked here; see AuthConfig.Secret.
func (c *Config) Validate() error {
	if c.Auth.Algorithm != "HS256" && c.Auth.Algorithm != "HS384" && c.Auth.Algorithm != "HS512" {
		return fmt.Errorf("unsupported signing algorithm %q", c.Auth.Algorithm)
	}
	if c.Auth.TokenTTLMinutes < 0 {
		return fmt.Errorf("token_ttl_minutes must not be negative")
	}
	return nil
}
