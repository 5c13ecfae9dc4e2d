package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/redlinehq/redline/pkg/constants"
)

// LoadConfig reads configuration from config.yaml (working directory or
// /etc/redline/), then REDLINE_-prefixed environment variables, then the
// defaults below. The returned Config is immutable by convention.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("auth.algorithm", constants.DefaultSigningAlgorithm)
	v.SetDefault("auth.token_ttl_minutes", 30)
	v.SetDefault("auth.enabled", true)
	v.SetDefault("rate_limit.disabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("kafka.revocation_topic", constants.DefaultRevocationTopic)
	v.SetDefault("vault.mount_path", "secret")
	v.SetDefault("vault.secret_key", "jwt_signing_secret")
	v.SetDefault("log.level", "info")
	v.SetDefault("tracing.enabled", false)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/redline/")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("REDLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
