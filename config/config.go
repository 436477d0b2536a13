// Package config loads vigil's configuration from file and environment.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the vigil CLI and server.
type Config struct {
	// RulesDir is the directory of detection manifests loaded at start.
	RulesDir string `mapstructure:"rules_dir" validate:"required"`

	Engine struct {
		// Workers bounds parallel evaluation; 0 means one worker per CPU.
		Workers int `mapstructure:"workers" validate:"gte=0,lte=512"`
		// Parallel switches Run to the worker-pool path.
		Parallel bool `mapstructure:"parallel"`
	} `mapstructure:"engine"`

	Logging struct {
		Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
		Format string `mapstructure:"format" validate:"oneof=json console"`
	} `mapstructure:"logging"`

	Server struct {
		Host string `mapstructure:"host"`
		Port int    `mapstructure:"port" validate:"gte=1,lte=65535"`
		// RateLimit is requests per second allowed on the evaluate
		// endpoint; burst is twice the rate.
		RateLimit int `mapstructure:"rate_limit" validate:"gte=1"`
	} `mapstructure:"server"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

// Load reads configuration from the given file (optional), environment
// variables prefixed VIGIL_, and defaults, then validates the result.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("rules_dir", "rules")
	v.SetDefault("engine.workers", 0)
	v.SetDefault("engine.parallel", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8085)
	v.SetDefault("server.rate_limit", 50)
	v.SetDefault("metrics.enabled", true)

	v.SetEnvPrefix("VIGIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("vigil")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
