package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/go-recurly"
)

const envPrefix = "RECURLY"

// Config is read from RECURLY_* environment variables.
type Config struct {
	APIKey    string `mapstructure:"api_key"`
	BaseURL   string `mapstructure:"base_url"`
	Subdomain string `mapstructure:"subdomain"`
	RateLimit int    `mapstructure:"rate_limit"`
	LogLevel  string `mapstructure:"log_level"`
}

func loadConfig() (*Config, error) {
	v := viper.NewWithOptions(
		viper.EnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_")),
	)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	_ = v.BindEnv("api_key")
	v.SetDefault("api_key", "")

	_ = v.BindEnv("base_url")
	v.SetDefault("base_url", "")

	_ = v.BindEnv("subdomain")
	v.SetDefault("subdomain", "")

	// Requests per second; zero disables client-side limiting.
	_ = v.BindEnv("rate_limit")
	v.SetDefault("rate_limit", 0)

	_ = v.BindEnv("log_level")
	v.SetDefault("log_level", "warn")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// clientOptions turns the configuration into client options. An explicit
// base URL wins over a subdomain.
func (c *Config) clientOptions(logger *slog.Logger) []recurly.ClientOption {
	opts := []recurly.ClientOption{
		recurly.WithAPIKey(c.APIKey),
		recurly.WithLogger(logger),
		recurly.WithUserAgent("recurly-cli/1.0"),
	}

	switch {
	case c.BaseURL != "":
		opts = append(opts, recurly.WithBaseURL(c.BaseURL))
	case c.Subdomain != "":
		opts = append(opts, recurly.WithSubdomain(c.Subdomain))
	}

	if c.RateLimit > 0 {
		opts = append(opts, recurly.WithRateLimit(c.RateLimit, time.Second))
	}
	return opts
}

func (c *Config) level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return level
}
