package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is read once at startup from the environment (optionally seeded by
// a .env file). There is no runtime reload.
type Config struct {
	BackendURL      string        `mapstructure:"backend_api_url"`
	GoogleClientID  string        `mapstructure:"google_client_id"`
	MaxCoins        int           `mapstructure:"max_coins"`
	ProfitTrendDays int           `mapstructure:"profit_trend_days"`
	Port            string        `mapstructure:"port"`
	Env             string        `mapstructure:"app_env"`
	SessionTTL      time.Duration `mapstructure:"session_ttl"`
	BackendTimeout  time.Duration `mapstructure:"backend_timeout"`
	TransferWorkers int           `mapstructure:"transfer_workers"`
}

const (
	DefaultBackendURL      = "http://localhost:8000"
	DefaultMaxCoins        = 3
	DefaultProfitTrendDays = 30
	DefaultPort            = "8080"
	DefaultEnv             = "development"
	DefaultSessionTTL      = 720 * time.Minute
	DefaultTransferWorkers = 5
)

var keys = []string{
	"backend_api_url",
	"google_client_id",
	"max_coins",
	"profit_trend_days",
	"port",
	"app_env",
	"session_ttl",
	"backend_timeout",
	"transfer_workers",
}

// Load reads envFile (if it exists) and then the process environment.
// A missing .env file is reported through the returned bool, not as an error.
func Load(envFile string) (*Config, bool, error) {
	loaded := true
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		loaded = false
	}

	v := viper.New()
	defaults := map[string]interface{}{
		"backend_api_url":   DefaultBackendURL,
		"google_client_id":  "",
		"max_coins":         DefaultMaxCoins,
		"profit_trend_days": DefaultProfitTrendDays,
		"port":              DefaultPort,
		"app_env":           DefaultEnv,
		"session_ttl":       DefaultSessionTTL,
		"backend_timeout":   time.Duration(0),
		"transfer_workers":  DefaultTransferWorkers,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees env values for keys viper already knows about.
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, loaded, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, loaded, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, loaded, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, loaded, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.BackendURL)
	if err != nil || parsed.Host == "" {
		return fmt.Errorf("invalid backend URL: %q", c.BackendURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("backend URL must be http or https: %q", c.BackendURL)
	}
	if c.MaxCoins <= 0 {
		return errors.New("max_coins must be positive")
	}
	if c.ProfitTrendDays <= 0 {
		return errors.New("profit_trend_days must be positive")
	}
	if c.TransferWorkers <= 0 {
		return errors.New("transfer_workers must be positive")
	}
	if c.BackendTimeout < 0 {
		return errors.New("backend_timeout must not be negative")
	}
	if c.Port == "" {
		return errors.New("port is empty")
	}
	return nil
}

// Production reports whether secure cookies and release mode apply
func (c *Config) Production() bool {
	return c.Env == "production"
}
