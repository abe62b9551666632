// Package config loads the client configuration from a YAML file with
// environment overrides.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no -config flag is given.
const DefaultPath = "aurum.yaml"

type (
	Config struct {
		API      API      `yaml:"api"`
		Order    Order    `yaml:"order"`
		Gateway  Gateway  `yaml:"gateway"`
		Degraded Degraded `yaml:"degraded"`
		Storage  Storage  `yaml:"storage"`
		Metrics  Metrics  `yaml:"metrics"`
		Log      Log      `yaml:"log"`
	}

	API struct {
		BaseURL   string        `yaml:"base_url"   env:"AURUM_BASE_URL"   env-default:"http://localhost:8080" env-description:"gold backend base URL"`
		Timeout   time.Duration `yaml:"timeout"    env:"AURUM_TIMEOUT"    env-default:"30s"                   env-description:"per-request timeout"`
		RateLimit float64       `yaml:"rate_limit" env:"AURUM_RATE_LIMIT" env-default:"5"                     env-description:"client-side requests per second"`
		Burst     int           `yaml:"burst"      env:"AURUM_BURST"      env-default:"10"                    env-description:"client-side request burst"`
	}

	Order struct {
		MetalType     string        `yaml:"metal_type"     env:"AURUM_METAL_TYPE"     env-default:"gold"`
		RedirectDelay time.Duration `yaml:"redirect_delay" env:"AURUM_REDIRECT_DELAY" env-default:"3s" env-description:"delay before showing history after an order"`
	}

	Gateway struct {
		Initiate     time.Duration `yaml:"initiate"      env:"AURUM_GATEWAY_INITIATE" env-default:"500ms"`
		Connect      time.Duration `yaml:"connect"       env:"AURUM_GATEWAY_CONNECT"  env-default:"1s"`
		Process      time.Duration `yaml:"process"       env:"AURUM_GATEWAY_PROCESS"  env-default:"1s"`
		Verify       time.Duration `yaml:"verify"        env:"AURUM_GATEWAY_VERIFY"   env-default:"1s"`
		MerchantName string        `yaml:"merchant_name" env:"AURUM_MERCHANT_NAME"    env-default:"Aurum Gold"`
	}

	// Degraded controls the cached/fallback data served when the backend is unreachable.
	// Enabled has no env-default because cleanenv would override an explicit false.
	Degraded struct {
		Enabled  bool          `yaml:"enabled"   env:"AURUM_DEGRADED"`
		CacheTTL time.Duration `yaml:"cache_ttl" env:"AURUM_CACHE_TTL" env-default:"10m"`
	}

	Storage struct {
		JournalDir  string `yaml:"journal_dir"  env:"AURUM_JOURNAL_DIR"  env-default:"./wal/orders"`
		SessionFile string `yaml:"session_file" env:"AURUM_SESSION_FILE" env-default:"./.aurum/session.json"`
	}

	Metrics struct {
		// Addr is empty to disable the /metrics listener.
		Addr string `yaml:"addr" env:"AURUM_METRICS_ADDR"`
	}

	Log struct {
		Level       string `yaml:"level"       env:"AURUM_LOG_LEVEL"   env-default:"info"`
		Development bool   `yaml:"development" env:"AURUM_LOG_DEV"`
	}
)

func base() Config {
	return Config{Degraded: Degraded{Enabled: true}}
}

// Load reads the YAML file at path and applies environment overrides and defaults.
// An empty path loads from the environment only.
func Load(path string) (*Config, error) {
	cfg := base()

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, errors.Wrap(err, "read config from environment")
		}
	} else if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used without a file.
func Default() (*Config, error) {
	return Load("")
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return errors.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	if c.API.RateLimit <= 0 {
		return errors.Errorf("api.rate_limit must be positive, got %v", c.API.RateLimit)
	}
	if c.API.Burst <= 0 {
		return errors.Errorf("api.burst must be positive, got %d", c.API.Burst)
	}

	stages := []struct {
		key string
		d   time.Duration
	}{
		{"gateway.initiate", c.Gateway.Initiate},
		{"gateway.connect", c.Gateway.Connect},
		{"gateway.process", c.Gateway.Process},
		{"gateway.verify", c.Gateway.Verify},
	}
	for _, s := range stages {
		if s.d <= 0 {
			return errors.Errorf("%s must be positive, got %s", s.key, s.d)
		}
	}

	if c.Order.MetalType == "" {
		return errors.New("order.metal_type is required")
	}
	if c.Order.RedirectDelay < 0 {
		return errors.New("order.redirect_delay must not be negative")
	}
	if c.Degraded.Enabled && c.Degraded.CacheTTL <= 0 {
		return errors.Errorf("degraded.cache_ttl must be positive, got %s", c.Degraded.CacheTTL)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(err, "log.level")
	}
	return nil
}

// Save writes the configuration as YAML, creating parent directories.
func Save(path string, c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// EnvHelp describes the environment variables that override the file.
func EnvHelp() (string, error) {
	var cfg Config
	header := "Environment overrides:"
	return cleanenv.GetDescription(&cfg, &header)
}
