package config

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// DefaultServiceURL is the SFpark availability service endpoint.
const DefaultServiceURL = "http://api.sfpark.org/sfpark/rest/availabilityservice"

// Config represents the overall application configuration.
type Config struct {
	Collector CollectorConfig `yaml:"collector"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
}

// CollectorConfig holds the polling and ingestion settings.
type CollectorConfig struct {
	URL                   string        `yaml:"url"`
	IntervalSeconds       int           `yaml:"interval_seconds"`
	Interval              time.Duration `yaml:"-"`
	RequestTimeoutSeconds int           `yaml:"request_timeout_seconds"` // 0 disables the timeout
	HTTPProxy             string        `yaml:"http_proxy"`
	Query                 QueryConfig   `yaml:"query"`
	EagerLocations        *bool         `yaml:"eager_locations"`
	BatchSize             int           `yaml:"batch_size"`
}

// QueryConfig holds the fixed query parameters sent with every request.
type QueryConfig struct {
	Radius   string `yaml:"radius"`
	Unit     string `yaml:"uom"`
	Response string `yaml:"response"`
	Type     string `yaml:"type"`
	Pricing  string `yaml:"pricing"`
}

// DatabaseConfig holds the connection pool configuration. The DSN itself is
// supplied on the command line.
type DatabaseConfig struct {
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogLevel               string `yaml:"log_level"`
}

// ServerConfig holds the read API configuration.
type ServerConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// LogConfig holds the logger configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json | console
}

// EagerLocationsEnabled reports whether unseen locations are inserted on first
// sight instead of waiting for the next date rollover.
func (c CollectorConfig) EagerLocationsEnabled() bool {
	return c.EagerLocations == nil || *c.EagerLocations
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration from the given path. A missing file is not an
// error: the defaults are returned instead.
func Load(path string) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		zap.L().Info("config file not found, using defaults", zap.String("path", path))
	case err != nil:
		return nil, eris.Wrapf(err, "config: open %s", path)
	default:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, eris.Wrap(err, "config: decode yaml")
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	c := &cfg.Collector
	if c.URL == "" {
		c.URL = DefaultServiceURL
	}
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 60
	}
	c.Interval = time.Duration(c.IntervalSeconds) * time.Second
	if c.RequestTimeoutSeconds < 0 {
		c.RequestTimeoutSeconds = 0
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}

	q := &c.Query
	if q.Radius == "" {
		q.Radius = "50.0"
	}
	if q.Unit == "" {
		q.Unit = "mile"
	}
	if q.Response == "" {
		q.Response = "json"
	}
	if q.Type == "" {
		q.Type = "all"
	}
	if q.Pricing == "" {
		q.Pricing = "yes"
	}

	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
}

// InitLogger builds the global zap logger from cfg.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
