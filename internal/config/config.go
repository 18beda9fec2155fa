package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"slotbook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Members    []models.Member  `yaml:"members"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
	Timezone    string `yaml:"timezone"`
}

// Location resolves the configured timezone, falling back to local time.
func (c AppConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	Path         string `yaml:"path"`
	DSN          string `yaml:"dsn"`
	BusyTimeout  int    `yaml:"busy_timeout_ms"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
	CORS      APICORSConfig      `yaml:"cors"`
}

type APIHTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	Enabled bool `yaml:"enabled"`
	// Backend is "memory" or "redis". Redis falls back to memory while unreachable.
	Backend  string `yaml:"backend"`
	Requests int    `yaml:"requests"`
	Window   string `yaml:"window"`
}

type APICORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type BookingConfig struct {
	DailyCapacity        int    `yaml:"daily_capacity"`
	WindowWeeks          int    `yaml:"window_weeks"`
	DeviceInfoMaxLen     int    `yaml:"device_info_max_len"`
	DefaultDeviceInfo    string `yaml:"default_device_info"`
	ActivityDefaultLimit int    `yaml:"activity_default_limit"`
	ActivityMaxLimit     int    `yaml:"activity_max_limit"`
	EnforceWindow        bool   `yaml:"enforce_window"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Подстановка переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database dsn is required for the pgx driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Booking.DailyCapacity <= 0 {
		return errors.New("booking.daily_capacity must be positive")
	}
	if c.Booking.ActivityDefaultLimit > c.Booking.ActivityMaxLimit {
		return errors.New("booking.activity_default_limit exceeds booking.activity_max_limit")
	}

	if c.API.RateLimit.Enabled {
		if _, err := time.ParseDuration(c.API.RateLimit.Window); err != nil {
			return fmt.Errorf("invalid api.rate_limit.window: %w", err)
		}
		if c.API.RateLimit.Backend != "memory" && c.API.RateLimit.Backend != "redis" {
			return fmt.Errorf("unsupported api.rate_limit.backend %q", c.API.RateLimit.Backend)
		}
	}

	if c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api.auth is enabled but no api_keys are configured")
	}

	return ValidateMembers(c.Members)
}

func ValidateMembers(members []models.Member) error {
	names := make(map[string]bool)
	for _, m := range members {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return errors.New("member with empty name")
		}
		if names[name] {
			return fmt.Errorf("duplicate member name found: %s", name)
		}
		names[name] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "slotbook"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = 5000
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.API.HTTP.ReadTimeoutSec == 0 {
		c.API.HTTP.ReadTimeoutSec = 15
	}
	if c.API.HTTP.WriteTimeoutSec == 0 {
		c.API.HTTP.WriteTimeoutSec = 15
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.API.RateLimit.Backend == "" {
		c.API.RateLimit.Backend = "memory"
	}
	if c.API.RateLimit.Requests == 0 {
		c.API.RateLimit.Requests = 60
	}
	if c.API.RateLimit.Window == "" {
		c.API.RateLimit.Window = "1m"
	}
	if len(c.API.CORS.AllowedOrigins) == 0 {
		c.API.CORS.AllowedOrigins = []string{"*"}
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Backup.Schedule == "" {
		c.Backup.Schedule = "24h"
	}
	if c.Backup.RetentionDays == 0 {
		c.Backup.RetentionDays = 7
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}

	// Booking defaults
	if c.Booking.DailyCapacity == 0 {
		c.Booking.DailyCapacity = models.DefaultDailyCapacity
	}
	if c.Booking.WindowWeeks == 0 {
		c.Booking.WindowWeeks = models.DefaultWindowWeeks
	}
	if c.Booking.DeviceInfoMaxLen == 0 {
		c.Booking.DeviceInfoMaxLen = models.DeviceInfoMaxLen
	}
	if c.Booking.DefaultDeviceInfo == "" {
		c.Booking.DefaultDeviceInfo = models.DefaultDeviceInfo
	}
	if c.Booking.ActivityDefaultLimit == 0 {
		c.Booking.ActivityDefaultLimit = models.DefaultActivityLimit
	}
	if c.Booking.ActivityMaxLimit == 0 {
		c.Booking.ActivityMaxLimit = models.MaxActivityLimit
	}
}

// Defaults returns a configuration with every default applied, for tests and tools.
func Defaults() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Database.Path = "data/slotbook.db"
	return cfg
}
