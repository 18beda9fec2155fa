package config

import (
	"os"
	"path/filepath"
	"testing"

	"slotbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SLOTBOOK_TEST_DB", "group.db")

	path := writeConfig(t, `
database:
  path: "${SLOTBOOK_TEST_DB}"
booking:
  enforce_window: true
members:
  - name: "Alice"
    email: "alice@example.com"
    avatar_color: "#ff8800"
  - name: "Bob"
`)

	// no .env in the package directory: Load must not fail on it
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "group.db", cfg.Database.Path)
	assert.True(t, cfg.Booking.EnforceWindow)
	assert.Equal(t, models.DefaultDailyCapacity, cfg.Booking.DailyCapacity)
	assert.Equal(t, models.DefaultWindowWeeks, cfg.Booking.WindowWeeks)
	assert.Equal(t, models.DefaultDeviceInfo, cfg.Booking.DefaultDeviceInfo)
	assert.Equal(t, 90, cfg.Booking.DeviceInfoMaxLen)
	assert.Equal(t, 10, cfg.Booking.ActivityDefaultLimit)
	assert.Equal(t, 100, cfg.Booking.ActivityMaxLimit)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.False(t, cfg.API.Auth.Enabled)
	assert.Equal(t, []string{"*"}, cfg.API.CORS.AllowedOrigins)

	require.Len(t, cfg.Members, 2)
	assert.Equal(t, "Alice", cfg.Members[0].Name)
	require.NotNil(t, cfg.Members[0].Email)
	assert.Equal(t, "alice@example.com", *cfg.Members[0].Email)
	assert.Nil(t, cfg.Members[1].Email)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		cfg := *Defaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "missing sqlite path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "pgx without dsn", mutate: func(c *Config) { c.Database.Driver = DriverPostgres }, wantErr: true},
		{
			name: "pgx with dsn",
			mutate: func(c *Config) {
				c.Database.Driver = DriverPostgres
				c.Database.DSN = "postgres://localhost/slotbook"
			},
		},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "zero capacity", mutate: func(c *Config) { c.Booking.DailyCapacity = -1 }, wantErr: true},
		{
			name: "activity default above max",
			mutate: func(c *Config) {
				c.Booking.ActivityDefaultLimit = 200
			},
			wantErr: true,
		},
		{
			name: "bad rate limit window",
			mutate: func(c *Config) {
				c.API.RateLimit.Enabled = true
				c.API.RateLimit.Window = "soon"
			},
			wantErr: true,
		},
		{
			name: "auth without keys",
			mutate: func(c *Config) {
				c.API.Auth.Enabled = true
			},
			wantErr: true,
		},
		{
			name: "duplicate member",
			mutate: func(c *Config) {
				c.Members = []models.Member{{Name: "Alice"}, {Name: "Alice"}}
			},
			wantErr: true,
		},
		{
			name: "blank member",
			mutate: func(c *Config) {
				c.Members = []models.Member{{Name: "  "}}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAppLocation(t *testing.T) {
	assert.Equal(t, "UTC", AppConfig{Timezone: "UTC"}.Location().String())
	assert.NotNil(t, AppConfig{Timezone: "Not/AZone"}.Location())
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "slotbook", cfg.App.Name)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 6, cfg.Booking.DailyCapacity)
	assert.False(t, cfg.Booking.EnforceWindow)
	assert.Len(t, cfg.Members, 7)
}
