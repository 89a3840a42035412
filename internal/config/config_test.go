package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, int64(5<<20), cfg.Store.QuotaBytes)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "TechDoc/1.0", cfg.Geocode.UserAgent)
	assert.Equal(t, "Western Australia, Australia", cfg.Geocode.Region)
	assert.False(t, cfg.Auth.Enabled)
}

func TestLoad_Layering(t *testing.T) {
	yamlPath := writeFile(t, "techdoc.yaml", `
store:
  driver: bolt
  path: /var/lib/techdoc/store.bolt
server:
  port: 9000
  read_timeout: 5s
logging:
  level: debug
`)
	envPath := writeFile(t, ".env", "TECHDOC_LOG_FORMAT=json\n")
	t.Setenv("TECHDOC_SERVER_PORT", "9100")
	t.Cleanup(func() { os.Unsetenv("TECHDOC_LOG_FORMAT") })

	cfg, err := Load(yamlPath, envPath)
	require.NoError(t, err)

	assert.Equal(t, DriverBolt, cfg.Store.Driver)
	assert.Equal(t, "/var/lib/techdoc/store.bolt", cfg.Store.Path)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout, "unset fields keep their default")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format, ".env values reach the environment")
	assert.Equal(t, 9100, cfg.Server.Port, "environment overrides the file")
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "redis" }, wantErr: true},
		{name: "empty path", mutate: func(c *Config) { c.Store.Path = "" }, wantErr: true},
		{name: "negative quota", mutate: func(c *Config) { c.Store.QuotaBytes = -1 }, wantErr: true},
		{name: "port too low", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "port too high", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "zero cache ttl", mutate: func(c *Config) { c.Geocode.CacheTTL = 0 }, wantErr: true},
		{name: "auth without hash", mutate: func(c *Config) {
			c.Auth.Enabled = true
			c.Auth.JWTSecret = "0123456789abcdef"
		}, wantErr: true},
		{name: "auth with short secret", mutate: func(c *Config) {
			c.Auth.Enabled = true
			c.Auth.PasswordHash = "$2a$10$hash"
			c.Auth.JWTSecret = "short"
		}, wantErr: true},
		{name: "auth complete", mutate: func(c *Config) {
			c.Auth.Enabled = true
			c.Auth.PasswordHash = "$2a$10$hash"
			c.Auth.JWTSecret = "0123456789abcdef"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
