package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "k8Zq2LmP9xRt4VwY7nBc3HsJ6dFg1QaE"

func setEnv(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr string
		check   func(*testing.T, *Config)
	}{
		{
			name: "postgres defaults",
			envVars: map[string]string{
				envDBPassword: "pw",
				envJWTSecret:  testSecret,
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "8080", cfg.Server.Port)
				assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, 12, cfg.Auth.BcryptCost)
				assert.Equal(t, "user-service", cfg.Auth.Realm)
				assert.Equal(t, time.Hour, cfg.JWT.ExpiryDuration)
				assert.False(t, cfg.Admin.Enabled())
				assert.Equal(t, LogFormatJSON, cfg.Log.Format)
			},
		},
		{
			name: "sqlite with overrides",
			envVars: map[string]string{
				envStoreDriver:   "SQLite",
				envSQLitePath:    "/tmp/users.db",
				envJWTSecret:     testSecret,
				envJWTExpiry:     "15",
				envBcryptCost:    "4",
				envAdminUsername: "root",
				envAdminPassword: "changeme1",
				envLogFormat:     "console",
				envPort:          "9000",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, StoreDriverSQLite, cfg.Store.Driver)
				assert.Equal(t, "/tmp/users.db", cfg.SQLite.Path)
				assert.Equal(t, 15*time.Minute, cfg.JWT.ExpiryDuration)
				assert.Equal(t, 4, cfg.Auth.BcryptCost)
				assert.True(t, cfg.Admin.Enabled())
				assert.Equal(t, LogFormatConsole, cfg.Log.Format)
				assert.Equal(t, "9000", cfg.Server.Port)
			},
		},
		{
			name:    "postgres without password",
			envVars: map[string]string{envJWTSecret: testSecret},
			wantErr: envDBPassword,
		},
		{
			name:    "missing jwt secret",
			envVars: map[string]string{envDBPassword: "pw"},
			wantErr: envJWTSecret,
		},
		{
			name:    "short jwt secret",
			envVars: map[string]string{envDBPassword: "pw", envJWTSecret: "short"},
			wantErr: "at least",
		},
		{
			name:    "low entropy jwt secret",
			envVars: map[string]string{envDBPassword: "pw", envJWTSecret: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
			wantErr: "entropy",
		},
		{
			name:    "unknown store driver",
			envVars: map[string]string{envStoreDriver: "mongo", envJWTSecret: testSecret},
			wantErr: "STORE_DRIVER",
		},
		{
			name:    "bcrypt cost out of range",
			envVars: map[string]string{envDBPassword: "pw", envJWTSecret: testSecret, envBcryptCost: "40"},
			wantErr: "BCRYPT_COST",
		},
		{
			name:    "admin username without password",
			envVars: map[string]string{envDBPassword: "pw", envJWTSecret: testSecret, envAdminUsername: "root"},
			wantErr: "ADMIN_USERNAME",
		},
		{
			name:    "bad log format",
			envVars: map[string]string{envDBPassword: "pw", envJWTSecret: testSecret, envLogFormat: "xml"},
			wantErr: "LOG_FORMAT",
		},
		{
			name:    "zero rate limit",
			envVars: map[string]string{envDBPassword: "pw", envJWTSecret: testSecret, envRateLimitBurst: "0"},
			wantErr: envRateLimitBurst,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.envVars)

			cfg, err := Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, getDurationEnv("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "3")
	assert.Equal(t, 3*time.Minute, getDurationEnv("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, time.Second, getDurationEnv("TEST_DURATION", time.Second))
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=require", cfg.DSN())
}
