package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, Defaults().Validate())
}

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	BindEnv(v)

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.RepoPath)
	assert.Equal(t, 10*time.Minute, cfg.Interval)
	assert.Equal(t, 2*time.Minute, cfg.FetchTimeout)
	assert.False(t, cfg.DetailedLogging)
	assert.False(t, cfg.ErrorRecovery)
	assert.Equal(t, "sync_monitor.log", cfg.LogFile)
	assert.False(t, cfg.Backoff)
	assert.Equal(t, JournalSQLite, cfg.JournalDriver)
}

func TestFromViperEnvOverride(t *testing.T) {
	t.Setenv("SYNCD_INTERVAL", "90s")
	t.Setenv("SYNCD_ERROR_RECOVERY", "true")

	v := viper.New()
	BindEnv(v)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Interval)
	assert.True(t, cfg.ErrorRecovery)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "empty repo path",
			mutate:  func(c *Config) { c.RepoPath = "" },
			wantErr: "repo path is required",
		},
		{
			name:    "non-positive interval",
			mutate:  func(c *Config) { c.Interval = 0 },
			wantErr: "interval must be positive",
		},
		{
			name:    "negative fetch timeout",
			mutate:  func(c *Config) { c.FetchTimeout = -time.Second },
			wantErr: "fetch timeout must not be negative",
		},
		{
			name: "backoff cap below interval",
			mutate: func(c *Config) {
				c.Backoff = true
				c.MaxBackoff = time.Second
			},
			wantErr: "max backoff",
		},
		{
			name:    "unknown journal driver",
			mutate:  func(c *Config) { c.JournalDriver = "etcd" },
			wantErr: "unknown journal driver",
		},
		{
			name: "journal without dsn",
			mutate: func(c *Config) {
				c.JournalDriver = JournalPostgres
				c.JournalDSN = ""
			},
			wantErr: "journal dsn is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestZeroFetchTimeoutDisablesBound(t *testing.T) {
	cfg := Defaults()
	cfg.FetchTimeout = 0
	assert.NoError(t, cfg.Validate())
}
