// Package config holds daemon configuration, resolved from defaults,
// SYNCD_* environment variables, and command-line flags in that order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Journal driver names accepted by JournalDriver.
const (
	JournalSQLite   = "sqlite"
	JournalPostgres = "postgres"
	JournalNone     = "none"
)

// Config controls one sync daemon instance.
type Config struct {
	// RepoPath is the working copy to keep synchronized.
	RepoPath string
	// Interval is the wall-clock period between sync attempts.
	Interval time.Duration
	// FetchTimeout bounds the fetch stage; zero disables the bound.
	FetchTimeout time.Duration
	// DetailedLogging mirrors console output to LogFile and raises verbosity.
	DetailedLogging bool
	// ErrorRecovery enables aborting in-progress merges/rebases found by the
	// health check. Untracked files are never cleaned regardless.
	ErrorRecovery bool
	// LogFile receives a plain-text copy of log output when DetailedLogging
	// is set.
	LogFile string

	// Backoff doubles the wait after consecutive failed cycles, capped at
	// MaxBackoff. Off by default: every cycle is an equally weighted attempt.
	Backoff    bool
	MaxBackoff time.Duration

	// HTTPAddr is the listen address of the read-only status API; empty
	// disables the server.
	HTTPAddr string

	// JournalDriver selects the attempt journal backend: sqlite, postgres,
	// or none. JournalDSN is the sqlite file path or postgres DSN.
	JournalDriver string
	JournalDSN    string
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		RepoPath:      ".",
		Interval:      10 * time.Minute,
		FetchTimeout:  2 * time.Minute,
		LogFile:       "sync_monitor.log",
		MaxBackoff:    time.Hour,
		HTTPAddr:      ":8044",
		JournalDriver: JournalSQLite,
		JournalDSN:    "syncd_journal.db",
	}
}

// BindEnv wires the SYNCD_* environment namespace into the given viper
// instance and seeds defaults, so flag values registered by the caller win
// over the environment and the environment wins over defaults.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix("SYNCD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	defaults := Defaults()
	v.SetDefault("repo", defaults.RepoPath)
	v.SetDefault("interval", defaults.Interval)
	v.SetDefault("fetch-timeout", defaults.FetchTimeout)
	v.SetDefault("detailed-logging", defaults.DetailedLogging)
	v.SetDefault("error-recovery", defaults.ErrorRecovery)
	v.SetDefault("log-file", defaults.LogFile)
	v.SetDefault("backoff", defaults.Backoff)
	v.SetDefault("max-backoff", defaults.MaxBackoff)
	v.SetDefault("http-addr", defaults.HTTPAddr)
	v.SetDefault("journal", defaults.JournalDriver)
	v.SetDefault("journal-dsn", defaults.JournalDSN)
}

// FromViper materializes a Config from resolved viper state.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		RepoPath:        v.GetString("repo"),
		Interval:        v.GetDuration("interval"),
		FetchTimeout:    v.GetDuration("fetch-timeout"),
		DetailedLogging: v.GetBool("detailed-logging"),
		ErrorRecovery:   v.GetBool("error-recovery"),
		LogFile:         v.GetString("log-file"),
		Backoff:         v.GetBool("backoff"),
		MaxBackoff:      v.GetDuration("max-backoff"),
		HTTPAddr:        v.GetString("http-addr"),
		JournalDriver:   v.GetString("journal"),
		JournalDSN:      v.GetString("journal-dsn"),
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the daemon cannot run with.
func (c Config) Validate() error {
	if c.RepoPath == "" {
		return fmt.Errorf("repo path is required")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout must not be negative, got %s", c.FetchTimeout)
	}
	if c.Backoff && c.MaxBackoff < c.Interval {
		return fmt.Errorf("max backoff %s must be at least the interval %s", c.MaxBackoff, c.Interval)
	}
	switch c.JournalDriver {
	case JournalSQLite, JournalPostgres, JournalNone:
	default:
		return fmt.Errorf("unknown journal driver %q", c.JournalDriver)
	}
	if c.JournalDriver != JournalNone && c.JournalDSN == "" {
		return fmt.Errorf("journal dsn is required for driver %q", c.JournalDriver)
	}
	return nil
}
