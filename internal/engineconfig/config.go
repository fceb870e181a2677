// Package engineconfig loads process configuration for the sync engine:
// defaults, an optional YAML file, then environment variable overrides,
// in that precedence order — the same layering the teacher applies to its
// own viper-backed config readers (internal/labelmutex.ParseMutexGroups).
package engineconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SYNCENGINE"

// Config holds every tunable the engine's components (C1-C12) read at
// startup. Nothing here is re-read mid-process; a restart is required to
// pick up changes.
type Config struct {
	// DBPath is the local SQLite database file (C1).
	DBPath string `mapstructure:"db_path"`
	// MediaDir is loaded from config but not read by any component; staged
	// media (C6) is kept as rows in the local SQLite store.
	MediaDir string `mapstructure:"media_dir"`

	// MaxRetries is the operation queue's abandonment ceiling (§4.3).
	MaxRetries int `mapstructure:"max_retries"`
	// BackoffBase is the first retry delay; BackoffCeiling caps growth.
	BackoffBase    time.Duration `mapstructure:"backoff_base"`
	BackoffCeiling time.Duration `mapstructure:"backoff_ceiling"`

	// MediaQuotaBytes is the local media storage ceiling (§4.6).
	MediaQuotaBytes int64 `mapstructure:"media_quota_bytes"`

	// RemoteDSN is the go-sql-driver/mysql DSN for the remote relational
	// store the engine syncs against (C9).
	RemoteDSN string `mapstructure:"remote_dsn"`
	// AuthBaseURL is the identity/session service base URL (C10).
	AuthBaseURL string `mapstructure:"auth_base_url"`

	// SchemaVersion is the local store's expected migration level. It is
	// loaded from config only; sqlite.New does not compare it against the
	// database and applies every migration it knows.
	SchemaVersion int `mapstructure:"schema_version"`

	// NetworkCheckTimeout bounds a single reachability probe (C8).
	NetworkCheckTimeout time.Duration `mapstructure:"network_check_timeout"`
}

func defaults() Config {
	return Config{
		DBPath:              "syncengine.db",
		MediaDir:            "media",
		MaxRetries:          5,
		BackoffBase:         2 * time.Second,
		BackoffCeiling:      60 * time.Second,
		MediaQuotaBytes:     500 * 1024 * 1024,
		RemoteDSN:           "",
		AuthBaseURL:         "",
		SchemaVersion:       1,
		NetworkCheckTimeout: 5 * time.Second,
	}
}

// Load reads defaults, then path (if non-empty and present), then
// SYNCENGINE_* environment variables, highest precedence last.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	cfg := defaults()
	for key, val := range map[string]any{
		"db_path":               cfg.DBPath,
		"media_dir":             cfg.MediaDir,
		"max_retries":           cfg.MaxRetries,
		"backoff_base":          cfg.BackoffBase,
		"backoff_ceiling":       cfg.BackoffCeiling,
		"media_quota_bytes":     cfg.MediaQuotaBytes,
		"remote_dsn":            cfg.RemoteDSN,
		"auth_base_url":         cfg.AuthBaseURL,
		"schema_version":        cfg.SchemaVersion,
		"network_check_timeout": cfg.NetworkCheckTimeout,
	} {
		v.SetDefault(key, val)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !isNotFound(err) {
				return nil, fmt.Errorf("reading engine config %s: %w", path, err)
			}
		}
	}

	var out Config
	if err := v.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("parsing engine config: %w", err)
	}
	return &out, nil
}

func isNotFound(err error) bool {
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}
	_, ok := err.(viper.ConfigFileNotFoundError)
	return ok
}
