package engineconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// envSnapshot saves and clears SYNCENGINE_ environment variables, returning
// a restore func to defer.
func envSnapshot(t *testing.T) func() {
	t.Helper()
	saved := make(map[string]string)
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, envPrefix+"_") {
			parts := strings.SplitN(env, "=", 2)
			saved[parts[0]] = os.Getenv(parts[0])
			os.Unsetenv(parts[0])
		}
	}
	return func() {
		for _, env := range os.Environ() {
			if strings.HasPrefix(env, envPrefix+"_") {
				os.Unsetenv(strings.SplitN(env, "=", 2)[0])
			}
		}
		for k, v := range saved {
			os.Setenv(k, v)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	defer envSnapshot(t)()

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 5, cfg.MaxRetries)
	require.Equal(t, 2*time.Second, cfg.BackoffBase)
	require.Equal(t, 60*time.Second, cfg.BackoffCeiling)
	require.Equal(t, int64(500*1024*1024), cfg.MediaQuotaBytes)
	require.Equal(t, 1, cfg.SchemaVersion)
}

func TestLoadEnvOverride(t *testing.T) {
	defer envSnapshot(t)()

	os.Setenv("SYNCENGINE_MAX_RETRIES", "9")
	os.Setenv("SYNCENGINE_REMOTE_DSN", "user:pass@tcp(127.0.0.1:3306)/kiln")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 9, cfg.MaxRetries)
	require.Equal(t, "user:pass@tcp(127.0.0.1:3306)/kiln", cfg.RemoteDSN)
}

func TestLoadYAMLFile(t *testing.T) {
	defer envSnapshot(t)()

	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_retries: 3\nmedia_quota_bytes: 1024\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.MaxRetries)
	require.Equal(t, int64(1024), cfg.MediaQuotaBytes)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	defer envSnapshot(t)()

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, defaults().MaxRetries, cfg.MaxRetries)
}

func TestEnvOverridesFile(t *testing.T) {
	defer envSnapshot(t)()

	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_retries: 3\n"), 0o600))
	os.Setenv("SYNCENGINE_MAX_RETRIES", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.MaxRetries)
}
