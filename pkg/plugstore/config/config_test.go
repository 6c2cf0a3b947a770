package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/plugstore/pkg/plugstore/config"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "plugins", cfg.CacheDir)
	assert.Equal(t, "plugins/_work", cfg.WorkDir)
	assert.Equal(t, -1, cfg.Retry.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.Interval.Std())
	assert.False(t, cfg.KeepOldOnPublish)
	assert.NoError(t, cfg.Validate())
}

func TestFromYAML(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		cfg, err := config.FromYAML([]byte(`
cache_dir: /var/lib/analyzer/plugins
work_dir: /var/lib/analyzer/plugins/_work
index_path: /var/lib/analyzer/plugin_index.db
keep_old_on_publish: true
retry:
  max_retries: 20
  interval: 250ms
`))
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/analyzer/plugins", cfg.CacheDir)
		assert.Equal(t, "/var/lib/analyzer/plugin_index.db", cfg.IndexPath)
		assert.True(t, cfg.KeepOldOnPublish)
		assert.Equal(t, 20, cfg.Retry.MaxRetries)
		assert.Equal(t, 250*time.Millisecond, cfg.Retry.Interval.Std())
	})

	t.Run("missing settings keep defaults", func(t *testing.T) {
		cfg, err := config.FromYAML([]byte(`cache_dir: /opt/plugins`))
		require.NoError(t, err)
		assert.Equal(t, "/opt/plugins", cfg.CacheDir)
		assert.Equal(t, "plugins/_work", cfg.WorkDir)
		assert.Equal(t, 100*time.Millisecond, cfg.Retry.Interval.Std())
	})

	t.Run("numeric interval means seconds", func(t *testing.T) {
		cfg, err := config.FromYAML([]byte("retry:\n  interval: 2\n"))
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, cfg.Retry.Interval.Std())
	})

	t.Run("invalid duration string", func(t *testing.T) {
		_, err := config.FromYAML([]byte("retry:\n  interval: soon\n"))
		assert.Error(t, err)
	})

	t.Run("empty cache_dir is rejected", func(t *testing.T) {
		_, err := config.FromYAML([]byte(`cache_dir: ""`))
		assert.Error(t, err)
	})
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{
		"cache_dir": "/opt/plugins",
		"retry": {"max_retries": 5, "interval": "50ms"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, "/opt/plugins", cfg.CacheDir)
	assert.Equal(t, 5, cfg.Retry.MaxRetries)
	assert.Equal(t, 50*time.Millisecond, cfg.Retry.Interval.Std())
}

func TestFromFile(t *testing.T) {
	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store.yaml")
		require.NoError(t, os.WriteFile(path, []byte("cache_dir: /opt/plugins\n"), 0o644))

		cfg, err := config.FromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "/opt/plugins", cfg.CacheDir)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "store.toml")
		require.NoError(t, os.WriteFile(path, []byte(""), 0o644))

		_, err := config.FromFile(path)
		assert.ErrorContains(t, err, "unsupported config file extension")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.FromFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}
