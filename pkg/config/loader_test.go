package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/beacon/pkg/config"
)

type nodeConfig struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"1099"`
	DeliveryTimeout time.Duration `env:"DELIVERY_TIMEOUT" envDefault:"2s"`
	Sources         []string      `env:"SOURCES" envSeparator:","`
}

type requiredConfig struct {
	Name string `env:"NAME,required"`
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg nodeConfig
		require.NoError(t, config.Load(&cfg, config.WithEnviron(map[string]string{})))
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 1099, cfg.Port)
		assert.Equal(t, 2*time.Second, cfg.DeliveryTimeout)
		assert.Empty(t, cfg.Sources)
	})

	t.Run("prefixed values", func(t *testing.T) {
		var cfg nodeConfig
		err := config.Load(&cfg,
			config.WithPrefix("BEACON_"),
			config.WithEnviron(map[string]string{
				"BEACON_HOST":    "10.0.0.5",
				"BEACON_PORT":    "2000",
				"BEACON_SOURCES": "Clock,Weather",
				"PORT":           "1",
			}),
		)
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.5", cfg.Host)
		assert.Equal(t, 2000, cfg.Port)
		assert.Equal(t, []string{"Clock", "Weather"}, cfg.Sources)
	})

	t.Run("process environment", func(t *testing.T) {
		t.Setenv("BEACON_TEST_PORT", "4321")
		var cfg nodeConfig
		require.NoError(t, config.Load(&cfg, config.WithPrefix("BEACON_TEST_")))
		assert.Equal(t, 4321, cfg.Port)
	})

	t.Run("missing required", func(t *testing.T) {
		var cfg requiredConfig
		err := config.Load(&cfg, config.WithEnviron(map[string]string{}))
		require.Error(t, err)
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("nil pointer", func(t *testing.T) {
		assert.ErrorIs(t, config.Load[nodeConfig](nil), config.ErrNilPointer)
	})
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env.beacon")
	require.NoError(t, os.WriteFile(path, []byte("BEACON_FILE_HOST=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("BEACON_FILE_HOST") })

	var cfg nodeConfig
	require.NoError(t, config.Load(&cfg, config.WithPrefix("BEACON_FILE_"), config.WithEnvFiles(path)))
	assert.Equal(t, "from-file", cfg.Host)

	err := config.Load(&cfg, config.WithEnvFiles(filepath.Join(dir, "missing.env")))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}

func TestMustLoad(t *testing.T) {
	assert.Panics(t, func() {
		var cfg requiredConfig
		config.MustLoad(&cfg, config.WithEnviron(map[string]string{}))
	})
	assert.NotPanics(t, func() {
		var cfg nodeConfig
		config.MustLoad(&cfg, config.WithEnviron(map[string]string{}))
	})
}
