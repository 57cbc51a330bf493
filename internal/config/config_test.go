package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	assert.Equal(t, 1.0, cfg.Optimization.DefaultInitialStep)
	assert.Equal(t, 0.5, cfg.Optimization.DefaultStepDecay)
	assert.Equal(t, 1.2, cfg.Optimization.DefaultStepIncrease)
	assert.Equal(t, 1e-6, cfg.Optimization.DefaultTolerance)
	assert.Equal(t, 100000, cfg.Optimization.MaxIterationsCap)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OPT_DEFAULT_TOLERANCE", "1e-4")
	t.Setenv("OPT_MAX_ITERATIONS_CAP", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 1e-4, cfg.Optimization.DefaultTolerance)
	assert.Equal(t, 500, cfg.Optimization.MaxIterationsCap)
}
