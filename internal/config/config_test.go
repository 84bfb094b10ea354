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

	assert.Equal(t, "dev", cfg.Logger.Env)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 60*time.Second, cfg.Browser.NavigateTimeout)
	assert.Equal(t, 10*time.Second, cfg.Browser.WidgetTimeout)
	assert.Equal(t, 15*time.Second, cfg.Browser.OutputTimeout)
	assert.Equal(t, "file://migrations", cfg.Migrations.Path)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("BROWSER_HEADLESS", "false")
	t.Setenv("BROWSER_NAVIGATE_TIMEOUT", "90s")
	t.Setenv("BROWSER_EXECUTABLE_PATH", "/usr/bin/chromium")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 90*time.Second, cfg.Browser.NavigateTimeout)
	assert.Equal(t, "/usr/bin/chromium", cfg.Browser.ExecutablePath)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "42")
	assert.Equal(t, 42, envInt("X_INT", 7))
	assert.Equal(t, 7, envInt("X_INT_MISSING", 7))

	t.Setenv("X_DUR", "250ms")
	assert.Equal(t, 250*time.Millisecond, envDuration("X_DUR", time.Second))
	assert.Equal(t, time.Second, envDuration("X_DUR_BROKEN_MISSING", time.Second))

	t.Setenv("X_BOOL", "yes")
	assert.True(t, envBoolDefault("X_BOOL", false))
	t.Setenv("X_BOOL", "off")
	assert.False(t, envBoolDefault("X_BOOL", true))
}
