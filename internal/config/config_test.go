package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_PATH", "BROWSER_DRIVER", "HEADLESS", "OUTPUT_PATH", "FALLBACK_ESTIMATES",
		"LOG_LEVEL", "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "GITHUB_ACTIONS",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "data/data.json", cfg.OutputPath)
	assert.Equal(t, DriverPlaywright, cfg.Browser.Driver)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 15*time.Second, cfg.Browser.ElementTimeout)
	assert.Equal(t, 30, cfg.Listings.MaxListings)
	assert.False(t, cfg.FallbackEstimates)
	assert.False(t, cfg.NotificationsEnabled())
}

func TestLoadYAMLAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
job_title: Data Analyst
output_path: out/data.json
fallback_estimates: false
browser:
  driver: playwright
  headless: false
  navigation_timeout: 20s
  element_timeout: 5s
  min_delay: 0s
  max_delay: 1s
listings:
  max_listings: 10
  open_details: false
`)
	t.Setenv("BROWSER_DRIVER", "chromedp")
	t.Setenv("FALLBACK_ESTIMATES", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("GITHUB_ACTIONS", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "out/data.json", cfg.OutputPath)
	assert.Equal(t, DriverChromedp, cfg.Browser.Driver)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 20*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 5*time.Second, cfg.Browser.ElementTimeout)
	assert.Equal(t, time.Second, cfg.Browser.MaxDelay)
	assert.Equal(t, 10, cfg.Listings.MaxListings)
	assert.False(t, cfg.Listings.OpenDetails)
	assert.True(t, cfg.FallbackEstimates)
	assert.True(t, cfg.CI)
	assert.True(t, cfg.NotificationsEnabled())
	assert.Equal(t, int64(42), cfg.TelegramChatID)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "unknown driver", yaml: "browser:\n  driver: selenium\n"},
		{name: "inverted delay", yaml: "browser:\n  min_delay: 5s\n  max_delay: 1s\n"},
		{name: "bad headless env", env: map[string]string{"HEADLESS": "maybe"}},
		{name: "token without chat", env: map[string]string{"TELEGRAM_BOT_TOKEN": "x"}},
		{name: "broken yaml", yaml: "browser: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeFile(t, "config.yaml", tt.yaml)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
