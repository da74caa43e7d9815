package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"GEMINI_API_KEY", "GEMINI_MODEL", "DATABASE_URL", "HTTP_PORT",
		"LOG_LEVEL", "STATIC_DIR", "ALLOWED_ORIGINS",
	} {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func TestLoadSettings_MissingFile(t *testing.T) {
	settings, err := loadSettings(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, settings.Gemini.Model)
}

func TestLoadSettings_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gemini: [unclosed"), 0644))

	_, err := loadSettings(path)
	assert.Error(t, err)
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SETTINGS_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, defaultGeminiModel, cfg.GeminiModel)
	assert.Equal(t, defaultDatabaseURL, cfg.DatabaseURL)
	assert.Equal(t, defaultHTTPPort, cfg.HTTPPort)
	assert.Equal(t, defaultAllowedOrigins, cfg.AllowedOrigins)
	assert.False(t, cfg.GeminiConfigured())
	assert.False(t, cfg.Debug())
}

func TestLoadConfig_SettingsFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := []byte(`
gemini:
  model: gemini-1.5-pro
server:
  port: "9000"
cors:
  allowed_origins:
    - https://devcore.example
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	t.Setenv("SETTINGS_FILE", path)
	t.Setenv("HTTP_PORT", "7000")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "gemini-1.5-pro", cfg.GeminiModel)
	assert.Equal(t, "7000", cfg.HTTPPort)
	assert.Equal(t, []string{"https://devcore.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.GeminiConfigured())
	assert.True(t, cfg.Debug())
}

func TestLoadConfig_AllowedOriginsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SETTINGS_FILE", "")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}
