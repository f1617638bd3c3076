package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/genui/internal/config"
	"github.com/aretw0/genui/pkg/adapters/openai"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, openai.DefaultBaseURL, cfg.Model.BaseURL)
	assert.Equal(t, "gemini-2.0-flash", cfg.Model.Model)
	assert.Empty(t, cfg.Model.APIKey)
	assert.Equal(t, 5, cfg.Runtime.MaxToolDepth)
	assert.Equal(t, 300*time.Millisecond, cfg.Runtime.DebounceDelay)
	assert.Equal(t, time.Minute, cfg.Runtime.ToolCacheTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genui.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model:
  model: gpt-4o-mini
  base_url: https://api.openai.com/v1/
runtime:
  max_tool_depth: 3
  debounce_delay: 50ms
user:
  role: admin
  device: mobile
  theme: light
gallery_dir: examples/gallery
`), 0o600))

	t.Setenv(config.EnvModel, "gemini-2.5-pro")
	t.Setenv(config.EnvAPIKey, "sk-env")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model.Model, "environment wins over the file")
	assert.Equal(t, "https://api.openai.com/v1/", cfg.Model.BaseURL)
	assert.Equal(t, "sk-env", cfg.Model.APIKey)
	assert.Equal(t, 3, cfg.Runtime.MaxToolDepth)
	assert.Equal(t, 50*time.Millisecond, cfg.Runtime.DebounceDelay)
	assert.Equal(t, time.Minute, cfg.Runtime.ToolCacheTTL, "unset fields keep defaults")
	assert.Equal(t, "mobile", cfg.User.Device)
	assert.Equal(t, "examples/gallery", cfg.GalleryDir)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Run("default path may be absent", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, err := config.Load("")
		require.NoError(t, err)
		assert.Equal(t, config.Default().Model, cfg.Model)
	})

	t.Run("explicit path must exist", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genui.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runtime:\n  max_tool_depth: 0\nlog_format: xml\n"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_tool_depth")
	assert.Contains(t, err.Error(), "log_format")
}

func TestApplyEnv(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.ApplyEnv(env(map[string]string{
		config.EnvBaseURL:   "http://localhost:11434/v1/",
		config.EnvRedisAddr: "localhost:6379",
		config.EnvModel:     "",
		"GENUI_PORT":        "9090",
	})))
	assert.Equal(t, "http://localhost:11434/v1/", cfg.Model.BaseURL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, openai.DefaultModel, cfg.Model.Model, "empty values do not clear the model")
	assert.Equal(t, 9090, cfg.Server.Port)

	assert.Error(t, cfg.ApplyEnv(env(map[string]string{"GENUI_PORT": "http"})))
}
