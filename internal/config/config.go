// Package config loads the CLI configuration: defaults, then an optional
// YAML file, then GENUI_* environment variables. Flags are applied last by
// the commands themselves.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/genui/pkg/adapters/openai"
	"github.com/aretw0/genui/pkg/domain"
)

// DefaultFile is read when no path is given. Its absence is not an error.
const DefaultFile = "genui.yaml"

const (
	EnvBaseURL   = "GENUI_BASE_URL"
	EnvAPIKey    = "GENUI_API_KEY"
	EnvModel     = "GENUI_MODEL"
	EnvRedisAddr = "GENUI_REDIS_ADDR"
	EnvStoreKey  = "GENUI_STORE_KEY"
)

type Config struct {
	Model   ModelConfig        `yaml:"model"`
	Redis   RedisConfig        `yaml:"redis"`
	Server  ServerConfig       `yaml:"server"`
	Runtime RuntimeConfig      `yaml:"runtime"`
	Store   StoreConfig        `yaml:"store"`
	User    domain.UserContext `yaml:"user"`

	// ToolsFile lists process tools; see the process adapter.
	ToolsFile string `yaml:"tools_file"`
	// GalleryDir holds example documents used as few-shot examples.
	GalleryDir string `yaml:"gallery_dir"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type ModelConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// RedisConfig enables the shared tool cache, the distributed locker and the
// conversation store when Addr is set.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// StoreConfig protects stored conversations. Keys are base64 encoded
// 32-byte AES keys.
type StoreConfig struct {
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
	// MaskPatterns are regular expressions; matching property keys are
	// masked in stored trees. Password input values are masked whenever
	// Enabled reports true.
	MaskPatterns []string `yaml:"mask_patterns"`
}

// Enabled reports whether stored conversations need a middleware.
func (s StoreConfig) Enabled() bool {
	return s.EncryptionKey != "" || len(s.MaskPatterns) > 0
}

type ServerConfig struct {
	Port    int  `yaml:"port"`
	MCPPort int  `yaml:"mcp_port"`
	Metrics bool `yaml:"metrics"`
}

type RuntimeConfig struct {
	MaxToolDepth  int           `yaml:"max_tool_depth"`
	DebounceDelay time.Duration `yaml:"debounce_delay"`
	ToolCacheTTL  time.Duration `yaml:"tool_cache_ttl"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model: ModelConfig{
			BaseURL:     openai.DefaultBaseURL,
			Model:       openai.DefaultModel,
			Temperature: openai.DefaultTemperature,
		},
		Redis:  RedisConfig{Prefix: "genui:", TTL: 24 * time.Hour},
		Server: ServerConfig{Port: 8080, MCPPort: 8081, Metrics: true},
		Runtime: RuntimeConfig{
			MaxToolDepth:  5,
			DebounceDelay: 300 * time.Millisecond,
			ToolCacheTTL:  60 * time.Second,
		},
		User:      domain.DefaultUserContext(),
		ToolsFile: "tools.yaml",
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads path over the defaults and applies the environment. An empty
// path means DefaultFile, which may be absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv
// outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.Model.BaseURL = v
	}
	if v, ok := lookup(EnvAPIKey); ok {
		c.Model.APIKey = v
	}
	if v, ok := lookup(EnvModel); ok && v != "" {
		c.Model.Model = v
	}
	if v, ok := lookup(EnvRedisAddr); ok {
		c.Redis.Addr = v
	}
	if v, ok := lookup(EnvStoreKey); ok && v != "" {
		c.Store.EncryptionKey = v
	}
	if v, ok := lookup("GENUI_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("GENUI_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate rejects values the runtime cannot use.
func (c Config) Validate() error {
	var errs []error
	if c.Runtime.MaxToolDepth < 1 {
		errs = append(errs, fmt.Errorf("runtime.max_tool_depth must be at least 1, got %d", c.Runtime.MaxToolDepth))
	}
	if c.Runtime.DebounceDelay < 0 {
		errs = append(errs, errors.New("runtime.debounce_delay must not be negative"))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
