// Package config loads desktop-pilot settings from built-in defaults, an
// optional YAML file, a .env file and the process environment, in that
// order. Later sources override earlier ones.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete runtime configuration.
type Config struct {
	Engine      EngineConfig      `yaml:"engine"`
	Coordinates CoordinatesConfig `yaml:"coordinates"`
	Backend     BackendConfig     `yaml:"backend"`
	Planner     PlannerConfig     `yaml:"planner"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// EngineConfig controls action execution.
type EngineConfig struct {
	ActionTimeout     time.Duration `yaml:"action_timeout"      env:"ACTION_TIMEOUT"`
	ActionDelay       time.Duration `yaml:"action_delay"        env:"ACTION_DELAY"`
	GracefulAbortWait time.Duration `yaml:"graceful_abort_wait" env:"GRACEFUL_ABORT_WAIT"`
	RetryAttempts     int           `yaml:"retry_attempts"      env:"ACTION_RETRY_ATTEMPTS"`
	RetryDelay        time.Duration `yaml:"retry_delay"         env:"ACTION_RETRY_DELAY"`
	StrictPlans       bool          `yaml:"strict_plans"        env:"STRICT_PLANS"`
	CriticalActions   []string      `yaml:"critical_actions"    env:"CRITICAL_ACTIONS" envSeparator:","`
	// FatalErrorKinds adds kinds that abort a run. connectivity_error
	// aborts regardless.
	FatalErrorKinds   []string      `yaml:"fatal_error_kinds"   env:"FATAL_ERROR_KINDS" envSeparator:","`
}

// CoordinatesConfig controls snapshot-to-device coordinate mapping.
type CoordinatesConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl" env:"COORDINATE_CACHE_TTL"`
	Disabled bool          `yaml:"disabled"  env:"COORDINATE_MAPPING_DISABLED"`
}

// BackendConfig describes how the engine reaches the automation endpoint.
// An empty Command starts this binary's own serve command.
type BackendConfig struct {
	Transport string   `yaml:"transport" env:"BACKEND_TRANSPORT"`
	Command   string   `yaml:"command"   env:"BACKEND_COMMAND"`
	Args      []string `yaml:"args"      env:"BACKEND_ARGS" envSeparator:" "`
	URL       string   `yaml:"url"       env:"BACKEND_URL"`
}

// PlannerConfig selects and configures the model that turns intents into plans.
type PlannerConfig struct {
	Provider  string          `yaml:"provider"  env:"PLANNER_PROVIDER"`
	Anthropic AnthropicConfig `yaml:"anthropic"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
}

// AnthropicConfig configures the Claude planner.
type AnthropicConfig struct {
	APIKey    string        `yaml:"api_key"    env:"ANTHROPIC_API_KEY"`
	Model     string        `yaml:"model"      env:"ANTHROPIC_MODEL"`
	BaseURL   string        `yaml:"base_url"   env:"ANTHROPIC_BASE_URL"`
	MaxTokens int           `yaml:"max_tokens" env:"ANTHROPIC_MAX_TOKENS"`
	Timeout   time.Duration `yaml:"timeout"    env:"ANTHROPIC_TIMEOUT"`
}

// OpenAIConfig configures the OpenAI planner.
type OpenAIConfig struct {
	APIKey    string `yaml:"api_key"    env:"OPENAI_API_KEY"`
	Model     string `yaml:"model"      env:"OPENAI_MODEL"`
	BaseURL   string `yaml:"base_url"   env:"OPENAI_BASE_URL"`
	MaxTokens int    `yaml:"max_tokens" env:"OPENAI_MAX_TOKENS"`
}

// ServerConfig configures the automation endpoint started by serve.
type ServerConfig struct {
	Transport string        `yaml:"transport" env:"SERVER_TRANSPORT"`
	Port      int           `yaml:"port"      env:"SERVER_PORT"`
	CacheTTL  time.Duration `yaml:"cache_ttl" env:"SERVER_CACHE_TTL"`
	DryRun    bool          `yaml:"dry_run"   env:"SERVER_DRY_RUN"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// TelemetryConfig configures OTLP trace export. Tracing is off when the
// endpoint is empty.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint"     env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"OTEL_SERVICE_NAME"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			ActionTimeout:     30 * time.Second,
			ActionDelay:       100 * time.Millisecond,
			GracefulAbortWait: 5 * time.Second,
			RetryAttempts:     0,
			RetryDelay:        500 * time.Millisecond,
			CriticalActions:   []string{"openApplication", "focusWindow"},
			FatalErrorKinds:   []string{"connectivity_error"},
		},
		Coordinates: CoordinatesConfig{
			CacheTTL: 5 * time.Minute,
		},
		Backend: BackendConfig{
			Transport: "stdio",
		},
		Planner: PlannerConfig{
			Provider: "anthropic",
			Anthropic: AnthropicConfig{
				MaxTokens: 4096,
				Timeout:   30 * time.Second,
			},
			OpenAI: OpenAIConfig{
				Model:     "gpt-4o",
				MaxTokens: 4096,
			},
		},
		Server: ServerConfig{
			Transport: "stdio",
			Port:      8080,
			CacheTTL:  500 * time.Millisecond,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "desktop-pilot",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/desktop-pilot/config.yaml, falling
// back to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "desktop-pilot", "config.yaml")
}

// Load builds the configuration. An explicit path must exist; the default
// path is read only when present. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		}
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ParseEnv overlays environment variables onto target. Fields whose
// variable is unset keep their current value.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

var (
	transports = map[string]bool{"stdio": true, "streamable-http": true}
	providers  = map[string]bool{"anthropic": true, "openai": true}
	logLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	logFormats = map[string]bool{"text": true, "json": true}
	errorKinds = map[string]bool{
		"invalid_action": true, "timeout": true, "backend_error": true,
		"connectivity_error": true, "canceled": true,
	}
)

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Engine.ActionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("engine.action_timeout must be positive, got %s", c.Engine.ActionTimeout))
	}
	if c.Engine.GracefulAbortWait <= 0 {
		errs = append(errs, fmt.Errorf("engine.graceful_abort_wait must be positive, got %s", c.Engine.GracefulAbortWait))
	}
	if c.Engine.RetryAttempts < 0 {
		errs = append(errs, fmt.Errorf("engine.retry_attempts must not be negative, got %d", c.Engine.RetryAttempts))
	}
	if c.Engine.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("engine.retry_delay must not be negative, got %s", c.Engine.RetryDelay))
	}
	for _, k := range c.Engine.FatalErrorKinds {
		if !errorKinds[strings.TrimSpace(k)] {
			errs = append(errs, fmt.Errorf("engine.fatal_error_kinds: unknown kind %q", k))
		}
	}
	if c.Coordinates.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("coordinates.cache_ttl must be positive, got %s", c.Coordinates.CacheTTL))
	}
	if !transports[c.Backend.Transport] {
		errs = append(errs, fmt.Errorf("backend.transport: unsupported %q (use stdio or streamable-http)", c.Backend.Transport))
	}
	if c.Backend.Transport == "streamable-http" && c.Backend.URL == "" {
		errs = append(errs, errors.New("backend.url is required for the streamable-http transport"))
	}
	if !providers[c.Planner.Provider] {
		errs = append(errs, fmt.Errorf("planner.provider: unsupported %q (use anthropic or openai)", c.Planner.Provider))
	}
	if c.Planner.Anthropic.MaxTokens <= 0 || c.Planner.OpenAI.MaxTokens <= 0 {
		errs = append(errs, errors.New("planner max_tokens must be positive"))
	}
	if !transports[c.Server.Transport] {
		errs = append(errs, fmt.Errorf("server.transport: unsupported %q (use stdio or streamable-http)", c.Server.Transport))
	}
	if c.Server.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("server.cache_ttl must not be negative, got %s", c.Server.CacheTTL))
	}
	if !logLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Errorf("log.level: unknown %q", c.Log.Level))
	}
	if !logFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, fmt.Errorf("log.format: unknown %q (use text or json)", c.Log.Format))
	}
	return errors.Join(errs...)
}
