// Package config provides centralized configuration for the lexdraft server.
// Values come from built-in defaults, then an optional YAML or TOML file named
// by CONFIG_FILE, then environment variables. Later sources win.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/yangwenmai/lexdraft/internal/engine"
	"github.com/yangwenmai/lexdraft/internal/model"
)

// Config holds all server configuration values.
type Config struct {
	// Port is the HTTP server listen port.
	Port string `yaml:"port" toml:"port"`

	// DBPath is the path to the SQLite activity database.
	DBPath string `yaml:"db_path" toml:"db_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// PrimaryBackend and FallbackBackend are backend ids such as
	// "gemini-2.5-flash" or "openai:gpt-4o-mini". They are fixed for the
	// lifetime of the process.
	PrimaryBackend  string `yaml:"primary_backend" toml:"primary_backend"`
	FallbackBackend string `yaml:"fallback_backend" toml:"fallback_backend"`

	GeminiKey     string `yaml:"gemini_api_key" toml:"gemini_api_key"`
	OpenAIKey     string `yaml:"openai_api_key" toml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url" toml:"openai_base_url"`
	AnthropicKey  string `yaml:"anthropic_api_key" toml:"anthropic_api_key"`
	OllamaURL     string `yaml:"ollama_url" toml:"ollama_url"`

	// HTTPTimeout bounds a single outgoing call (backend or extraction).
	HTTPTimeout time.Duration `yaml:"http_timeout" toml:"http_timeout"`

	// RequestTimeout bounds one inbound API request, backoff included.
	RequestTimeout time.Duration `yaml:"request_timeout" toml:"request_timeout"`

	// MaxRetryDelay is the longest server-hinted wait honoured before the
	// primary retry. Never above engine.MaxRetryDelay.
	MaxRetryDelay time.Duration `yaml:"max_retry_delay" toml:"max_retry_delay"`

	// BackendRPS and BackendBurst configure the per-provider client-side
	// limiter. Zero RPS disables it.
	BackendRPS   float64 `yaml:"backend_rps" toml:"backend_rps"`
	BackendBurst int     `yaml:"backend_burst" toml:"backend_burst"`

	// AuditBuffer is how many activities may queue for the store.
	AuditBuffer int `yaml:"audit_buffer" toml:"audit_buffer"`

	// MaxTextLength is the maximum number of runes kept from an extracted URL.
	MaxTextLength int `yaml:"max_text_length" toml:"max_text_length"`

	// CORSOrigin is the allowed CORS origin. Defaults to "*".
	CORSOrigin string `yaml:"cors_origin" toml:"cors_origin"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:            "8080",
		DBPath:          "lexdraft.db",
		LogLevel:        "info",
		PrimaryBackend:  "gemini-2.5-flash",
		FallbackBackend: "gemini-2.0-flash",
		OpenAIBaseURL:   "https://api.openai.com/v1",
		OllamaURL:       "http://localhost:11434",
		HTTPTimeout:     60 * time.Second,
		RequestTimeout:  3 * time.Minute,
		MaxRetryDelay:   engine.MaxRetryDelay,
		BackendRPS:      2,
		BackendBurst:    4,
		AuditBuffer:     64,
		MaxTextLength:   15000,
		CORSOrigin:      "*",
	}
}

// Load reads .env.local if present, then layers CONFIG_FILE and environment
// variables over the defaults. It does not validate; call Validate.
func Load() (Config, error) {
	loadEnvFile(".env.local")

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.DBPath = envOr("DB_PATH", cfg.DBPath)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.PrimaryBackend = envOr("PRIMARY_BACKEND", cfg.PrimaryBackend)
	cfg.FallbackBackend = envOr("FALLBACK_BACKEND", cfg.FallbackBackend)
	cfg.GeminiKey = envOr("GEMINI_API_KEY", cfg.GeminiKey)
	cfg.OpenAIKey = envOr("OPENAI_API_KEY", cfg.OpenAIKey)
	cfg.OpenAIBaseURL = envOr("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
	cfg.AnthropicKey = envOr("ANTHROPIC_API_KEY", cfg.AnthropicKey)
	cfg.OllamaURL = envOr("OLLAMA_URL", cfg.OllamaURL)
	cfg.HTTPTimeout = envDuration("HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.RequestTimeout = envDuration("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.MaxRetryDelay = envDuration("MAX_RETRY_DELAY", cfg.MaxRetryDelay)
	cfg.BackendRPS = envFloat("BACKEND_RPS", cfg.BackendRPS)
	cfg.BackendBurst = envInt("BACKEND_BURST", cfg.BackendBurst)
	cfg.AuditBuffer = envInt("AUDIT_BUFFER", cfg.AuditBuffer)
	cfg.MaxTextLength = envInt("MAX_TEXT_LENGTH", cfg.MaxTextLength)
	cfg.CORSOrigin = envOr("CORS_ORIGIN", cfg.CORSOrigin)

	if cfg.MaxRetryDelay > engine.MaxRetryDelay {
		cfg.MaxRetryDelay = engine.MaxRetryDelay
	}
	return cfg, nil
}

// loadFile decodes a YAML or TOML file over cfg. Keys absent from the file
// keep their current values.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("parse toml config %s: %w", path, err)
		}
	default:
		return &model.ConfigurationError{Field: "CONFIG_FILE", Reason: "unsupported extension " + filepath.Ext(path)}
	}
	return nil
}

// Validate reports the first setting that would make the server unusable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Port) == "" {
		return &model.ConfigurationError{Field: "PORT", Reason: "must not be empty"}
	}
	if c.RequestTimeout <= 0 {
		return &model.ConfigurationError{Field: "REQUEST_TIMEOUT", Reason: "must be positive"}
	}
	for _, b := range []struct{ field, id string }{
		{"PRIMARY_BACKEND", c.PrimaryBackend},
		{"FALLBACK_BACKEND", c.FallbackBackend},
	} {
		if strings.TrimSpace(b.id) == "" {
			return &model.ConfigurationError{Field: b.field, Reason: "must not be empty"}
		}
		provider, _, err := engine.ResolveBackend(b.id)
		if err != nil {
			return &model.ConfigurationError{Field: b.field, Reason: err.Error()}
		}
		if key := c.credentialFor(provider); key != "" {
			return &model.ConfigurationError{Field: key, Reason: "required by " + b.field + " " + b.id}
		}
	}
	return nil
}

// credentialFor returns the name of the missing setting the provider needs,
// or "" when it is satisfied.
func (c Config) credentialFor(provider string) string {
	switch provider {
	case engine.ProviderGemini:
		if c.GeminiKey == "" {
			return "GEMINI_API_KEY"
		}
	case engine.ProviderOpenAI:
		if c.OpenAIKey == "" {
			return "OPENAI_API_KEY"
		}
	case engine.ProviderClaude:
		if c.AnthropicKey == "" {
			return "ANTHROPIC_API_KEY"
		}
	case engine.ProviderOllama:
		if c.OllamaURL == "" {
			return "OLLAMA_URL"
		}
	}
	return ""
}

// UseStubs returns true when no hosted provider key is configured and neither
// backend targets a keyless provider.
func (c Config) UseStubs() bool {
	if c.GeminiKey != "" || c.OpenAIKey != "" || c.AnthropicKey != "" {
		return false
	}
	for _, id := range []string{c.PrimaryBackend, c.FallbackBackend} {
		if p, _, err := engine.ResolveBackend(id); err == nil && (p == engine.ProviderOllama || p == engine.ProviderStub) {
			return false
		}
	}
	return true
}

// WithStubBackends returns a copy of c whose backends are the offline stub.
func (c Config) WithStubBackends() Config {
	c.PrimaryBackend = engine.ProviderStub + ":primary"
	c.FallbackBackend = engine.ProviderStub + ":fallback"
	return c
}

// SlogLevel maps LogLevel onto a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// loadEnvFile reads KEY=VALUE lines from path into the process environment.
// Variables that are already set are left alone. A missing file is ignored.
func loadEnvFile(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		val = strings.TrimSpace(val)
		if len(val) >= 2 && (val[0] == '"' || val[0] == '\'') && val[len(val)-1] == val[0] {
			val = val[1 : len(val)-1]
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		os.Setenv(key, val)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
