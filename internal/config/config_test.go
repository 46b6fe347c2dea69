package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yangwenmai/lexdraft/internal/model"
)

var envKeys = []string{
	"CONFIG_FILE", "PORT", "DB_PATH", "LOG_LEVEL",
	"PRIMARY_BACKEND", "FALLBACK_BACKEND",
	"GEMINI_API_KEY", "OPENAI_API_KEY", "OPENAI_BASE_URL", "ANTHROPIC_API_KEY", "OLLAMA_URL",
	"HTTP_TIMEOUT", "REQUEST_TIMEOUT", "MAX_RETRY_DELAY",
	"BACKEND_RPS", "BACKEND_BURST", "AUDIT_BUFFER", "MAX_TEXT_LENGTH", "CORS_ORIGIN",
}

// clearEnv blanks every key Load reads; envOr treats empty as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env.local")

	content := `# comment line
FOO_TEST_KEY=hello
BAR_TEST_KEY="quoted value"
BAZ_TEST_KEY='single quoted'
export EXPORTED_TEST_KEY=yes

EMPTY_LINE_ABOVE=works
NO_VALUE_LINE
`
	if err := os.WriteFile(envFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	keys := []string{"FOO_TEST_KEY", "BAR_TEST_KEY", "BAZ_TEST_KEY", "EXPORTED_TEST_KEY", "EMPTY_LINE_ABOVE"}
	for _, k := range keys {
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range keys {
			os.Unsetenv(k)
		}
	})

	loadEnvFile(envFile)

	tests := []struct {
		key  string
		want string
	}{
		{"FOO_TEST_KEY", "hello"},
		{"BAR_TEST_KEY", "quoted value"},
		{"BAZ_TEST_KEY", "single quoted"},
		{"EXPORTED_TEST_KEY", "yes"},
		{"EMPTY_LINE_ABOVE", "works"},
	}
	for _, tt := range tests {
		if got := os.Getenv(tt.key); got != tt.want {
			t.Errorf("os.Getenv(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestLoadEnvFile_RealEnvTakesPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env.local")

	if err := os.WriteFile(envFile, []byte("PRECEDENCE_TEST=from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PRECEDENCE_TEST", "from-env")

	loadEnvFile(envFile)

	if got := os.Getenv("PRECEDENCE_TEST"); got != "from-env" {
		t.Errorf("env var = %q, want %q (real env should take precedence)", got, "from-env")
	}
}

func TestLoadEnvFile_MissingFile(t *testing.T) {
	loadEnvFile("/nonexistent/path/.env.local")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.PrimaryBackend != "gemini-2.5-flash" {
		t.Errorf("PrimaryBackend = %q, want gemini-2.5-flash", cfg.PrimaryBackend)
	}
	if cfg.FallbackBackend != "gemini-2.0-flash" {
		t.Errorf("FallbackBackend = %q, want gemini-2.0-flash", cfg.FallbackBackend)
	}
	if cfg.MaxRetryDelay != 60*time.Second {
		t.Errorf("MaxRetryDelay = %v, want 60s", cfg.MaxRetryDelay)
	}
	if cfg.MaxTextLength != 15000 {
		t.Errorf("MaxTextLength = %d, want 15000", cfg.MaxTextLength)
	}
	if cfg.AuditBuffer != 64 {
		t.Errorf("AuditBuffer = %d, want 64", cfg.AuditBuffer)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRIMARY_BACKEND", "openai:gpt-4o-mini")
	t.Setenv("OPENAI_BASE_URL", "https://proxy.example.com/v1")
	t.Setenv("OPENAI_API_KEY", "sk-test-key")
	t.Setenv("BACKEND_RPS", "0.5")
	t.Setenv("REQUEST_TIMEOUT", "45s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PrimaryBackend != "openai:gpt-4o-mini" {
		t.Errorf("PrimaryBackend = %q", cfg.PrimaryBackend)
	}
	if cfg.OpenAIBaseURL != "https://proxy.example.com/v1" {
		t.Errorf("OpenAIBaseURL = %q", cfg.OpenAIBaseURL)
	}
	if cfg.OpenAIKey != "sk-test-key" {
		t.Errorf("OpenAIKey = %q, want %q", cfg.OpenAIKey, "sk-test-key")
	}
	if cfg.BackendRPS != 0.5 {
		t.Errorf("BackendRPS = %v, want 0.5", cfg.BackendRPS)
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("RequestTimeout = %v, want 45s", cfg.RequestTimeout)
	}
}

func TestLoad_MaxRetryDelayClamped(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_RETRY_DELAY", "5m")

	cfg, _ := Load()
	if cfg.MaxRetryDelay != 60*time.Second {
		t.Errorf("MaxRetryDelay = %v, want clamp to 60s", cfg.MaxRetryDelay)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "lexdraft.yaml")
	content := `port: "9090"
primary_backend: claude-3-5-haiku-latest
anthropic_api_key: a-key
request_timeout: 90s
audit_buffer: 8
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("Port = %q, env should win over file", cfg.Port)
	}
	if cfg.PrimaryBackend != "claude-3-5-haiku-latest" || cfg.AnthropicKey != "a-key" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.RequestTimeout != 90*time.Second {
		t.Errorf("RequestTimeout = %v, want 90s", cfg.RequestTimeout)
	}
	if cfg.AuditBuffer != 8 {
		t.Errorf("AuditBuffer = %d, want 8", cfg.AuditBuffer)
	}
	if cfg.FallbackBackend != "gemini-2.0-flash" {
		t.Errorf("FallbackBackend = %q, absent keys should keep defaults", cfg.FallbackBackend)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "lexdraft.toml")
	content := `db_path = "/var/lib/lexdraft.db"
fallback_backend = "ollama:llama3"
backend_rps = 1.5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/var/lib/lexdraft.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.FallbackBackend != "ollama:llama3" {
		t.Errorf("FallbackBackend = %q", cfg.FallbackBackend)
	}
	if cfg.BackendRPS != 1.5 {
		t.Errorf("BackendRPS = %v", cfg.BackendRPS)
	}
}

func TestLoad_BadFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}

	ini := filepath.Join(dir, "lexdraft.ini")
	os.WriteFile(ini, []byte("port=1"), 0644)
	t.Setenv("CONFIG_FILE", ini)
	_, err := Load()
	var cerr *model.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Errorf("err = %v, want ConfigurationError", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.GeminiKey = "g"

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty primary", func(c *Config) { c.PrimaryBackend = " " }, "PRIMARY_BACKEND"},
		{"empty fallback", func(c *Config) { c.FallbackBackend = "" }, "FALLBACK_BACKEND"},
		{"unknown provider", func(c *Config) { c.FallbackBackend = "mistral:large" }, "FALLBACK_BACKEND"},
		{"uninferable model", func(c *Config) { c.PrimaryBackend = "llama3" }, "PRIMARY_BACKEND"},
		{"missing gemini key", func(c *Config) { c.GeminiKey = "" }, "GEMINI_API_KEY"},
		{"missing openai key", func(c *Config) { c.PrimaryBackend = "gpt-4o" }, "OPENAI_API_KEY"},
		{"missing anthropic key", func(c *Config) { c.FallbackBackend = "claude-3-haiku" }, "ANTHROPIC_API_KEY"},
		{"ollama needs url", func(c *Config) { c.FallbackBackend = "ollama:llama3"; c.OllamaURL = "" }, "OLLAMA_URL"},
		{"stub needs nothing", func(c *Config) { *c = c.WithStubBackends(); c.GeminiKey = "" }, ""},
		{"zero request timeout", func(c *Config) { c.RequestTimeout = 0 }, "REQUEST_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			var cerr *model.ConfigurationError
			if !errors.As(err, &cerr) {
				t.Fatalf("err = %v, want ConfigurationError", err)
			}
			if cerr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cerr.Field, tt.wantField)
			}
		})
	}
}

func TestUseStubs(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantStub bool
	}{
		{"no keys", Config{PrimaryBackend: "gemini-2.5-flash", FallbackBackend: "gemini-2.0-flash"}, true},
		{"gemini key", Config{PrimaryBackend: "gemini-2.5-flash", GeminiKey: "g"}, false},
		{"openai key", Config{OpenAIKey: "sk"}, false},
		{"anthropic key", Config{AnthropicKey: "a"}, false},
		{"ollama fallback", Config{PrimaryBackend: "gemini-2.5-flash", FallbackBackend: "ollama:llama3"}, false},
		{"explicit stub", Config{PrimaryBackend: "stub:a", FallbackBackend: "stub:b"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.UseStubs(); got != tt.wantStub {
				t.Errorf("UseStubs() = %v, want %v", got, tt.wantStub)
			}
		})
	}

	stubbed := Defaults().WithStubBackends()
	if stubbed.PrimaryBackend != "stub:primary" || stubbed.FallbackBackend != "stub:fallback" {
		t.Errorf("WithStubBackends = %q / %q", stubbed.PrimaryBackend, stubbed.FallbackBackend)
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (Config{LogLevel: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestEnvDuration_Invalid(t *testing.T) {
	t.Setenv("TEST_DUR_INVALID", "not-a-duration")

	got := envDuration("TEST_DUR_INVALID", 5*time.Second)
	if got != 5*time.Second {
		t.Errorf("envDuration with invalid value = %v, want fallback 5s", got)
	}
}

func TestEnvInt_Invalid(t *testing.T) {
	t.Setenv("TEST_INT_INVALID", "abc")

	got := envInt("TEST_INT_INVALID", 42)
	if got != 42 {
		t.Errorf("envInt with invalid value = %d, want fallback 42", got)
	}
}

func TestEnvFloat_Invalid(t *testing.T) {
	t.Setenv("TEST_FLOAT_INVALID", "fast")

	if got := envFloat("TEST_FLOAT_INVALID", 2); got != 2 {
		t.Errorf("envFloat with invalid value = %v, want fallback 2", got)
	}
}
