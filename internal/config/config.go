// Package config handles application configuration and environment loading.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LLMConfig holds the language model provider settings.
type LLMConfig struct {
	APIKey    string        // GROQ_API_KEY
	Endpoint  string        // OpenAI-compatible base URL
	Model     string        // model identifier
	MaxTokens int           // response bound (default 8000)
	Timeout   time.Duration // per-call HTTP timeout (default 2m)
}

// ExecConfig bounds evaluation of generated rename code.
type ExecConfig struct {
	MaxSteps uint64        // Starlark step budget (default 100000)
	Timeout  time.Duration // wall-clock limit (default 2s)
}

// Config holds the configuration for the CLI and the HTTP API.
type Config struct {
	LLM  LLMConfig
	Exec ExecConfig

	AuditDBPath string // path to the SQLite audit store; empty disables auditing
	DataDir     string // root for file_path in API requests; empty disables file inputs over HTTP
	ListenAddr  string // HTTP listen address (default ":8080")
	LogLevel    string // log level: debug, info, warn, error (default "info")
	LogFormat   string // "json" (default) or "text"
	Env         string // environment: "development" (default) or "production"

	// Rate limiting. Every standardize request costs one model call.
	RateLimitRPS   float64 // sustained requests per second (default 5)
	RateLimitBurst int     // burst capacity (default 10)

	// CORS
	CORSAllowedOrigins []string // allowed origins for CORS (default: ["*"])

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// AuditEnabled returns true when an audit store path is configured.
func (c *Config) AuditEnabled() bool {
	return c.AuditDBPath != ""
}

// LoadFromEnv loads configuration from environment variables.
// Malformed numeric values fall back to defaults and add a warning.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LLM: LLMConfig{
			APIKey:   os.Getenv("GROQ_API_KEY"),
			Endpoint: os.Getenv("LLM_ENDPOINT"),
			Model:    os.Getenv("LLM_MODEL"),
		},
		AuditDBPath: os.Getenv("AUDIT_DB_PATH"),
		DataDir:     os.Getenv("DATA_DIR"),
		ListenAddr:  os.Getenv("LISTEN_ADDR"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFormat:   strings.ToLower(os.Getenv("LOG_FORMAT")),
		Env:         os.Getenv("ENV"),
	}

	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LLM.MaxTokens = n
		} else {
			cfg.warnf("LLM_MAX_TOKENS=%q is not a positive integer, using default", v)
		}
	}
	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.LLM.Timeout = d
		} else {
			cfg.warnf("LLM_TIMEOUT=%q is not a positive duration, using default", v)
		}
	}
	if v := os.Getenv("EXEC_MAX_STEPS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			cfg.Exec.MaxSteps = n
		} else {
			cfg.warnf("EXEC_MAX_STEPS=%q is not a positive integer, using default", v)
		}
	}
	if v := os.Getenv("EXEC_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Exec.Timeout = d
		} else {
			cfg.warnf("EXEC_TIMEOUT=%q is not a positive duration, using default", v)
		}
	}

	// Rate limiting
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}

	// CORS
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.CORSAllowedOrigins = compactNonEmpty(origins)
	}

	// Defaults
	if cfg.LLM.Endpoint == "" {
		cfg.LLM.Endpoint = "https://api.groq.com/openai/v1"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama-3.3-70b-versatile"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 8000
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 2 * time.Minute
	}
	if cfg.Exec.MaxSteps == 0 {
		cfg.Exec.MaxSteps = 100000
	}
	if cfg.Exec.Timeout == 0 {
		cfg.Exec.Timeout = 2 * time.Second
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "json"
	case "json", "text":
	default:
		cfg.warnf("LOG_FORMAT=%q is not json or text, using json", cfg.LogFormat)
		cfg.LogFormat = "json"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 5
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 10
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.LLM.APIKey == "" {
		cfg.Warnings = append(cfg.Warnings, "GROQ_API_KEY not set; model calls will fail")
	}

	// Production mode: insecure or unusable defaults are fatal errors.
	if cfg.IsProduction() {
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY must be set in production (ENV=production)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv loads a .env file into the environment. Variables already set
// in the environment take precedence. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
