package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadFromEnv reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GROQ_API_KEY", "LLM_ENDPOINT", "LLM_MODEL", "LLM_MAX_TOKENS", "LLM_TIMEOUT",
		"EXEC_MAX_STEPS", "EXEC_TIMEOUT", "AUDIT_DB_PATH", "DATA_DIR", "LISTEN_ADDR",
		"LOG_LEVEL", "LOG_FORMAT", "ENV", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.LLM.Endpoint)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.LLM.Model)
	assert.Equal(t, 8000, cfg.LLM.MaxTokens)
	assert.Equal(t, 2*time.Minute, cfg.LLM.Timeout)
	assert.Equal(t, uint64(100000), cfg.Exec.MaxSteps)
	assert.Equal(t, 2*time.Second, cfg.Exec.Timeout)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.InDelta(t, 5.0, cfg.RateLimitRPS, 0.0001)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.AuditEnabled())
	assert.Empty(t, cfg.DataDir)
	assert.Contains(t, cfg.Warnings[0], "GROQ_API_KEY")
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("LLM_ENDPOINT", "http://localhost:9999/v1")
	t.Setenv("LLM_MODEL", "llama-3.1-8b-instant")
	t.Setenv("LLM_MAX_TOKENS", "2048")
	t.Setenv("LLM_TIMEOUT", "30s")
	t.Setenv("EXEC_MAX_STEPS", "5000")
	t.Setenv("EXEC_TIMEOUT", "500ms")
	t.Setenv("AUDIT_DB_PATH", "/tmp/audit.sqlite")
	t.Setenv("DATA_DIR", "/srv/datasets")
	t.Setenv("LOG_FORMAT", "TEXT")
	t.Setenv("RATE_LIMIT_RPS", "1.5")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "gsk_test", cfg.LLM.APIKey)
	assert.Equal(t, "http://localhost:9999/v1", cfg.LLM.Endpoint)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.LLM.Model)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, uint64(5000), cfg.Exec.MaxSteps)
	assert.Equal(t, 500*time.Millisecond, cfg.Exec.Timeout)
	assert.True(t, cfg.AuditEnabled())
	assert.Equal(t, "/srv/datasets", cfg.DataDir)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.InDelta(t, 1.5, cfg.RateLimitRPS, 0.0001)
	assert.Equal(t, 3, cfg.RateLimitBurst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_MalformedValuesWarn(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "k")
	t.Setenv("LLM_MAX_TOKENS", "lots")
	t.Setenv("EXEC_TIMEOUT", "-1s")
	t.Setenv("LOG_FORMAT", "xml")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.LLM.MaxTokens)
	assert.Equal(t, 2*time.Second, cfg.Exec.Timeout)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Len(t, cfg.Warnings, 3)
}

func TestLoadFromEnv_Production(t *testing.T) {
	t.Run("missing_key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENV", "production")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example")

		_, err := LoadFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "GROQ_API_KEY")
	})

	t.Run("cors_wildcard", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENV", "production")
		t.Setenv("GROQ_API_KEY", "k")

		_, err := LoadFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CORS wildcard")
	})

	t.Run("valid", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ENV", "Production")
		t.Setenv("GROQ_API_KEY", "k")
		t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example")

		cfg, err := LoadFromEnv()
		require.NoError(t, err)
		assert.True(t, cfg.IsProduction())
	})
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			cfg := &Config{LogLevel: tc.in}
			assert.Equal(t, tc.want, cfg.SlogLevel())
		})
	}
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	require.NoError(t, LoadDotEnv("/nonexistent/.env"))
}

func TestLoadDotEnv_ParsesKeyValue(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n\nCOLSTD_TEST_A=plain\nexport COLSTD_TEST_B=\"quoted value\"\nCOLSTD_TEST_C='single'\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))
	for _, k := range []string{"COLSTD_TEST_A", "COLSTD_TEST_B", "COLSTD_TEST_C"} {
		t.Setenv(k, "") // restores the original value on cleanup
		require.NoError(t, os.Unsetenv(k))
	}

	require.NoError(t, LoadDotEnv(envFile))

	assert.Equal(t, "plain", os.Getenv("COLSTD_TEST_A"))
	assert.Equal(t, "quoted value", os.Getenv("COLSTD_TEST_B"))
	assert.Equal(t, "single", os.Getenv("COLSTD_TEST_C"))
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("COLSTD_TEST_PRECEDENCE", "from_env")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("COLSTD_TEST_PRECEDENCE=from_file\n"), 0o644))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "from_env", os.Getenv("COLSTD_TEST_PRECEDENCE"))
}

func TestLoadDotEnv_Unreadable(t *testing.T) {
	err := LoadDotEnv(t.TempDir()) // a directory, not a file
	require.Error(t, err)
}
