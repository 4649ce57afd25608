package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != "gpt-4o" {
		t.Errorf("expected default model gpt-4o, got %s", cfg.Model)
	}
	if cfg.APIKey != "${OPENAI_API_KEY}" {
		t.Error("expected API key placeholder")
	}
	if cfg.Raster.DPI != 300 {
		t.Errorf("expected default DPI 300, got %d", cfg.Raster.DPI)
	}
	if cfg.Raster.Quality != 85 {
		t.Errorf("expected default JPEG quality 85, got %d", cfg.Raster.Quality)
	}
	if cfg.Request.MaxTokens != 3000 {
		t.Errorf("expected default max_tokens 3000, got %d", cfg.Request.MaxTokens)
	}
	if cfg.Request.RequestsPerMinute != 60 {
		t.Errorf("expected default requests_per_minute 60, got %d", cfg.Request.RequestsPerMinute)
	}
	if cfg.Retry.Attempts < 1 {
		t.Errorf("expected at least one page attempt, got %d", cfg.Retry.Attempts)
	}
}

func TestResolveEnvVars(t *testing.T) {
	t.Run("resolves environment variable", func(t *testing.T) {
		os.Setenv("TEST_API_KEY", "secret123")
		defer os.Unsetenv("TEST_API_KEY")

		result := ResolveEnvVars("${TEST_API_KEY}")
		if result != "secret123" {
			t.Errorf("expected secret123, got %s", result)
		}
	})

	t.Run("returns empty for missing env var", func(t *testing.T) {
		result := ResolveEnvVars("${DEFINITELY_NOT_SET_12345}")
		if result != "" {
			t.Errorf("expected empty string, got %s", result)
		}
	})

	t.Run("leaves literal values unchanged", func(t *testing.T) {
		result := ResolveEnvVars("literal-value")
		if result != "literal-value" {
			t.Errorf("expected literal-value, got %s", result)
		}
	})
}

func TestConfig_ResolveAPIKey(t *testing.T) {
	t.Run("resolves env var reference", func(t *testing.T) {
		os.Setenv("TEST_OPENAI_KEY", "sk-test-123")
		defer os.Unsetenv("TEST_OPENAI_KEY")

		cfg := &Config{APIKey: "${TEST_OPENAI_KEY}"}
		key, err := cfg.ResolveAPIKey()
		if err != nil {
			t.Fatalf("ResolveAPIKey() error = %v", err)
		}
		if key != "sk-test-123" {
			t.Errorf("expected sk-test-123, got %s", key)
		}
	})

	t.Run("returns literal value", func(t *testing.T) {
		cfg := &Config{APIKey: "direct-key"}
		key, err := cfg.ResolveAPIKey()
		if err != nil {
			t.Fatalf("ResolveAPIKey() error = %v", err)
		}
		if key != "direct-key" {
			t.Errorf("expected direct-key, got %s", key)
		}
	})

	t.Run("missing env var is an error", func(t *testing.T) {
		cfg := &Config{APIKey: "${DEFINITELY_NOT_SET_12345}"}
		if _, err := cfg.ResolveAPIKey(); err != ErrMissingAPIKey {
			t.Errorf("expected ErrMissingAPIKey, got %v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "config.yaml")

	configContent := `
model: "gpt-4o-mini"
raster:
  dpi: 150
request:
  max_tokens: 1024
`
	if err := os.WriteFile(configFile, []byte(configContent), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(configFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("expected model override, got %s", cfg.Model)
	}
	if cfg.Raster.DPI != 150 {
		t.Errorf("expected dpi override 150, got %d", cfg.Raster.DPI)
	}
	if cfg.Request.MaxTokens != 1024 {
		t.Errorf("expected max_tokens override 1024, got %d", cfg.Request.MaxTokens)
	}
	// Untouched keys keep their defaults, including siblings of
	// partially overridden blocks
	if cfg.APIKey != "${OPENAI_API_KEY}" {
		t.Errorf("expected default api_key placeholder, got %s", cfg.APIKey)
	}
	if cfg.Request.TimeoutSeconds != 120 {
		t.Errorf("expected default timeout 120, got %d", cfg.Request.TimeoutSeconds)
	}
	if cfg.Raster.Quality != 85 {
		t.Errorf("expected default quality 85, got %d", cfg.Raster.Quality)
	}
}

func TestWriteDefault(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")

	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "# pdf2md configuration") {
		t.Error("expected header comment")
	}
	if !strings.Contains(content, "gpt-4o") {
		t.Error("expected default model in written config")
	}
	if !strings.Contains(content, "${OPENAI_API_KEY}") {
		t.Error("expected API key placeholder in written config")
	}
}
