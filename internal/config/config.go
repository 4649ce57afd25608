package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// ErrMissingAPIKey is returned when no API key can be resolved.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY environment variable not set")

// Load reads configuration from defaults, an optional config file, and
// PDF2MD_-prefixed environment variables.
func Load(cfgFile string) (*Config, error) {
	defaults := DefaultConfig()
	viper.SetDefault("model", defaults.Model)
	viper.SetDefault("api_key", defaults.APIKey)
	viper.SetDefault("base_url", defaults.BaseURL)
	viper.SetDefault("raster.dpi", defaults.Raster.DPI)
	viper.SetDefault("raster.quality", defaults.Raster.Quality)
	viper.SetDefault("request.timeout_seconds", defaults.Request.TimeoutSeconds)
	viper.SetDefault("request.max_retries", defaults.Request.MaxRetries)
	viper.SetDefault("request.max_tokens", defaults.Request.MaxTokens)
	viper.SetDefault("request.requests_per_minute", defaults.Request.RequestsPerMinute)
	viper.SetDefault("request.temperature", defaults.Request.Temperature)
	viper.SetDefault("retry.attempts", defaults.Retry.Attempts)
	viper.SetDefault("retry.delay_seconds", defaults.Retry.DelaySeconds)

	// Environment variables with PDF2MD_ prefix
	viper.SetEnvPrefix("PDF2MD")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.pdf2md")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ResolveAPIKey resolves the configured API key, expanding any ${ENV_VAR}
// reference. Returns ErrMissingAPIKey when the result is empty.
func (c *Config) ResolveAPIKey() (string, error) {
	key := ResolveEnvVars(c.APIKey)
	if key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# pdf2md configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export OPENAI_API_KEY=xxx

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
