package config

import "time"

// Config holds pdf2md configuration.
// Loaded from ./config.yaml or ~/.pdf2md/config.yaml.
type Config struct {
	Model   string     `mapstructure:"model" yaml:"model"`     // Vision model used for transcription
	APIKey  string     `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	BaseURL string     `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Raster  RasterCfg  `mapstructure:"raster" yaml:"raster"`
	Request RequestCfg `mapstructure:"request" yaml:"request"`
	Retry   RetryCfg   `mapstructure:"retry" yaml:"retry"`
}

// RasterCfg configures page rasterization.
type RasterCfg struct {
	DPI     int `mapstructure:"dpi" yaml:"dpi"`         // Render resolution (default 300)
	Quality int `mapstructure:"quality" yaml:"quality"` // JPEG quality (default 85)
}

// RequestCfg configures individual model requests.
type RequestCfg struct {
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`         // HTTP timeout per request
	MaxRetries        int     `mapstructure:"max_retries" yaml:"max_retries"`                 // SDK transport retries
	MaxTokens         int     `mapstructure:"max_tokens" yaml:"max_tokens"`                   // Completion token cap
	RequestsPerMinute int     `mapstructure:"requests_per_minute" yaml:"requests_per_minute"` // 0 disables rate limiting
	Temperature       float64 `mapstructure:"temperature" yaml:"temperature"`
}

// RetryCfg configures page-level retries in the conversion loop.
type RetryCfg struct {
	Attempts     int `mapstructure:"attempts" yaml:"attempts"`           // Total attempts per page
	DelaySeconds int `mapstructure:"delay_seconds" yaml:"delay_seconds"` // Delay between attempts
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model:  "gpt-4o",
		APIKey: "${OPENAI_API_KEY}",
		Raster: RasterCfg{
			DPI:     300,
			Quality: 85,
		},
		Request: RequestCfg{
			TimeoutSeconds:    120,
			MaxRetries:        2,
			MaxTokens:         3000,
			RequestsPerMinute: 60,
			Temperature:       0,
		},
		Retry: RetryCfg{
			Attempts:     2,
			DelaySeconds: 1,
		},
	}
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Request.TimeoutSeconds) * time.Second
}

// RetryDelay returns the delay between page-level retry attempts.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Retry.DelaySeconds) * time.Second
}
