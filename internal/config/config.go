// Package config provides configuration loading for the PDF cropper.
// Supports YAML files and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the cropper binaries.
type Config struct {
	Crop          CropConfig          `yaml:"crop"`
	Content       ContentConfig       `yaml:"content"`
	Preview       PreviewConfig       `yaml:"preview"`
	Server        ServerConfig        `yaml:"server"`
	Jobs          JobsConfig          `yaml:"jobs"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// CropConfig holds the batch defaults.
type CropConfig struct {
	Suffix    string `yaml:"suffix"`
	Margin    int    `yaml:"margin"`
	PerPage   bool   `yaml:"per_page"`
	OutputDir string `yaml:"output_dir"`
}

// ContentConfig tunes the content-stream interpreter.
type ContentConfig struct {
	MaxFormDepth int `yaml:"max_form_depth"`
}

// PreviewConfig holds page rendering settings.
type PreviewConfig struct {
	DPI float64 `yaml:"dpi"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`

	// APIKey is the bearer token every /api/v1 request must carry.
	APIKey string `yaml:"api_key"`
	// RootDir confines the input files and output directories a job may name.
	// Empty means the server's working directory.
	RootDir string `yaml:"root_dir"`
}

// JobsConfig holds settings for the background job manager.
type JobsConfig struct {
	MaxJobs    int `yaml:"max_jobs"`
	EventQueue int `yaml:"event_queue"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		if cfg.Crop.OutputDir != "" {
			cfg.Crop.OutputDir = ResolveRelativePath(path, cfg.Crop.OutputDir)
		}
		if cfg.Server.RootDir != "" {
			cfg.Server.RootDir = ResolveRelativePath(path, cfg.Server.RootDir)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Crop: CropConfig{
			Suffix: "_cropped",
			Margin: 5,
		},
		Content: ContentConfig{
			MaxFormDepth: 8,
		},
		Preview: PreviewConfig{
			DPI: 150,
		},
		Server: ServerConfig{
			Host:             "127.0.0.1",
			Port:             8090,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   60 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Jobs: JobsConfig{
			MaxJobs:    100,
			EventQueue: 16,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "console",
			ServiceName: "pdf-cropper",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Crop.Suffix) == "" {
		return fmt.Errorf("crop suffix must not be empty")
	}

	if c.Crop.Margin < 0 {
		return fmt.Errorf("crop margin must be non-negative: %d", c.Crop.Margin)
	}

	if c.Content.MaxFormDepth < 1 {
		return fmt.Errorf("max_form_depth must be at least 1")
	}

	if c.Preview.DPI < 36 || c.Preview.DPI > 1200 {
		return fmt.Errorf("preview dpi must be between 36 and 1200: %g", c.Preview.DPI)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Jobs.MaxJobs < 1 {
		return fmt.Errorf("max_jobs must be at least 1")
	}

	if c.Observability.LogFormat != "json" && c.Observability.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s", c.Observability.LogFormat)
	}

	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PDFCROP_SUFFIX"); v != "" {
		cfg.Crop.Suffix = v
	}

	if v := os.Getenv("PDFCROP_MARGIN"); v != "" {
		if margin, err := strconv.Atoi(v); err == nil {
			cfg.Crop.Margin = margin
		}
	}

	if v := os.Getenv("PDFCROP_PER_PAGE"); v != "" {
		if perPage, err := strconv.ParseBool(v); err == nil {
			cfg.Crop.PerPage = perPage
		}
	}

	if v := os.Getenv("PDFCROP_OUTPUT_DIR"); v != "" {
		cfg.Crop.OutputDir = v
	}

	if v := os.Getenv("PREVIEW_DPI"); v != "" {
		if dpi, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Preview.DPI = dpi
		}
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("PDFCROP_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}

	if v := os.Getenv("PDFCROP_ROOT_DIR"); v != "" {
		cfg.Server.RootDir = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

// ResolveRelativePath resolves a path relative to the config file location.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	configDir := filepath.Dir(configPath)
	return filepath.Join(configDir, targetPath)
}
