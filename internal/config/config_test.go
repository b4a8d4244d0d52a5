package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "_cropped", cfg.Crop.Suffix)
	assert.Equal(t, 5, cfg.Crop.Margin)
	assert.False(t, cfg.Crop.PerPage)
	assert.Equal(t, "127.0.0.1:8090", cfg.Addr(), "API listens on loopback by default")
	assert.Empty(t, cfg.Server.APIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_YAMLAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cropper.yaml")
	yamlDoc := `
crop:
  suffix: "_trim"
  margin: 12
  output_dir: out
server:
  port: 9000
  root_dir: data
observability:
  log_format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	t.Setenv("PDFCROP_PER_PAGE", "true")
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PDFCROP_API_KEY", "s3cret")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "_trim", cfg.Crop.Suffix)
	assert.Equal(t, 12, cfg.Crop.Margin)
	assert.True(t, cfg.Crop.PerPage)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.Crop.OutputDir)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Server.RootDir)
	assert.Equal(t, "s3cret", cfg.Server.APIKey)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, "json", cfg.Observability.LogFormat)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("PDFCROP_MARGIN", "-3")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "margin")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty suffix", func(c *Config) { c.Crop.Suffix = "  " }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad dpi", func(c *Config) { c.Preview.DPI = 5000 }},
		{"bad log format", func(c *Config) { c.Observability.LogFormat = "xml" }},
		{"zero form depth", func(c *Config) { c.Content.MaxFormDepth = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestResolveRelativePath(t *testing.T) {
	assert.Equal(t, "/abs/out", ResolveRelativePath("/etc/cropper.yaml", "/abs/out"))
	assert.Equal(t, filepath.Join("/etc", "out"), ResolveRelativePath("/etc/cropper.yaml", "out"))
}
