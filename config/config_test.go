package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/leninka/models"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "https://cyberleninka.ru/search", cfg.Crawl.BaseURL)
	assert.Equal(t, "NodeJS", cfg.Crawl.Query)
	assert.Equal(t, 5, cfg.Crawl.Pages)
	assert.Equal(t, 60*time.Second, cfg.Crawl.RenderTimeout)
	assert.Equal(t, "#search-results", cfg.Crawl.Container)
	assert.Equal(t, "https://cyberleninka.ru", cfg.Extract.BaseDomain)
	assert.Equal(t, "articles.json", cfg.Output.Path)
	assert.True(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.NoSandbox)
	assert.Equal(t, 1920, cfg.Browser.WindowWidth)
	assert.Equal(t, 1080, cfg.Browser.WindowHeight)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LENINKA_PAGES", "2")
	t.Setenv("LENINKA_QUERY", "golang")
	t.Setenv("LENINKA_RENDER_TIMEOUT", "5s")
	t.Setenv("LENINKA_HEADLESS", "false")
	t.Setenv("LENINKA_HEADERS", "Accept-Language=ru, X-Bad, X-Trace = 1")

	cfg := Load()

	assert.Equal(t, 2, cfg.Crawl.Pages)
	assert.Equal(t, "golang", cfg.Crawl.Query)
	assert.Equal(t, 5*time.Second, cfg.Crawl.RenderTimeout)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, map[string]string{"Accept-Language": "ru", "X-Trace": "1"}, cfg.Browser.Headers)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("LENINKA_PAGES", "many")
	t.Setenv("LENINKA_POLL_INTERVAL", "soon")

	cfg := Load()

	assert.Equal(t, 5, cfg.Crawl.Pages)
	assert.Equal(t, 250*time.Millisecond, cfg.Crawl.PollInterval)
}

func TestLoadFile_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leninka.yaml")
	yml := `
crawl:
  query: rust
  pages: 3
  render_timeout: 10s
output:
  path: out/rust.csv
  format: csv
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("LENINKA_PAGES", "4")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "rust", cfg.Crawl.Query)
	assert.Equal(t, 4, cfg.Crawl.Pages, "environment wins over file")
	assert.Equal(t, 10*time.Second, cfg.Crawl.RenderTimeout)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, "#search-results", cfg.Crawl.Container, "unset keys keep defaults")
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, models.IsCode(err, models.ErrCodeInvalidConfig))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crawl: [unterminated"), 0o644))
	_, err = LoadFile(path)
	assert.True(t, models.IsCode(err, models.ErrCodeInvalidConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero pages", func(c *Config) { c.Crawl.Pages = 0 }},
		{"empty base url", func(c *Config) { c.Crawl.BaseURL = " " }},
		{"no render timeout", func(c *Config) { c.Crawl.RenderTimeout = 0 }},
		{"no poll interval", func(c *Config) { c.Crawl.PollInterval = 0 }},
		{"no container", func(c *Config) { c.Crawl.Container = "" }},
		{"no output path", func(c *Config) { c.Output.Path = "" }},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, models.ErrCodeInvalidConfig, models.CodeOf(err))
		})
	}
}
