package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/use-agent/leninka/models"
)

// Config holds all application configuration.
type Config struct {
	Browser BrowserConfig `yaml:"browser"`
	Crawl   CrawlConfig   `yaml:"crawl"`
	Extract ExtractConfig `yaml:"extract"`
	Output  OutputConfig  `yaml:"output"`
	Log     LogConfig     `yaml:"log"`
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool `yaml:"headless"` // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker and CI).
	NoSandbox bool `yaml:"no_sandbox"` // default: true

	// WindowWidth and WindowHeight fix the window and viewport size.
	WindowWidth  int `yaml:"window_width"`  // default: 1920
	WindowHeight int `yaml:"window_height"` // default: 1080

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"browser_bin"`

	// Proxy is passed to Chrome as --proxy-server.
	Proxy string `yaml:"proxy"`

	// Stealth masks navigator.webdriver and friends on the page.
	Stealth bool `yaml:"stealth"` // default: false

	// UserAgent overrides the browser user agent when non-empty.
	UserAgent string `yaml:"user_agent"`

	// Headers are sent with every navigation.
	Headers map[string]string `yaml:"headers"`

	// BlockedResources lists resource types the tab refuses to load.
	// default: ["Image", "Font", "Media"]
	BlockedResources []string `yaml:"blocked_resources"`
}

// CrawlConfig controls which listing pages are visited and how long to wait.
type CrawlConfig struct {
	// BaseURL is the search listing endpoint, without query string.
	BaseURL string `yaml:"base_url"` // default: "https://cyberleninka.ru/search"

	// Query is the search term sent as the q parameter.
	Query string `yaml:"query"` // default: "NodeJS"

	// Pages is the number of listing pages to crawl, starting at 1.
	Pages int `yaml:"pages"` // default: 5

	// NavigationTimeout bounds page.Navigate alone.
	NavigationTimeout time.Duration `yaml:"navigation_timeout"` // default: 30s

	// RenderTimeout bounds the wait for the results container.
	RenderTimeout time.Duration `yaml:"render_timeout"` // default: 60s

	// PollInterval is the delay between container presence checks.
	PollInterval time.Duration `yaml:"poll_interval"` // default: 250ms

	// Container is the CSS selector of the rendered results region.
	Container string `yaml:"container"` // default: "#search-results"
}

// ExtractConfig holds the selectors used to map list items to records.
type ExtractConfig struct {
	// BaseDomain is prefixed to every extracted href.
	BaseDomain string `yaml:"base_domain"` // default: "https://cyberleninka.ru"

	Item    string `yaml:"item"`    // default: "li"
	Title   string `yaml:"title"`   // default: ".title"
	Authors string `yaml:"authors"` // default: "span"
	Anchor  string `yaml:"anchor"`  // default: "a"
}

// OutputConfig controls the final document.
type OutputConfig struct {
	Path   string `yaml:"path"`   // default: "articles.json"
	Format string `yaml:"format"` // "json" or "csv"; default: "json"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // default: "info"
	Format string `yaml:"format"` // "json" or "text"; default: "json"
}

// Default returns the configuration of the reference crawl.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			Headless:     true,
			NoSandbox:    true,
			WindowWidth:  1920,
			WindowHeight: 1080,
			BlockedResources: []string{
				"Image", "Font", "Media",
			},
		},
		Crawl: CrawlConfig{
			BaseURL:           "https://cyberleninka.ru/search",
			Query:             "NodeJS",
			Pages:             5,
			NavigationTimeout: 30 * time.Second,
			RenderTimeout:     60 * time.Second,
			PollInterval:      250 * time.Millisecond,
			Container:         "#search-results",
		},
		Extract: ExtractConfig{
			BaseDomain: "https://cyberleninka.ru",
			Item:       "li",
			Title:      ".title",
			Authors:    "span",
			Anchor:     "a",
		},
		Output: OutputConfig{
			Path:   "articles.json",
			Format: "json",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a .env file (if present) and environment
// variables, falling back to Default.
func Load() *Config {
	_ = godotenv.Load(".env")
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

// LoadFile reads a YAML file over Default, then applies .env and
// environment variables on top of it.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewCrawlError(models.ErrCodeInvalidConfig, "failed to read config file", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, models.NewCrawlError(models.ErrCodeInvalidConfig, "failed to parse config file", err)
	}
	_ = godotenv.Load(".env")
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	b := &c.Browser
	b.Headless = envBoolOr("LENINKA_HEADLESS", b.Headless)
	b.NoSandbox = envBoolOr("LENINKA_NO_SANDBOX", b.NoSandbox)
	b.WindowWidth = envIntOr("LENINKA_WINDOW_WIDTH", b.WindowWidth)
	b.WindowHeight = envIntOr("LENINKA_WINDOW_HEIGHT", b.WindowHeight)
	b.BrowserBin = envOr("LENINKA_BROWSER_BIN", b.BrowserBin)
	b.Proxy = envOr("LENINKA_PROXY", b.Proxy)
	b.Stealth = envBoolOr("LENINKA_STEALTH", b.Stealth)
	b.UserAgent = envOr("LENINKA_USER_AGENT", b.UserAgent)
	b.Headers = envMapOr("LENINKA_HEADERS", b.Headers)
	b.BlockedResources = envSliceOr("LENINKA_BLOCKED_RESOURCES", b.BlockedResources)

	cr := &c.Crawl
	cr.BaseURL = envOr("LENINKA_BASE_URL", cr.BaseURL)
	cr.Query = envOr("LENINKA_QUERY", cr.Query)
	cr.Pages = envIntOr("LENINKA_PAGES", cr.Pages)
	cr.NavigationTimeout = envDurationOr("LENINKA_NAV_TIMEOUT", cr.NavigationTimeout)
	cr.RenderTimeout = envDurationOr("LENINKA_RENDER_TIMEOUT", cr.RenderTimeout)
	cr.PollInterval = envDurationOr("LENINKA_POLL_INTERVAL", cr.PollInterval)
	cr.Container = envOr("LENINKA_CONTAINER", cr.Container)

	e := &c.Extract
	e.BaseDomain = envOr("LENINKA_BASE_DOMAIN", e.BaseDomain)
	e.Item = envOr("LENINKA_ITEM", e.Item)
	e.Title = envOr("LENINKA_TITLE", e.Title)
	e.Authors = envOr("LENINKA_AUTHORS", e.Authors)
	e.Anchor = envOr("LENINKA_ANCHOR", e.Anchor)

	c.Output.Path = envOr("LENINKA_OUTPUT", c.Output.Path)
	c.Output.Format = envOr("LENINKA_FORMAT", c.Output.Format)

	c.Log.Level = envOr("LENINKA_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOr("LENINKA_LOG_FORMAT", c.Log.Format)
}

// Validate rejects configurations the crawl cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Crawl.BaseURL) == "":
		return invalid("crawl.base_url is required")
	case c.Crawl.Pages < 1:
		return invalid(fmt.Sprintf("crawl.pages must be >= 1, got %d", c.Crawl.Pages))
	case c.Crawl.RenderTimeout <= 0:
		return invalid("crawl.render_timeout must be positive")
	case c.Crawl.PollInterval <= 0:
		return invalid("crawl.poll_interval must be positive")
	case c.Crawl.Container == "":
		return invalid("crawl.container is required")
	case c.Output.Path == "":
		return invalid("output.path is required")
	}
	switch c.Output.Format {
	case "json", "csv":
	default:
		return invalid(fmt.Sprintf("unknown output format: %s", c.Output.Format))
	}
	return nil
}

func invalid(msg string) error {
	return models.NewCrawlError(models.ErrCodeInvalidConfig, msg, nil)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

// envMapOr parses "Name=Value,Name2=Value2". Malformed pairs are skipped.
func envMapOr(key string, fallback map[string]string) map[string]string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	result := make(map[string]string)
	for _, p := range strings.Split(v, ",") {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		result[name] = strings.TrimSpace(value)
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
