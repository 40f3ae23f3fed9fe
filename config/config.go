package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Target    TargetConfig    `yaml:"target"`
	Axe       AxeConfig       `yaml:"axe"`
	HTMLCS    HTMLCSConfig    `yaml:"htmlcs"`
	Browser   BrowserConfig   `yaml:"browser"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	LLM       LLMConfig       `yaml:"llm"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
}

// TargetConfig names the page under audit.
type TargetConfig struct {
	// URL is the single page every audit command runs against.
	URL string `yaml:"url" validate:"omitempty,url"`
}

// AxeConfig controls the axe-core pipeline.
type AxeConfig struct {
	// RuleTags restricts the run to rules tagged with any of these values.
	// default: ["wcag2a", "wcag2aa", "wcag2aaa"]
	RuleTags []string `yaml:"rule_tags" validate:"min=1,dive,required"`

	// OutputPath is where the flattened report is written.
	OutputPath string `yaml:"output_path" validate:"required"` // default: "axe_report.json"

	// ScriptSource is a file path or http(s) URL of axe.min.js.
	ScriptSource string `yaml:"script_source" validate:"required"`
}

// HTMLCSConfig controls the HTML_CodeSniffer pipeline.
type HTMLCSConfig struct {
	// Standard is the conformance standard to sniff against.
	Standard string `yaml:"standard" validate:"oneof=WCAG2A WCAG2AA WCAG2AAA"` // default: "WCAG2AAA"

	IncludeWarnings bool `yaml:"include_warnings"` // default: true
	IncludeNotices  bool `yaml:"include_notices"`  // default: true

	// BrowserArgs are extra command-line switches for the browser this
	// pipeline launches. default: ["--no-sandbox", "--disable-setuid-sandbox"]
	BrowserArgs []string `yaml:"browser_args"`

	// OutputPath is where the raw engine result is written.
	OutputPath string `yaml:"output_path" validate:"required"` // default: "pa11y_output.json"

	// ScriptSource is a file path or http(s) URL of HTMLCS.js.
	ScriptSource string `yaml:"script_source" validate:"required"`
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool `yaml:"headless"` // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool `yaml:"no_sandbox"` // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string `yaml:"browser_bin"`

	// DefaultProxy is the proxy URL for browser and script downloads.
	DefaultProxy string `yaml:"proxy" validate:"omitempty,url"`

	// Headers are extra HTTP headers sent with every page request.
	Headers map[string]string `yaml:"headers"`

	// Stealth masks navigator.webdriver and friends before navigation.
	Stealth bool `yaml:"stealth"` // default: false

	// NavigationTimeout bounds page navigation plus the network-idle wait.
	NavigationTimeout time.Duration `yaml:"navigation_timeout" validate:"gt=0"` // default: 30s

	// MaxConcurrent caps simultaneous audits in server mode.
	MaxConcurrent int `yaml:"max_concurrent" validate:"min=1"` // default: 2
}

// DiscoveryConfig controls sitemap-based URL discovery.
type DiscoveryConfig struct {
	// OutputPath is where discovered URLs are written.
	OutputPath string `yaml:"output_path"` // default: "site_urls.json"

	// RequestTimeout bounds each robots.txt / sitemap request.
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"` // default: 10s

	// MaxURLs caps the flattened URL list.
	MaxURLs int `yaml:"max_urls" validate:"min=1"` // default: 5000
}

// LLMConfig controls remediation suggestions.
type LLMConfig struct {
	APIKey string `yaml:"api_key"`

	// Model defaults to "gpt-4o"; BaseURL to "https://api.openai.com/v1".
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`

	// Temperature (default 0.2) and MaxTokens (default 500) shape each completion.
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int     `yaml:"max_tokens" validate:"min=1"`
}

// WebhookConfig controls the completion notification sent after CLI runs.
type WebhookConfig struct {
	URL    string `yaml:"url" validate:"omitempty,url"`
	Secret string `yaml:"secret"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"` // default: "0.0.0.0"
	Port int    `yaml:"port" validate:"min=1,max=65535"`

	// Mode is the gin mode: "debug", "release" or "test". default: "release"
	Mode string `yaml:"mode" validate:"oneof=debug release test"`
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool `yaml:"enabled"` // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string `yaml:"api_keys"`
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gt=0"` // default: 1

	// Burst is the maximum burst size per API key.
	Burst int `yaml:"burst" validate:"min=1"` // default: 3
}

// CacheConfig controls the engine script cache used by the server.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached script sources.
	MaxEntries int `yaml:"max_entries" validate:"min=1"` // default: 16

	// TTL is how long a downloaded script stays fresh.
	TTL time.Duration `yaml:"ttl" validate:"gt=0"` // default: 1h
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. default: "info"
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Format is "json" or "text". default: "text"
	Format string `yaml:"format" validate:"oneof=json text"`
}

// Default engine script locations. Both are pinned builds.
const (
	DefaultAxeSource    = "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.10.2/axe.min.js"
	DefaultHTMLCSSource = "https://squizlabs.github.io/HTML_CodeSniffer/build/HTMLCS.js"
)

// Load reads configuration from environment variables with sane defaults,
// then overlays the YAML file at path when path is non-empty.
func Load(path string) (*Config, error) {
	cfg := fromEnv()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		Target: TargetConfig{
			URL: os.Getenv("A11Y_TARGET_URL"),
		},
		Axe: AxeConfig{
			RuleTags:     envSliceOr("A11Y_AXE_RULE_TAGS", []string{"wcag2a", "wcag2aa", "wcag2aaa"}),
			OutputPath:   envOr("A11Y_AXE_OUTPUT", "axe_report.json"),
			ScriptSource: envOr("A11Y_AXE_SOURCE", DefaultAxeSource),
		},
		HTMLCS: HTMLCSConfig{
			Standard:        envOr("A11Y_HTMLCS_STANDARD", "WCAG2AAA"),
			IncludeWarnings: envBoolOr("A11Y_HTMLCS_INCLUDE_WARNINGS", true),
			IncludeNotices:  envBoolOr("A11Y_HTMLCS_INCLUDE_NOTICES", true),
			BrowserArgs: envSliceOr("A11Y_HTMLCS_BROWSER_ARGS", []string{
				"--no-sandbox", "--disable-setuid-sandbox",
			}),
			OutputPath:   envOr("A11Y_HTMLCS_OUTPUT", "pa11y_output.json"),
			ScriptSource: envOr("A11Y_HTMLCS_SOURCE", DefaultHTMLCSSource),
		},
		Browser: BrowserConfig{
			Headless:          envBoolOr("A11Y_HEADLESS", true),
			NoSandbox:         envBoolOr("A11Y_NO_SANDBOX", false),
			BrowserBin:        os.Getenv("A11Y_BROWSER_BIN"),
			DefaultProxy:      os.Getenv("A11Y_PROXY"),
			Stealth:           envBoolOr("A11Y_STEALTH", false),
			NavigationTimeout: envDurationOr("A11Y_NAV_TIMEOUT", 30*time.Second),
			MaxConcurrent:     envIntOr("A11Y_MAX_CONCURRENT", 2),
		},
		Discovery: DiscoveryConfig{
			OutputPath:     envOr("A11Y_DISCOVERY_OUTPUT", "site_urls.json"),
			RequestTimeout: envDurationOr("A11Y_DISCOVERY_TIMEOUT", 10*time.Second),
			MaxURLs:        envIntOr("A11Y_DISCOVERY_MAX_URLS", 5000),
		},
		LLM: LLMConfig{
			APIKey:      envOr("A11Y_LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
			Model:       envOr("A11Y_LLM_MODEL", "gpt-4o"),
			BaseURL:     envOr("A11Y_LLM_BASE_URL", "https://api.openai.com/v1"),
			Temperature: envFloatOr("A11Y_LLM_TEMPERATURE", 0.2),
			MaxTokens:   envIntOr("A11Y_LLM_MAX_TOKENS", 500),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("A11Y_WEBHOOK_URL"),
			Secret: os.Getenv("A11Y_WEBHOOK_SECRET"),
		},
		Server: ServerConfig{
			Host: envOr("A11Y_HOST", "0.0.0.0"),
			Port: envIntOr("A11Y_PORT", 8080),
			Mode: envOr("A11Y_MODE", "release"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("A11Y_AUTH_ENABLED", true),
			APIKeys: envSliceOr("A11Y_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("A11Y_RATE_RPS", 1.0),
			Burst:             envIntOr("A11Y_RATE_BURST", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("A11Y_CACHE_MAX_ENTRIES", 16),
			TTL:        envDurationOr("A11Y_CACHE_TTL", time.Hour),
		},
		Log: LogConfig{
			Level:  envOr("A11Y_LOG_LEVEL", "info"),
			Format: envOr("A11Y_LOG_FORMAT", "text"),
		},
	}
}

var validate = validator.New()

// Validate checks every section for out-of-range or malformed values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// RequireTarget checks that a target URL is set, for commands that audit a page.
func (c *Config) RequireTarget() error {
	if err := validate.Var(c.Target.URL, "required,url"); err != nil {
		return fmt.Errorf("config: target url %q: %w", c.Target.URL, err)
	}
	return nil
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

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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
