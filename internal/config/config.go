// Package config loads and validates bulkcrawl configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jmartens/bulkcrawl/internal/classify"
)

// defaultConfigName is the config file bulkcrawl looks for in the working
// directory when no --config flag is given (any extension Viper supports).
const defaultConfigName = "bulk_crawl_config"

// Config captures every knob that influences a submission run. Keys are flat
// so existing bulk_crawl_config.json files keep working. Values merge in
// layers: code defaults, then an optional config file, then BULKCRAWL_* env
// vars; list-valued keys are replaced wholesale when overridden.
type Config struct {
	CrawlerURL           string   `mapstructure:"crawler_url"`
	MaxPagesPerURL       int      `mapstructure:"max_pages_per_url"`
	SameDomain           bool     `mapstructure:"same_domain"`
	UseBrowser           bool     `mapstructure:"use_browser"`
	SubmissionDelayMs    int      `mapstructure:"delay_between_submissions_ms"`
	BatchDelayMs         int      `mapstructure:"delay_between_batches_ms"`
	BatchSize            int      `mapstructure:"batch_size"`
	SubmitTimeoutSeconds int      `mapstructure:"submit_timeout_seconds"`
	HealthTimeoutSeconds int      `mapstructure:"health_timeout_seconds"`
	SkipDomains          []string `mapstructure:"skip_domains"`
	SkipPatterns         []string `mapstructure:"skip_patterns"`
	BrowserDomains       []string `mapstructure:"browser_domains"`
}

// Load builds a Config from defaults, an optional config file, and the
// environment. An explicit path that cannot be read is an error; the
// well-known default file is optional.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BULKCRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(defaultConfigName)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler_url", "http://localhost:8001")
	v.SetDefault("max_pages_per_url", 3)
	v.SetDefault("same_domain", true)
	v.SetDefault("use_browser", false)
	v.SetDefault("delay_between_submissions_ms", 200)
	v.SetDefault("delay_between_batches_ms", 2000)
	v.SetDefault("batch_size", 10)
	v.SetDefault("submit_timeout_seconds", 10)
	v.SetDefault("health_timeout_seconds", 5)
	v.SetDefault("skip_domains", []string{
		"localhost",
		"127.0.0.1",
		// Search engines
		"duckduckgo.com",
		"www.google.com",
		"search.brave.com",
		// Auth/login pages
		"accounts.google.com",
		"accounts.hetzner.com",
		"login.microsoftonline.com",
		// Requires authentication
		"mail.google.com",
		"outlook.office.com",
		"teams.microsoft.com",
		"lightmailer-bs.gmx.net",
		"lightmailer-bap.gmx.net",
		"navigator.gmx.net",
		"gmx.netid.de",
		// Media streaming (login required)
		"music.youtube.com",
		"www.amazon.de/gp/video",
		// Already indexed / internal
		"gemini.google.com",
		"chatgpt.com",
	})
	v.SetDefault("skip_patterns", []string{
		"/login",
		"/signin",
		"/auth",
		"/oauth",
		"?code=",
		"?token=",
	})
	v.SetDefault("browser_domains", []string{
		"nuxt.com",
		"ui.nuxt.com",
		"content.nuxt.com",
		"vuejs.org",
		"tiptap.dev",
	})
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.CrawlerURL == "" {
		return fmt.Errorf("crawler_url must be set")
	}
	if c.MaxPagesPerURL <= 0 {
		return fmt.Errorf("max_pages_per_url must be > 0")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0")
	}
	if c.SubmissionDelayMs < 0 {
		return fmt.Errorf("delay_between_submissions_ms must be >= 0")
	}
	if c.BatchDelayMs < 0 {
		return fmt.Errorf("delay_between_batches_ms must be >= 0")
	}
	if c.SubmitTimeoutSeconds <= 0 {
		return fmt.Errorf("submit_timeout_seconds must be > 0")
	}
	if c.HealthTimeoutSeconds <= 0 {
		return fmt.Errorf("health_timeout_seconds must be > 0")
	}
	return nil
}

// SubmissionDelay is the pause between consecutive submissions.
func (c Config) SubmissionDelay() time.Duration {
	return time.Duration(c.SubmissionDelayMs) * time.Millisecond
}

// BatchDelay is the longer pause applied at batch boundaries.
func (c Config) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMs) * time.Millisecond
}

// SubmitTimeout bounds a single submission round-trip.
func (c Config) SubmitTimeout() time.Duration {
	return time.Duration(c.SubmitTimeoutSeconds) * time.Second
}

// HealthTimeout bounds the pre-flight health probe.
func (c Config) HealthTimeout() time.Duration {
	return time.Duration(c.HealthTimeoutSeconds) * time.Second
}

// Rules exposes the match lists in the Classifier's input form.
func (c Config) Rules() classify.Rules {
	return classify.Rules{
		SkipDomains:    c.SkipDomains,
		SkipPatterns:   c.SkipPatterns,
		BrowserDomains: c.BrowserDomains,
	}
}
