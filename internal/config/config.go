// Load envs from .env
// Load YAML config
// Apply env overrides and defaults
// Validate config

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
)

// DefaultPath is where Load looks when no path is given.
const DefaultPath = "configs/config.yaml"

type BrowserConfig struct {
	Driver            string        `yaml:"driver"`
	Headless          bool          `yaml:"headless"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	ElementTimeout    time.Duration `yaml:"element_timeout"`
	MinDelay          time.Duration `yaml:"min_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	UserAgent         string        `yaml:"user_agent"`
}

type ListingConfig struct {
	MaxListings int  `yaml:"max_listings"`
	OpenDetails bool `yaml:"open_details"`
}

type Config struct {
	JobTitle   string `yaml:"job_title"`
	OutputPath string `yaml:"output_path"`
	// TestOutputPath receives single-country runs.
	TestOutputPath string `yaml:"test_output_path"`
	// CountriesPath overrides the embedded country registry.
	CountriesPath     string        `yaml:"countries_path"`
	FallbackEstimates bool          `yaml:"fallback_estimates"`
	RunTimeout        time.Duration `yaml:"run_timeout"`
	ScreenshotDir     string        `yaml:"screenshot_dir"`
	LogLevel          string        `yaml:"log_level"`

	Browser  BrowserConfig `yaml:"browser"`
	Listings ListingConfig `yaml:"listings"`

	//Optional run notifications
	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`

	// CI is true under GitHub Actions; it adds browser flags and disables screenshots.
	CI bool `yaml:"-"`
}

// Load reads .env, the YAML file at path and the environment, in that order
// of increasing precedence. A missing YAML file is not an error; an invalid
// one is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		JobTitle:       "Data Analyst",
		OutputPath:     "data/data.json",
		TestOutputPath: "data/test_data.json",
		RunTimeout:     45 * time.Minute,
		ScreenshotDir:  "logs/screenshots",
		LogLevel:       "info",
		Browser: BrowserConfig{
			Driver:            DriverPlaywright,
			Headless:          true,
			NavigationTimeout: 30 * time.Second,
			ElementTimeout:    15 * time.Second,
			MinDelay:          1500 * time.Millisecond,
			MaxDelay:          4 * time.Second,
		},
		Listings: ListingConfig{
			MaxListings: 30,
			OpenDetails: true,
		},
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("BROWSER_DRIVER"); v != "" {
		cfg.Browser.Driver = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid HEADLESS %q: %w", v, err)
		}
		cfg.Browser.Headless = b
	}
	if v := os.Getenv("OUTPUT_PATH"); v != "" {
		cfg.OutputPath = v
	}
	if v := os.Getenv("FALLBACK_ESTIMATES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid FALLBACK_ESTIMATES %q: %w", v, err)
		}
		cfg.FallbackEstimates = b
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}
	cfg.CI = os.Getenv("GITHUB_ACTIONS") == "true"
	return nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.JobTitle == "" {
		cfg.JobTitle = def.JobTitle
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = def.OutputPath
	}
	if cfg.TestOutputPath == "" {
		cfg.TestOutputPath = def.TestOutputPath
	}
	if cfg.RunTimeout == 0 {
		cfg.RunTimeout = def.RunTimeout
	}
	if cfg.Browser.Driver == "" {
		cfg.Browser.Driver = def.Browser.Driver
	}
	if cfg.Browser.NavigationTimeout == 0 {
		cfg.Browser.NavigationTimeout = def.Browser.NavigationTimeout
	}
	if cfg.Browser.ElementTimeout == 0 {
		cfg.Browser.ElementTimeout = def.Browser.ElementTimeout
	}
	if cfg.Listings.MaxListings == 0 {
		cfg.Listings.MaxListings = def.Listings.MaxListings
	}
}

// Validate fails fast on values the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Browser.Driver {
	case DriverPlaywright, DriverChromedp:
	default:
		return fmt.Errorf("browser.driver must be %q or %q, got %q", DriverPlaywright, DriverChromedp, c.Browser.Driver)
	}
	if c.Browser.NavigationTimeout < 0 || c.Browser.ElementTimeout < 0 {
		return errors.New("browser timeouts cannot be negative")
	}
	if c.Browser.MinDelay < 0 || c.Browser.MaxDelay < c.Browser.MinDelay {
		return fmt.Errorf("browser delay range [%s, %s] is invalid", c.Browser.MinDelay, c.Browser.MaxDelay)
	}
	if c.Listings.MaxListings < 0 {
		return errors.New("listings.max_listings cannot be negative")
	}
	if c.RunTimeout < 0 {
		return errors.New("run_timeout cannot be negative")
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		return errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return nil
}

// NotificationsEnabled reports whether a Telegram summary should be sent.
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
