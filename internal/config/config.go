package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	// WeatherAPIKey may be empty; the dashboard then runs without the weather
	// panel and health reports degraded.
	WeatherAPIKey     string
	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	QuoteAPIURL     string
	QuoteAPITimeout time.Duration
	ImageAPIKey     string
	ImageAPIURL     string
	ImageAPITimeout time.Duration
	GeoProviderURL  string
	AvatarURL       string
	ShareBaseURL    string

	RequestTimeout time.Duration
	CacheBackend   string // "in_memory" or "memcached"
	WeatherTTL     time.Duration
	PhotoTTL       time.Duration

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RateLimitRPS   int
	RateLimitBurst int

	RefreshInterval time.Duration
	WarmOnStart     bool

	ProviderErrorWindow time.Duration
	ProviderErrorPct    int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	QuoteAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"quote_api"`

	ImageAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"image_api"`

	GeoIP struct {
		URL string `yaml:"url"`
	} `yaml:"geoip"`

	Avatar struct {
		URL string `yaml:"url"`
	} `yaml:"avatar"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Cache struct {
		Backend    string `yaml:"backend"`
		WeatherTTL string `yaml:"weather_ttl"`
		PhotoTTL   string `yaml:"photo_ttl"`
		Memcached  struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Reliability struct {
		RetryMaxAttempts int    `yaml:"retry_max_attempts"`
		RetryBaseDelay   string `yaml:"retry_base_delay"`
		RetryMaxDelay    string `yaml:"retry_max_delay"`
		RateLimitRPS     int    `yaml:"rate_limit_rps"`
		RateLimitBurst   int    `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Dashboard struct {
		RefreshInterval string `yaml:"refresh_interval"`
		ShareBaseURL    string `yaml:"share_base_url"`
		WarmOnStart     *bool  `yaml:"warm_on_start"`
	} `yaml:"dashboard"`

	Health struct {
		ProviderErrorWindow string `yaml:"provider_error_window"`
		ProviderErrorPct    int    `yaml:"provider_error_pct"`
	} `yaml:"health"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
	ImageAPIKey   string `yaml:"image_api_key"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) and config/secrets.yaml.
// API keys come from WEATHER_API_KEY / IMAGE_API_KEY env or the secrets file;
// both are optional and their features degrade when absent. Call from project root.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	cfg.ImageAPIKey = os.Getenv("IMAGE_API_KEY")
	if cfg.WeatherAPIKey == "" || cfg.ImageAPIKey == "" {
		secretsPath := filepath.Join(cwd, "config", "secrets.yaml")
		secretsData, err := os.ReadFile(secretsPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read secrets file: %w", err)
			}
		} else {
			var sec secretsFile
			if err := yaml.Unmarshal(secretsData, &sec); err != nil {
				return nil, fmt.Errorf("parse secrets file: %w", err)
			}
			if cfg.WeatherAPIKey == "" {
				cfg.WeatherAPIKey = sec.WeatherAPIKey
			}
			if cfg.ImageAPIKey == "" {
				cfg.ImageAPIKey = sec.ImageAPIKey
			}
		}
	}

	cfg.WeatherAPIURL = fc.WeatherAPI.URL
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = "https://api.weatherapi.com/v1"
	}
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 2*time.Second)

	cfg.QuoteAPIURL = fc.QuoteAPI.URL
	if cfg.QuoteAPIURL == "" {
		cfg.QuoteAPIURL = "https://api.quotable.io"
	}
	cfg.QuoteAPITimeout = parseDuration(fc.QuoteAPI.Timeout, 5*time.Second)
	cfg.ImageAPIURL = fc.ImageAPI.URL
	if cfg.ImageAPIURL == "" {
		cfg.ImageAPIURL = "https://api.unsplash.com"
	}
	cfg.ImageAPITimeout = parseDuration(fc.ImageAPI.Timeout, 5*time.Second)
	// Empty geoip.url disables location resolution; dashboards fall back to
	// the global corpora.
	cfg.GeoProviderURL = fc.GeoIP.URL
	cfg.AvatarURL = fc.Avatar.URL
	if cfg.AvatarURL == "" {
		cfg.AvatarURL = "https://ui-avatars.com/api/"
	}

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 10*time.Second)
	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	cfg.WeatherTTL = parseDuration(fc.Cache.WeatherTTL, 30*time.Minute)
	cfg.PhotoTTL = parseDuration(fc.Cache.PhotoTTL, 24*time.Hour)

	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.RetryAttempts = fc.Reliability.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	cfg.RetryBaseDelay = parseDuration(fc.Reliability.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Reliability.RetryMaxDelay, 2*time.Second)
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.RefreshInterval = parseDuration(fc.Dashboard.RefreshInterval, 30*time.Minute)
	cfg.ShareBaseURL = fc.Dashboard.ShareBaseURL
	if cfg.ShareBaseURL == "" {
		cfg.ShareBaseURL = "https://dailydashboard.example.com"
	}
	cfg.WarmOnStart = true
	if fc.Dashboard.WarmOnStart != nil {
		cfg.WarmOnStart = *fc.Dashboard.WarmOnStart
	}

	cfg.ProviderErrorWindow = parseDuration(fc.Health.ProviderErrorWindow, 60*time.Second)
	cfg.ProviderErrorPct = fc.Health.ProviderErrorPct
	if cfg.ProviderErrorPct <= 0 {
		cfg.ProviderErrorPct = 50
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
// Used for parsing duration fields from YAML config with safe fallback to defaults.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
// Ensures WeatherAPITimeout is positive, RequestTimeout >= WeatherAPITimeout,
// and CacheBackend is a valid value. Auto-adjusts RequestTimeout if needed.
func validate(cfg *Config) error {
	if cfg.WeatherAPITimeout <= 0 {
		return fmt.Errorf("weather_api.timeout must be positive")
	}
	if cfg.RequestTimeout <= cfg.WeatherAPITimeout {
		cfg.RequestTimeout = cfg.WeatherAPITimeout + time.Second
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached":
		// valid
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	return nil
}
