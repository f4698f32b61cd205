package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds dashboard configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	DataDir      string
	StoreBackend string // "file" or "sqlite"
	StorePath    string

	GeocodingURL string
	ForecastURL  string
	TimezoneURL  string
	NewsURL      string
	NewsAPIKey   string
	NewsEnabled  bool

	UpstreamTimeout time.Duration
	AddTimeout      time.Duration // bounds the initial refresh of an explicitly added city
	BulkTimeout     time.Duration // bounds each city's refresh inside a refresh-all pass
	RefreshInterval time.Duration

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	UpstreamRPS    float64
	UpstreamBurst  int

	DegradedWindow   time.Duration
	DegradedErrorPct int

	ShutdownTimeout    time.Duration
	DrainTimeout       time.Duration
	DrainCheckInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Store struct {
		Backend string `yaml:"backend"`
		Path    string `yaml:"path"`
	} `yaml:"store"`

	Upstreams struct {
		GeocodingURL string `yaml:"geocoding_url"`
		ForecastURL  string `yaml:"forecast_url"`
		TimezoneURL  string `yaml:"timezone_url"`
		NewsURL      string `yaml:"news_url"`
		Timeout      string `yaml:"timeout"`
	} `yaml:"upstreams"`

	Refresh struct {
		Interval    string `yaml:"interval"`
		AddTimeout  string `yaml:"add_timeout"`
		BulkTimeout string `yaml:"bulk_timeout"`
	} `yaml:"refresh"`

	Reliability struct {
		RetryMaxAttempts int     `yaml:"retry_max_attempts"`
		RetryBaseDelay   string  `yaml:"retry_base_delay"`
		RetryMaxDelay    string  `yaml:"retry_max_delay"`
		UpstreamRPS      float64 `yaml:"upstream_rps"`
		UpstreamBurst    int     `yaml:"upstream_burst"`
	} `yaml:"reliability"`

	Lifecycle struct {
		DegradedWindow   string `yaml:"degraded_window"`
		DegradedErrorPct int    `yaml:"degraded_error_pct"`
	} `yaml:"lifecycle"`

	Shutdown struct {
		Timeout            string `yaml:"timeout"`
		DrainTimeout       string `yaml:"drain_timeout"`
		DrainCheckInterval string `yaml:"drain_check_interval"`
	} `yaml:"shutdown"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) relative
// to the working directory, with env overrides. A missing config file is not
// an error: the dashboard runs entirely on defaults so a fresh checkout works
// without setup. A .env file, when present, is loaded first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	var fc fileConfig
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = os.Getenv("PORT")
	if cfg.ServerPort == "" {
		cfg.ServerPort = fc.Server.Port
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.DataDir = strings.TrimSpace(os.Getenv("DATA_DIR"))
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: determine home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".weather-dashboard")
	}

	cfg.StoreBackend = strings.TrimSpace(strings.ToLower(os.Getenv("STORE_BACKEND")))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = strings.TrimSpace(strings.ToLower(fc.Store.Backend))
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = "file"
	}
	cfg.StorePath = strings.TrimSpace(fc.Store.Path)
	if cfg.StorePath == "" {
		switch cfg.StoreBackend {
		case "sqlite":
			cfg.StorePath = filepath.Join(cfg.DataDir, "cities.db")
		default:
			cfg.StorePath = filepath.Join(cfg.DataDir, "cities.json")
		}
	}

	cfg.GeocodingURL = fc.Upstreams.GeocodingURL
	if cfg.GeocodingURL == "" {
		cfg.GeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
	}
	cfg.ForecastURL = fc.Upstreams.ForecastURL
	if cfg.ForecastURL == "" {
		cfg.ForecastURL = "https://api.open-meteo.com/v1/forecast"
	}
	cfg.TimezoneURL = fc.Upstreams.TimezoneURL
	if cfg.TimezoneURL == "" {
		cfg.TimezoneURL = "https://timeapi.io/api/time/current/coordinate"
	}
	cfg.NewsURL = fc.Upstreams.NewsURL
	if cfg.NewsURL == "" {
		cfg.NewsURL = "https://newsapi.org/v2/everything"
	}
	cfg.NewsAPIKey = os.Getenv("NEWS_API_KEY")
	cfg.NewsEnabled = cfg.NewsAPIKey != ""

	cfg.UpstreamTimeout = parseDuration(fc.Upstreams.Timeout, 10*time.Second)
	cfg.AddTimeout = parseDuration(fc.Refresh.AddTimeout, 30*time.Second)
	cfg.BulkTimeout = parseDuration(fc.Refresh.BulkTimeout, 15*time.Second)
	cfg.RefreshInterval = parseDuration(fc.Refresh.Interval, 10*time.Minute)

	cfg.RetryAttempts = fc.Reliability.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	cfg.RetryBaseDelay = parseDuration(fc.Reliability.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Reliability.RetryMaxDelay, 2*time.Second)
	cfg.UpstreamRPS = fc.Reliability.UpstreamRPS
	if cfg.UpstreamRPS <= 0 {
		cfg.UpstreamRPS = 5
	}
	cfg.UpstreamBurst = fc.Reliability.UpstreamBurst
	if cfg.UpstreamBurst <= 0 {
		cfg.UpstreamBurst = 10
	}

	cfg.DegradedWindow = parseDuration(fc.Lifecycle.DegradedWindow, 30*time.Minute)
	cfg.DegradedErrorPct = fc.Lifecycle.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 50
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.DrainTimeout = parseDuration(fc.Shutdown.DrainTimeout, 20*time.Second)
	cfg.DrainCheckInterval = parseDuration(fc.Shutdown.DrainCheckInterval, 100*time.Millisecond)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation. The upstream timeout is capped at the
// bulk refresh timeout so a single slow call cannot outlive its refresh budget.
func validate(cfg *Config) error {
	switch cfg.StoreBackend {
	case "file", "sqlite":
		// valid
	default:
		return fmt.Errorf("store.backend must be file or sqlite, got %q", cfg.StoreBackend)
	}
	if cfg.BulkTimeout > cfg.AddTimeout {
		return fmt.Errorf("refresh.bulk_timeout (%s) must not exceed refresh.add_timeout (%s)", cfg.BulkTimeout, cfg.AddTimeout)
	}
	if cfg.UpstreamTimeout > cfg.BulkTimeout {
		cfg.UpstreamTimeout = cfg.BulkTimeout
	}
	return nil
}
