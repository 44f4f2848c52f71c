package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

type rawCfg struct {
	// Server configuration
	Port    string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://spaces.example.com)"`
	EnvFile string `long:"env-file" env:"ENV_FILE" default:".env" description:"Dotenv file loaded before reading the environment"`

	// Upstream configuration
	AuthToken         string `long:"auth-token" env:"AUTH_TOKEN" description:"Session auth_token cookie (guest tokens are used when empty)"`
	CSRFToken         string `long:"csrf-token" env:"CSRF_TOKEN" description:"Session ct0 cookie sent as x-csrf-token"`
	UpstreamFile      string `long:"upstream-file" env:"UPSTREAM_FILE" description:"YAML file overriding the upstream operations"`
	UpstreamTimeout   int    `long:"upstream-timeout" env:"UPSTREAM_TIMEOUT" default:"30" description:"Upstream deadline per inbound request in seconds"`
	PageSize          int    `long:"page-size" env:"PAGE_SIZE" default:"20" description:"Timeline entries requested per page"`
	EnrichConcurrency int    `long:"enrich-concurrency" env:"ENRICH_CONCURRENCY" default:"10" description:"Maximum concurrent space lookups per request"`

	// Query limits
	DefaultCount int `long:"default-count" env:"DEFAULT_COUNT" default:"10" description:"Spaces returned when count is absent or invalid"`
	MaxCount     int `long:"max-count" env:"MAX_COUNT" default:"100" description:"Upper bound for the count query parameter"`

	// Logging
	LogFile   string `long:"log-file" env:"LOG_FILE" description:"Write logs to a rotating file instead of stdout"`
	LogFormat string `long:"log-format" env:"LOG_FORMAT" default:"text" choice:"text" choice:"json" description:"Log output format"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Spaces Comb/1.0" description:"User agent string for upstream requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load reads configuration from args and the environment. It returns nil, nil
// when help was requested.
func Load(args []string) (*Cfg, error) {
	if err := loadEnvFile(cmp.Or(os.Getenv("ENV_FILE"), ".env")); err != nil {
		return nil, err
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		AuthToken:         raw.AuthToken,
		CSRFToken:         raw.CSRFToken,
		UpstreamFile:      raw.UpstreamFile,
		UpstreamTimeout:   time.Duration(raw.UpstreamTimeout) * time.Second,
		PageSize:          raw.PageSize,
		EnrichConcurrency: raw.EnrichConcurrency,
		DefaultCount:      raw.DefaultCount,
		MaxCount:          raw.MaxCount,
		LogFile:           raw.LogFile,
		LogFormat:         raw.LogFormat,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

func (c *Cfg) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.DefaultCount <= 0 {
		return fmt.Errorf("default count must be positive, got %d", c.DefaultCount)
	}
	if c.MaxCount <= 0 {
		return fmt.Errorf("max count must be positive, got %d", c.MaxCount)
	}
	if c.DefaultCount > c.MaxCount {
		return fmt.Errorf("default count %d exceeds max count %d", c.DefaultCount, c.MaxCount)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.EnrichConcurrency <= 0 {
		return fmt.Errorf("enrich concurrency must be positive, got %d", c.EnrichConcurrency)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive, got %s", c.UpstreamTimeout)
	}
	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}
	return nil
}

// Variables already present in the environment take precedence over the file
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			slog.Debug("Timezone configured", "timezone", timezone)
		}
	}
	return nil
}
