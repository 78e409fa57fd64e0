// Package config loads runtime configuration for the marketplace binaries.
//
// Values come from the process environment. A .env file in the working
// directory is loaded first when present; variables already set in the
// environment win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every section used by the server, the backfill job and the CLI.
type Config struct {
	Service   ServiceConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Profiling ProfilingConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Uploads   UploadsConfig
	Client    ClientConfig
	Geocode   GeocodeConfig
	Backfill  BackfillConfig
}

// ServiceConfig identifies the running binary and its HTTP lifecycle.
type ServiceConfig struct {
	Name                string
	Version             string
	Env                 string
	Port                string
	ShutdownTimeout     string
	ReadinessDrainDelay string
}

// LoggingConfig sets the zerolog level.
type LoggingConfig struct {
	Level string
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled    bool
	Endpoint   string
	SampleRate float64
}

// ProfilingConfig configures continuous profiling via Pyroscope.
type ProfilingConfig struct {
	Enabled  bool
	Endpoint string
}

// DatabaseConfig configures the PostgreSQL pool.
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	AutoMigrate bool
}

// SessionConfig configures server-side login sessions.
type SessionConfig struct {
	TTL string
}

// UploadsConfig configures where product images are stored and served.
type UploadsConfig struct {
	Dir       string
	PublicURL string
	MaxBytes  int64
}

// ClientConfig configures the outbound API client.
type ClientConfig struct {
	BaseURL       string
	Timeout       string
	UploadTimeout string
	StoragePath   string
}

// GeocodeConfig configures the third-party geocoding provider.
type GeocodeConfig struct {
	BaseURL   string
	APIKey    string
	Country   string
	Timeout   string
	CachePath string
}

// BackfillConfig configures the postal-code backfill job.
type BackfillConfig struct {
	Delay  string
	DryRun bool
}

const (
	defaultShutdownTimeout     = 10 * time.Second
	defaultReadinessDrainDelay = 5 * time.Second
	defaultSessionTTL          = 24 * time.Hour
	defaultClientTimeout       = 10 * time.Second
	defaultUploadTimeout       = 60 * time.Second
	defaultGeocodeTimeout      = 10 * time.Second
	defaultBackfillDelay       = 500 * time.Millisecond
)

// Load reads .env (if any) and the environment into a Config.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Service: ServiceConfig{
			Name:                getEnv("SERVICE_NAME", "marketplace"),
			Version:             getEnv("SERVICE_VERSION", "dev"),
			Env:                 getEnv("ENV", "development"),
			Port:                getEnv("PORT", "8080"),
			ShutdownTimeout:     getEnv("SHUTDOWN_TIMEOUT", defaultShutdownTimeout.String()),
			ReadinessDrainDelay: getEnv("READINESS_DRAIN_DELAY", defaultReadinessDrainDelay.String()),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tracing: TracingConfig{
			Enabled:    getEnvBool("TRACING_ENABLED", false),
			Endpoint:   getEnv("OTEL_COLLECTOR_ENDPOINT", "localhost:4318"),
			SampleRate: getEnvFloat("OTEL_SAMPLE_RATE", 0.1),
		},
		Profiling: ProfilingConfig{
			Enabled:  getEnvBool("PROFILING_ENABLED", false),
			Endpoint: getEnv("PYROSCOPE_ENDPOINT", "http://localhost:4040"),
		},
		Database: DatabaseConfig{
			URL:         getEnv("DATABASE_URL", ""),
			MaxConns:    getEnvInt("DB_MAX_CONNS", 10),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Session: SessionConfig{
			TTL: getEnv("SESSION_TTL", defaultSessionTTL.String()),
		},
		Uploads: UploadsConfig{
			Dir:       getEnv("UPLOAD_DIR", "data/uploads"),
			PublicURL: getEnv("UPLOAD_PUBLIC_URL", "/uploads"),
			MaxBytes:  int64(getEnvInt("UPLOAD_MAX_BYTES", 10<<20)),
		},
		Client: ClientConfig{
			BaseURL:       getEnv("API_BASE_URL", ""),
			Timeout:       getEnv("API_TIMEOUT", defaultClientTimeout.String()),
			UploadTimeout: getEnv("API_UPLOAD_TIMEOUT", defaultUploadTimeout.String()),
			StoragePath:   getEnv("CLIENT_STORAGE_PATH", defaultStoragePath()),
		},
		Geocode: GeocodeConfig{
			BaseURL:   getEnv("GEOCODE_BASE_URL", "https://geocode.maps.co"),
			APIKey:    getEnv("GEOCODE_API_KEY", ""),
			Country:   getEnv("GEOCODE_COUNTRY", "fr"),
			Timeout:   getEnv("GEOCODE_TIMEOUT", defaultGeocodeTimeout.String()),
			CachePath: getEnv("GEOCODE_CACHE_PATH", ""),
		},
		Backfill: BackfillConfig{
			Delay:  getEnv("BACKFILL_DELAY", defaultBackfillDelay.String()),
			DryRun: getEnvBool("BACKFILL_DRY_RUN", false),
		},
	}
}

// Validate checks the settings the HTTP server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Service.Port) == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("OTEL_SAMPLE_RATE must be within [0,1], got %v", c.Tracing.SampleRate))
	}
	if c.Uploads.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if err := validateUploadPrefix(c.Uploads.PublicURL); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// reservedPrefixes are the server's own top-level routes.
var reservedPrefixes = []string{"api", "health", "ready", "metrics"}

// validateUploadPrefix rejects an upload mount that would swallow or shadow
// the server's other routes.
func validateUploadPrefix(publicURL string) error {
	prefix := strings.Trim(strings.TrimSpace(publicURL), "/")
	if prefix == "" {
		return errors.New("UPLOAD_PUBLIC_URL must name a path below /")
	}
	first, _, _ := strings.Cut(prefix, "/")
	for _, reserved := range reservedPrefixes {
		if strings.EqualFold(first, reserved) {
			return fmt.Errorf("UPLOAD_PUBLIC_URL %q collides with the /%s routes", publicURL, reserved)
		}
	}
	return nil
}

// ValidateBackfill checks the settings the backfill job needs.
func (c *Config) ValidateBackfill() error {
	var errs []error
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if strings.TrimSpace(c.Geocode.APIKey) == "" {
		errs = append(errs, errors.New("GEOCODE_API_KEY is required"))
	}
	if strings.TrimSpace(c.Geocode.BaseURL) == "" {
		errs = append(errs, errors.New("GEOCODE_BASE_URL is required"))
	}
	return errors.Join(errs...)
}

// ValidateClient checks the settings the API client needs.
func (c *Config) ValidateClient() error {
	if strings.TrimSpace(c.Client.BaseURL) == "" {
		return errors.New("API_BASE_URL is required")
	}
	return nil
}

// GetShutdownTimeoutDuration returns how long shutdown may take.
func (c *Config) GetShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.Service.ShutdownTimeout, defaultShutdownTimeout)
}

// GetReadinessDrainDelayDuration returns how long /ready reports 503 before shutdown.
func (c *Config) GetReadinessDrainDelayDuration() time.Duration {
	d := parseDuration(c.Service.ReadinessDrainDelay, defaultReadinessDrainDelay)
	if d < 0 {
		return 0
	}
	return d
}

// GetSessionTTLDuration returns the session lifetime.
func (c *Config) GetSessionTTLDuration() time.Duration {
	return parseDuration(c.Session.TTL, defaultSessionTTL)
}

// GetClientTimeout returns the timeout for JSON API calls.
func (c *Config) GetClientTimeout() time.Duration {
	return parseDuration(c.Client.Timeout, defaultClientTimeout)
}

// GetClientUploadTimeout returns the timeout for multipart uploads.
func (c *Config) GetClientUploadTimeout() time.Duration {
	return parseDuration(c.Client.UploadTimeout, defaultUploadTimeout)
}

// GetGeocodeTimeout returns the per-request geocoding timeout.
func (c *Config) GetGeocodeTimeout() time.Duration {
	return parseDuration(c.Geocode.Timeout, defaultGeocodeTimeout)
}

// GetBackfillDelay returns the pause after each geocode query, never negative.
func (c *Config) GetBackfillDelay() time.Duration {
	d := parseDuration(c.Backfill.Delay, defaultBackfillDelay)
	if d < 0 {
		return 0
	}
	return d
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".marketplace-session.json"
	}
	return filepath.Join(dir, "marketplace", "session.json")
}
