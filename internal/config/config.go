package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the VAST ad server.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	ClickHouse ClickHouseConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
	Metrics    MetricsConfig
	Geo        GeoConfig
	Vast       VastConfig
}

type ServerConfig struct {
	Addr            string
	Env             string
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// ClickHouseConfig configures the analytics event sink.
type ClickHouseConfig struct {
	Enabled       bool
	Addr          string
	Database      string
	User          string
	Password      string
	FlushInterval time.Duration
	BatchSize     int
}

type AuthConfig struct {
	Enabled   bool
	MasterKey string
	SkipPaths []string
}

type RateLimitConfig struct {
	Enabled    bool
	ServeRPS   float64
	ServeBurst int
	MgmtRPS    float64
	MgmtBurst  int
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// GeoConfig configures GeoIP enrichment of recorded events.
type GeoConfig struct {
	Enabled      bool
	DatabasePath string
}

// VastConfig holds document generation settings.
type VastConfig struct {
	// TrackingBaseURL is the absolute URL tracking beacons point at.
	// When empty, the server derives it from the request host.
	TrackingBaseURL string
	// AdSystemName appears in the <AdSystem> element.
	AdSystemName string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("VASTSERVE_HTTP_ADDR", ":8080"),
			Env:             getEnv("VASTSERVE_ENV", "development"),
			ShutdownTimeout: getDurationEnv("VASTSERVE_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Enabled:  getBoolEnv("VASTSERVE_DB_ENABLED", false),
			Host:     getEnv("VASTSERVE_DB_HOST", "localhost"),
			Port:     getIntEnv("VASTSERVE_DB_PORT", 5432),
			User:     getEnv("VASTSERVE_DB_USER", "vastserve"),
			Password: getEnv("VASTSERVE_DB_PASSWORD", "vastserve_secret"),
			DBName:   getEnv("VASTSERVE_DB_NAME", "vastserve"),
			SSLMode:  getEnv("VASTSERVE_DB_SSLMODE", "disable"),
			MaxConns: getIntEnv("VASTSERVE_DB_MAX_CONNS", 25),
			MinConns: getIntEnv("VASTSERVE_DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("VASTSERVE_REDIS_ENABLED", false),
			Addr:     getEnv("VASTSERVE_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("VASTSERVE_REDIS_PASSWORD", ""),
			DB:       getIntEnv("VASTSERVE_REDIS_DB", 0),
		},
		ClickHouse: ClickHouseConfig{
			Enabled:       getBoolEnv("VASTSERVE_CLICKHOUSE_ENABLED", false),
			Addr:          getEnv("VASTSERVE_CLICKHOUSE_ADDR", "localhost:9000"),
			Database:      getEnv("VASTSERVE_CLICKHOUSE_DB", "vastserve"),
			User:          getEnv("VASTSERVE_CLICKHOUSE_USER", "default"),
			Password:      getEnv("VASTSERVE_CLICKHOUSE_PASSWORD", ""),
			FlushInterval: getDurationEnv("VASTSERVE_CLICKHOUSE_FLUSH_INTERVAL", 5*time.Second),
			BatchSize:     getIntEnv("VASTSERVE_CLICKHOUSE_BATCH_SIZE", 1000),
		},
		Auth: AuthConfig{
			Enabled:   getBoolEnv("VASTSERVE_AUTH_ENABLED", false),
			MasterKey: getEnv("VASTSERVE_API_KEY_MASTER", ""),
			SkipPaths: getSliceEnv("VASTSERVE_AUTH_SKIP_PATHS", []string{"/health", "/metrics", "/ads", "/events", "/impressions"}),
		},
		RateLimit: RateLimitConfig{
			Enabled:    getBoolEnv("VASTSERVE_RATE_LIMIT_ENABLED", true),
			ServeRPS:   getFloatEnv("VASTSERVE_RATE_LIMIT_RPS", 1000),
			ServeBurst: getIntEnv("VASTSERVE_RATE_LIMIT_BURST", 100),
			MgmtRPS:    getFloatEnv("VASTSERVE_RATE_LIMIT_MGMT_RPS", 100),
			MgmtBurst:  getIntEnv("VASTSERVE_RATE_LIMIT_MGMT_BURST", 20),
		},
		Log: LogConfig{
			Level:  getEnv("VASTSERVE_LOG_LEVEL", "info"),
			Format: getEnv("VASTSERVE_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolEnv("VASTSERVE_METRICS_ENABLED", true),
			Path:    getEnv("VASTSERVE_METRICS_PATH", "/metrics"),
		},
		Geo: GeoConfig{
			Enabled:      getBoolEnv("VASTSERVE_GEO_ENABLED", false),
			DatabasePath: getEnv("VASTSERVE_GEO_DB_PATH", "/app/data/GeoLite2-City.mmdb"),
		},
		Vast: VastConfig{
			TrackingBaseURL: getEnv("VASTSERVE_TRACKING_BASE_URL", ""),
			AdSystemName:    getEnv("VASTSERVE_AD_SYSTEM_NAME", "MOTOV Ad Server"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Auth.Enabled && c.Auth.MasterKey == "" {
		return fmt.Errorf("VASTSERVE_API_KEY_MASTER is required when auth is enabled")
	}
	if c.Vast.TrackingBaseURL != "" {
		u, err := url.Parse(c.Vast.TrackingBaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("VASTSERVE_TRACKING_BASE_URL must be an absolute URL")
		}
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Helper functions for reading environment variables

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getFloatEnv(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getSliceEnv(key string, def []string) []string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				result = append(result, p)
			}
		}
		return result
	}
	return def
}
