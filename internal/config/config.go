package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/logging"
	"github.com/ndewijer/Finance-Portfolio-Tracker/internal/yahoo"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig
	Cache  CacheConfig
	Price  PriceConfig
	Yahoo  YahooConfig
	CORS   CORSConfig
	Log    logging.Config
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port      string
	Host      string
	Addr      string // Combined host:port for convenience
	PublicURL string // Base of share links
}

// CacheConfig holds quote cache configuration
type CacheConfig struct {
	Path            string
	TTL             time.Duration
	CleanupSchedule string // cron expression or @every descriptor
}

// PriceConfig bounds price lookups
type PriceConfig struct {
	Timeout        time.Duration
	MaxConcurrency int
	MaxRetries     uint64
}

// YahooConfig holds the upstream endpoints
type YahooConfig struct {
	ChartURL  string
	SearchURL string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return FromEnv()
}

// FromEnv builds the configuration from the current environment only.
func FromEnv() (*Config, error) {
	p := &parser{}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Cache: CacheConfig{
			Path:            getEnv("CACHE_DB_PATH", ":memory:"),
			TTL:             p.duration("QUOTE_CACHE_TTL", time.Minute),
			CleanupSchedule: getEnv("CACHE_CLEANUP_SCHEDULE", "@every 5m"),
		},
		Price: PriceConfig{
			Timeout:        p.duration("PRICE_TIMEOUT", 5*time.Second),
			MaxConcurrency: p.positiveInt("PRICE_MAX_CONCURRENCY", 8),
			MaxRetries:     uint64(p.nonNegativeInt("PRICE_MAX_RETRIES", 2)),
		},
		Yahoo: YahooConfig{
			ChartURL:  strings.TrimRight(getEnv("YAHOO_BASE_URL", yahoo.DefaultChartURL), "/"),
			SearchURL: getEnv("YAHOO_SEARCH_URL", yahoo.DefaultSearchURL),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Log: logging.Config{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: p.boolean("LOG_PRETTY", false),
		},
	}
	if p.err != nil {
		return nil, p.err
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)
	config.Server.PublicURL = strings.TrimRight(getEnv("PUBLIC_URL", "http://"+config.Server.Addr), "/")

	if config.Price.Timeout <= 0 {
		return nil, fmt.Errorf("invalid PRICE_TIMEOUT %q: must be positive", os.Getenv("PRICE_TIMEOUT"))
	}

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parser keeps the first parse error so Load reports one clear problem.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		p.fail(key, value, err)
		return def
	}
	if d < 0 {
		p.fail(key, value, fmt.Errorf("must not be negative"))
		return def
	}
	return d
}

func (p *parser) nonNegativeInt(key string, def int) int {
	value := getEnv(key, "")
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, err)
		return def
	}
	if n < 0 {
		p.fail(key, value, fmt.Errorf("must not be negative"))
		return def
	}
	return n
}

func (p *parser) positiveInt(key string, def int) int {
	n := p.nonNegativeInt(key, def)
	if n == 0 && p.err == nil {
		p.fail(key, getEnv(key, ""), fmt.Errorf("must be positive"))
		return def
	}
	return n
}

func (p *parser) boolean(key string, def bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return def
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		p.fail(key, value, err)
		return def
	}
	return b
}
