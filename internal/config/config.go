package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Host string

	// Auth
	AuthKey string // Bearer token for authentication, empty = no auth

	// Upstream endpoints
	APIURL    string
	WebURL    string
	ExitIPURL string
	WorkerURL string // deployed aggregator, used by the worker tile variant
	UserAgent string
	Timeout   time.Duration

	// Egress nodes (name -> proxy URL)
	NodesFile string
	Nodes     map[string]string

	// Upstream rate limits, requests per minute, 0 = unlimited
	APIRateLimit int
	WebRateLimit int

	// Cache, TTL 0 = disabled
	CacheTTL      time.Duration
	CacheBackend  string // memory or redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Persistent report history
	PersistentCache     bool
	PersistentCacheType string // sqlite, mysql or postgres
	PersistentCacheDSN  string
	PersistentCacheTTL  time.Duration

	// Local GeoLite2 databases
	ASNDBPath  string
	CityDBPath string

	// Logging
	LogLevel  string
	LogFormat string
}

const (
	DefaultAPIURL    = "https://my.ippure.com/v1/info"
	DefaultWebURL    = "https://ippure.com/"
	DefaultExitIPURL = "http://ip-api.com/json/?fields=query"
	DefaultUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15"
	DefaultTimeout   = 15 * time.Second
)

// Load reads .env files (when present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		Port:    envOrDefault("PORT", "8080"),
		Host:    envOrDefault("HOST", "0.0.0.0"),
		AuthKey: os.Getenv("AUTH_KEY"),

		APIURL:    envOrDefault("IPPURE_API_URL", DefaultAPIURL),
		WebURL:    envOrDefault("IPPURE_WEB_URL", DefaultWebURL),
		ExitIPURL: envOrDefault("EXIT_IP_URL", DefaultExitIPURL),
		WorkerURL: os.Getenv("WORKER_URL"),
		UserAgent: envOrDefault("USER_AGENT", DefaultUserAgent),
		Timeout:   time.Duration(envIntOrDefault("TIMEOUT_SECONDS", 15)) * time.Second,

		NodesFile: envOrDefault("NODES_FILE", "nodes.yaml"),

		APIRateLimit: envIntOrDefault("API_RATE_LIMIT", 60),
		WebRateLimit: envIntOrDefault("WEB_RATE_LIMIT", 30),

		CacheTTL:      time.Duration(envIntOrDefault("CACHE_TTL_MINUTES", 0)) * time.Minute,
		CacheBackend:  strings.ToLower(envOrDefault("CACHE_BACKEND", "memory")),
		RedisAddr:     envOrDefault("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envIntOrDefault("REDIS_DB", 0),

		PersistentCache:     os.Getenv("PERSISTENT_CACHE") == "true",
		PersistentCacheType: strings.ToLower(envOrDefault("PERSISTENT_CACHE_TYPE", "sqlite")),
		PersistentCacheDSN:  envOrDefault("PERSISTENT_CACHE_DSN", "data/reports.db"),
		PersistentCacheTTL:  time.Duration(envIntOrDefault("PERSISTENT_CACHE_TTL_HOURS", 24)) * time.Hour,

		ASNDBPath:  envOrDefault("ASN_MMDB_PATH", "data/GeoLite2-ASN.mmdb"),
		CityDBPath: envOrDefault("CITY_MMDB_PATH", "data/GeoLite2-City.mmdb"),

		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "console"),
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	nodes, err := LoadNodes(cfg.NodesFile)
	if err != nil {
		return nil, err
	}
	cfg.Nodes = nodes

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
