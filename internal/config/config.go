package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	Port    string
	BaseURL string // public base URL of this service, used by the dashboard client

	MongoURI string
	MongoDB  string

	LogLevel  string
	LogFormat string // json or console

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	RedisAddr string // empty disables the dashboard read cache
	CacheTTL  time.Duration

	KafkaBrokers []string // empty disables status event publishing
	KafkaTopic   string

	SepaBaseURL      string
	SepaClientID     string
	SepaClientSecret string
	SepaPollInterval time.Duration // 0 disables the transfer status poller
}

// Load reads configuration from the environment with sensible defaults.
// MONGOURI is the only required variable.
func Load() *Config {
	port := getEnv("PORT", "8080")
	return &Config{
		Port:    port,
		BaseURL: getEnv("BASE_URL", "http://localhost:"+port),

		MongoURI: os.Getenv("MONGOURI"),
		MongoDB:  getEnv("MONGODB", "bankdb"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		JWTSecret:  getEnv("JWT_SECRET", "dev-secret"),
		AccessTTL:  getEnvDuration("JWT_ACCESS_TTL", time.Hour),
		RefreshTTL: getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		CacheTTL:  getEnvDuration("CACHE_TTL", 30*time.Second),

		KafkaBrokers: splitAndTrim(os.Getenv("KAFKA_BROKERS"), ","),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "bank.status-events"),

		SepaBaseURL:      os.Getenv("SEPA_API_BASE_URL"),
		SepaClientID:     os.Getenv("SEPA_CLIENT_ID"),
		SepaClientSecret: os.Getenv("SEPA_CLIENT_SECRET"),
		SepaPollInterval: getEnvDuration("SEPA_POLL_INTERVAL", 0),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// allow plain seconds
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func splitAndTrim(s, sep string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
