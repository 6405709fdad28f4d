package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values loaded from environment variables.
// Redis, Mongo and Kafka are optional; the service falls back to in-process stores when
// they are not configured.
type Config struct {
	Env                string
	HTTPAddr           string
	BackendURL         string
	BackendToken       string
	BackendTimeout     time.Duration
	Location           *time.Location
	RedisAddr          string
	SpotCacheTTL       time.Duration
	SessionIdleTTL     time.Duration
	MongoURI           string
	MongoDB            string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaGroupID       string
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	MetricsEnabled     bool
}

// Load reads an optional .env file and parses configuration from the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		BackendURL:       strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8000"), "/"),
		BackendToken:     os.Getenv("BACKEND_TOKEN"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "parkshare"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", ""),
		KafkaGroupID:     getEnv("KAFKA_GROUP_ID", "parkshare-booking"),
	}
	brokers := getEnv("KAFKA_BROKERS", "")
	if brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	loc, err := time.LoadLocation(getEnv("SPOT_TIMEZONE", "America/Sao_Paulo"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid SPOT_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	timeout, err := parseDurationEnv("BACKEND_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	cfg.BackendTimeout = timeout

	ttl, err := parseDurationEnv("SPOT_CACHE_TTL", time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.SpotCacheTTL = ttl

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	idle, err := parseDurationEnv("SESSION_IDLE_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionIdleTTL = idle

	retryStr := getEnv("RETRY_BACKOFF", "1s,5s,30s")
	for _, raw := range strings.Split(retryStr, ",") {
		val := strings.TrimSpace(raw)
		if val == "" {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	metrics, err := parseBoolEnv("METRICS_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	cfg.MetricsEnabled = metrics

	if cfg.BackendURL == "" {
		return Config{}, fmt.Errorf("BACKEND_URL is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.MongoURI == "" {
		return Config{}, fmt.Errorf("KAFKA_BROKERS requires MONGO_URI for the outbox")
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
