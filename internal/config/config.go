package config

import (
	"os"
	"time"
)

// Config is the service configuration read from the environment. External
// service URLs are optional: components without a URL fall back to their
// in-process dev implementations.
type Config struct {
	Port       string
	PolicyPath string

	RedisAddr string // empty selects the in-memory session store and locker

	SessionTTL    time.Duration
	LockTTL       time.Duration
	SweepInterval time.Duration

	TransactionServiceURL   string // empty selects the biller simulator
	ConfigServiceURL        string
	BillerMappingServiceURL string
	BinRoutingServiceURL    string
}

// FromEnv builds the configuration from environment variables, applying
// defaults suitable for local development.
func FromEnv() Config {
	return Config{
		Port:                    envOr("PORT", "8080"),
		PolicyPath:              os.Getenv("GATEWAY_POLICY_FILE"),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		SessionTTL:              durationOr("SESSION_TTL", 30*time.Minute),
		LockTTL:                 durationOr("SESSION_LOCK_TTL", 2*time.Minute),
		SweepInterval:           durationOr("SESSION_SWEEP_INTERVAL", time.Minute),
		TransactionServiceURL:   os.Getenv("TRANSACTION_SERVICE_URL"),
		ConfigServiceURL:        os.Getenv("CONFIG_SERVICE_URL"),
		BillerMappingServiceURL: os.Getenv("BILLER_MAPPING_SERVICE_URL"),
		BinRoutingServiceURL:    os.Getenv("BIN_ROUTING_SERVICE_URL"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}
