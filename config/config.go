package config

import (
	"os"
	"time"
)

// Config holds the service settings read from the environment
type Config struct {
	// Server
	ListenAddr string
	SubjectTTL time.Duration // lifetime of the subject assertion issued after a login

	// Attempts
	Store      string        // redis or memory
	RedisURL   string
	AttemptTTL time.Duration // how long an unanswered challenge survives

	// CASQUE SNR
	CasqueConf    string
	RadiusTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads the service settings from the environment with defaults
func Load() *Config {
	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":9000"),
		SubjectTTL: getEnvDuration("SUBJECT_TTL", 5*time.Minute),

		Store:      getEnv("STORE", "redis"),
		RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AttemptTTL: getEnvDuration("ATTEMPT_TTL", 5*time.Minute),

		CasqueConf:    getEnv("CASQUE_CONF", "casque.conf"),
		RadiusTimeout: getEnvDuration("RADIUS_TIMEOUT", 10*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
