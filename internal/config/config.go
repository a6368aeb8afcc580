// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port               string
	DBPath             string
	CORSAllowedOrigins []string
	Engine             EngineConfig
	Session            SessionConfig
}

// EngineConfig controls the connection to the external RAG engine.
type EngineConfig struct {
	Address        string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
}

// SessionConfig controls conversation history retention.
type SessionConfig struct {
	MaxHistory    int
	TTL           time.Duration
	SweepInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8000"),
		DBPath:             getEnv("DB_PATH", "./data/sessions.db"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		Engine: EngineConfig{
			Address:        getEnv("RAG_ENGINE_ADDR", "localhost:50051"),
			ConnectTimeout: getEnvDuration("RAG_CONNECT_TIMEOUT", 5*time.Second),
			RequestTimeout: getEnvDuration("RAG_REQUEST_TIMEOUT", 60*time.Second),
		},
		Session: SessionConfig{
			MaxHistory:    getEnvInt("MAX_HISTORY", 2),
			TTL:           getEnvDuration("SESSION_TTL", 24*time.Hour),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Engine.Address == "" {
		return fmt.Errorf("RAG_ENGINE_ADDR cannot be empty")
	}
	if c.Engine.ConnectTimeout <= 0 {
		return fmt.Errorf("RAG_CONNECT_TIMEOUT must be > 0")
	}
	if c.Engine.RequestTimeout <= 0 {
		return fmt.Errorf("RAG_REQUEST_TIMEOUT must be > 0")
	}
	if c.Session.MaxHistory < 0 {
		return fmt.Errorf("MAX_HISTORY must be >= 0")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
