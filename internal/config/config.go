// Package config provides environment-based configuration for the engine.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the runtime configuration for the server and CLI. Values are
// read from the environment; a .env file is loaded by the command layer
// before this package runs.
type Config struct {
	// APIKey is the Gemini API key. Required.
	APIKey string

	// DatabaseURL is the PostgreSQL connection URL for the vector memory.
	// Optional; when empty the engine falls back to in-process memory and
	// retrieved context does not survive restarts.
	DatabaseURL string

	// Port is the HTTP listen port.
	Port int

	// MinIdeas is the minimum number of raw ideas divergent ideation asks for.
	MinIdeas int

	// TopPlays is the number of plays convergent refinement keeps.
	TopPlays int

	// MemoryTopK is the number of records retrieved per memory query.
	MemoryTopK int
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:      os.Getenv("GEMINI_API_KEY"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        envInt("PORT", 8080),
		MinIdeas:    envInt("MIN_IDEAS", 10),
		TopPlays:    envInt("TOP_PLAYS", 3),
		MemoryTopK:  envInt("MEMORY_TOP_K", 5),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("config error: GEMINI_API_KEY is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.MinIdeas < 1 {
		return fmt.Errorf("config error: MIN_IDEAS must be positive, got %d", c.MinIdeas)
	}
	if c.TopPlays < 1 {
		return fmt.Errorf("config error: TOP_PLAYS must be positive, got %d", c.TopPlays)
	}
	if c.TopPlays > c.MinIdeas {
		return fmt.Errorf("config error: TOP_PLAYS (%d) cannot exceed MIN_IDEAS (%d)", c.TopPlays, c.MinIdeas)
	}
	if c.MemoryTopK < 1 {
		return fmt.Errorf("config error: MEMORY_TOP_K must be positive, got %d", c.MemoryTopK)
	}
	return nil
}

// envInt reads an integer environment variable, falling back to def when the
// variable is unset or not a valid integer.
func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
