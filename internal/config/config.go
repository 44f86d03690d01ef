package config

import (
	"fmt"
	"os"
	"strings"
)

// Config holds the configuration for the application.
type Config struct {
	HTTPAddr     string
	DatabasePath string

	// CORS origins allowed to call the API, comma separated in the env.
	AllowedOrigins []string

	// LogMode selects the zap preset: "dev" or "prod".
	LogMode string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		return nil, fmt.Errorf("DATABASE_PATH environment variable not set")
	}

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	var origins []string
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	mode := os.Getenv("LOG_MODE")
	if mode == "" {
		mode = "prod"
	}
	if mode != "dev" && mode != "prod" {
		return nil, fmt.Errorf("LOG_MODE must be \"dev\" or \"prod\", got %q", mode)
	}

	return &Config{
		HTTPAddr:       addr,
		DatabasePath:   dbPath,
		AllowedOrigins: origins,
		LogMode:        mode,
	}, nil
}
