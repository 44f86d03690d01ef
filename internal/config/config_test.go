package config

import (
	"os"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Setenv("DATABASE_PATH", "/tmp/dispensa.db")
		t.Setenv("HTTP_ADDR", ":9090")
		t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000, https://dispensa.local")
		t.Setenv("LOG_MODE", "dev")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DatabasePath != "/tmp/dispensa.db" {
			t.Errorf("Expected DatabasePath to be '/tmp/dispensa.db', got '%s'", cfg.DatabasePath)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Errorf("Expected HTTPAddr to be ':9090', got '%s'", cfg.HTTPAddr)
		}
		if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://dispensa.local" {
			t.Errorf("Expected two trimmed origins, got %v", cfg.AllowedOrigins)
		}
		if cfg.LogMode != "dev" {
			t.Errorf("Expected LogMode to be 'dev', got '%s'", cfg.LogMode)
		}
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("DATABASE_PATH", "/tmp/dispensa.db")
		os.Unsetenv("HTTP_ADDR")
		os.Unsetenv("ALLOWED_ORIGINS")
		os.Unsetenv("LOG_MODE")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("Expected default HTTPAddr ':8080', got '%s'", cfg.HTTPAddr)
		}
		if len(cfg.AllowedOrigins) != 0 {
			t.Errorf("Expected no origins by default, got %v", cfg.AllowedOrigins)
		}
		if cfg.LogMode != "prod" {
			t.Errorf("Expected default LogMode 'prod', got '%s'", cfg.LogMode)
		}
	})

	t.Run("MissingDatabasePath", func(t *testing.T) {
		os.Unsetenv("DATABASE_PATH")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing DATABASE_PATH, got nil")
		}
		expectedError := "DATABASE_PATH environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("InvalidLogMode", func(t *testing.T) {
		t.Setenv("DATABASE_PATH", "/tmp/dispensa.db")
		t.Setenv("LOG_MODE", "verbose")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for invalid LOG_MODE, got nil")
		}
	})
}
