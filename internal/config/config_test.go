package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:               "8081",
		APIBaseURL:         "https://wallet.example.com/api",
		APITimeout:         5 * time.Second,
		APIRPS:             10,
		SessionTTL:         time.Hour,
		MaxSessions:        100,
		CategoryCacheTTL:   time.Minute,
		DefaultPageSize:    5,
		RateLimitPerMinute: 60,
		LogLevel:           "info",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "empty API base URL",
			mutate:      func(c *Config) { c.APIBaseURL = "" },
			wantErr:     true,
			errorString: "wallet API base URL cannot be empty",
		},
		{
			name:        "API base URL with wrong scheme",
			mutate:      func(c *Config) { c.APIBaseURL = "ftp://wallet.example.com" },
			wantErr:     true,
			errorString: "invalid wallet API URL scheme 'ftp'",
		},
		{
			name:        "page size outside the selector options",
			mutate:      func(c *Config) { c.DefaultPageSize = 7 },
			wantErr:     true,
			errorString: "invalid default page size 7: must be one of [5 10 15 20]",
		},
		{
			name:        "session TTL too short",
			mutate:      func(c *Config) { c.SessionTTL = time.Second },
			wantErr:     true,
			errorString: "invalid session TTL 1s",
		},
		{
			name:        "unknown log level",
			mutate:      func(c *Config) { c.LogLevel = "verbose" },
			wantErr:     true,
			errorString: "invalid log level 'verbose'",
		},
		{
			name: "multiple errors are combined",
			mutate: func(c *Config) {
				c.Port = "0"
				c.MaxSessions = 0
			},
			wantErr:     true,
			errorString: "invalid max sessions 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Config.Validate() error = %q, want it to contain %q", err.Error(), tt.errorString)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	for _, key := range []string{"PORT", "WALLET_API_BASE_URL", "DEFAULT_PAGE_SIZE", "SESSION_TTL", "COOKIE_SECURE", "WALLET_API_RPS"} {
		t.Setenv(key, "")
	}

	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		if cfg.Port != "8081" {
			t.Errorf("Load() Port = %v, want 8081", cfg.Port)
		}
		if cfg.DefaultPageSize != 5 {
			t.Errorf("Load() DefaultPageSize = %v, want 5", cfg.DefaultPageSize)
		}
		if cfg.SessionTTL != 12*time.Hour {
			t.Errorf("Load() SessionTTL = %v, want 12h", cfg.SessionTTL)
		}
		if cfg.CookieSecure {
			t.Error("Load() CookieSecure should default to false")
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("defaults should validate: %v", err)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("WALLET_API_BASE_URL", "http://localhost:3000/api")
		t.Setenv("DEFAULT_PAGE_SIZE", "15")
		t.Setenv("SESSION_TTL", "30m")
		t.Setenv("COOKIE_SECURE", "true")
		t.Setenv("WALLET_API_RPS", "2.5")

		cfg := Load()

		if cfg.Port != "9090" {
			t.Errorf("Load() Port = %v, want 9090", cfg.Port)
		}
		if cfg.APIBaseURL != "http://localhost:3000/api" {
			t.Errorf("Load() APIBaseURL = %v", cfg.APIBaseURL)
		}
		if cfg.DefaultPageSize != 15 {
			t.Errorf("Load() DefaultPageSize = %v, want 15", cfg.DefaultPageSize)
		}
		if cfg.SessionTTL != 30*time.Minute {
			t.Errorf("Load() SessionTTL = %v, want 30m", cfg.SessionTTL)
		}
		if !cfg.CookieSecure {
			t.Error("Load() CookieSecure = false, want true")
		}
		if cfg.APIRPS != 2.5 {
			t.Errorf("Load() APIRPS = %v, want 2.5", cfg.APIRPS)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		t.Setenv("DEFAULT_PAGE_SIZE", "many")
		t.Setenv("SESSION_TTL", "forever")

		cfg := Load()

		if cfg.DefaultPageSize != 5 {
			t.Errorf("Load() DefaultPageSize = %v, want 5 (default for invalid input)", cfg.DefaultPageSize)
		}
		if cfg.SessionTTL != 12*time.Hour {
			t.Errorf("Load() SessionTTL = %v, want 12h (default for invalid input)", cfg.SessionTTL)
		}
	})
}
