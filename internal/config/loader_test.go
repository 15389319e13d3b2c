package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		t.Parallel()

		cfg, err := Parse(envMap(nil))
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		if cfg.HTTPPort != 8080 || cfg.Addr() != ":8080" {
			t.Fatalf("expected default port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.Store != StoreJSON || cfg.StorePath != "bookings.json" {
			t.Fatalf("unexpected store defaults: %q %q", cfg.Store, cfg.StorePath)
		}
		if cfg.RedisKey != "roombook:ledger" || cfg.RenderOutput != "out.jpg" {
			t.Fatalf("unexpected defaults: %+v", cfg)
		}
		if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
			t.Fatalf("unexpected logging defaults: %q %q", cfg.LogLevel, cfg.LogFormat)
		}
	})

	t.Run("parses every field", func(t *testing.T) {
		t.Parallel()

		cfg, err := Parse(envMap(map[string]string{
			"ROOMBOOK_HTTP_PORT":      "9090",
			"ROOMBOOK_STORE":          "Redis",
			"ROOMBOOK_REDIS_ADDR":     "localhost:6379",
			"ROOMBOOK_REDIS_PASSWORD": "pw",
			"ROOMBOOK_REDIS_DB":       "2",
			"ROOMBOOK_REDIS_KEY":      "ledger:test",
			"ROOMBOOK_TIMEZONE":       "UTC",
			"ROOMBOOK_PUBLIC_URL":     "https://rooms.example.org/",
			"ROOMBOOK_LOG_LEVEL":      "DEBUG",
			"ROOMBOOK_LOG_FORMAT":     "text",
			"ROOMBOOK_RATE_LIMIT":     "0.5",
			"ROOMBOOK_RATE_BURST":     "3",
			"ROOMBOOK_CORS_ORIGINS":   "https://a.example.org, ,https://b.example.org",
		}))
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		if cfg.HTTPPort != 9090 || cfg.Store != StoreRedis || cfg.RedisDB != 2 || cfg.RedisPassword != "pw" {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if cfg.Location.String() != "UTC" {
			t.Fatalf("expected UTC location, got %s", cfg.Location)
		}
		if cfg.PublicURL != "https://rooms.example.org" {
			t.Fatalf("expected trailing slash to be trimmed, got %q", cfg.PublicURL)
		}
		if cfg.LogLevel != "debug" || cfg.RateLimit != 0.5 || cfg.RateBurst != 3 {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.org" {
			t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
		}
	})

	t.Run("redis store requires an address", func(t *testing.T) {
		t.Parallel()

		_, err := Parse(envMap(map[string]string{"ROOMBOOK_STORE": "redis"}))
		if err == nil || err.Error() != "required environment variables are not set: ROOMBOOK_REDIS_ADDR" {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("zero rate limit disables limiting", func(t *testing.T) {
		t.Parallel()

		cfg, err := Parse(envMap(map[string]string{"ROOMBOOK_RATE_LIMIT": "0"}))
		if err != nil {
			t.Fatalf("Parse returned error: %v", err)
		}
		if cfg.RateLimit != 0 {
			t.Fatalf("expected rate limit 0, got %v", cfg.RateLimit)
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		t.Parallel()

		_, err := Parse(envMap(map[string]string{
			"ROOMBOOK_HTTP_PORT":  "http",
			"ROOMBOOK_STORE":      "mongo",
			"ROOMBOOK_TIMEZONE":   "Mars/Olympus",
			"ROOMBOOK_RATE_BURST": "0",
			"ROOMBOOK_RATE_LIMIT": "-1",
		}))
		if err == nil {
			t.Fatalf("expected error")
		}
		for _, key := range []string{"ROOMBOOK_HTTP_PORT", "ROOMBOOK_STORE", "ROOMBOOK_TIMEZONE", "ROOMBOOK_RATE_BURST", "ROOMBOOK_RATE_LIMIT"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roombook.env")
	content := "ROOMBOOK_HTTP_PORT=7070\nROOMBOOK_STORE_PATH=/var/lib/roombook/bookings.json\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("ROOMBOOK_ENV_FILE", path)
	t.Setenv("ROOMBOOK_STORE_PATH", "explicit.json")
	// godotenv sets variables that are unset; t.Setenv restores the original value.
	t.Setenv("ROOMBOOK_HTTP_PORT", "")
	os.Unsetenv("ROOMBOOK_HTTP_PORT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPPort != 7070 {
		t.Fatalf("expected port from env file, got %d", cfg.HTTPPort)
	}
	if cfg.StorePath != "explicit.json" {
		t.Fatalf("expected process environment to win, got %q", cfg.StorePath)
	}
}

func TestLoad_MissingEnvFile(t *testing.T) {
	t.Setenv("ROOMBOOK_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing env file")
	}
}
