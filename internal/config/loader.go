package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends accepted by ROOMBOOK_STORE.
const (
	StoreJSON   = "json"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config captures environment driven configuration for the booking tools.
type Config struct {
	HTTPPort int

	Store     string
	StorePath string
	SQLiteDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	Location     *time.Location
	RenderOutput string
	PublicURL    string

	LogLevel  string
	LogFormat string

	// RateLimit is in requests per second per client; zero disables limiting.
	RateLimit   float64
	RateBurst   int
	CORSOrigins []string
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		HTTPPort:     8080,
		Store:        StoreJSON,
		StorePath:    "bookings.json",
		SQLiteDSN:    "bookings.db",
		RedisKey:     "roombook:ledger",
		Location:     time.Local,
		RenderOutput: "out.jpg",
		LogLevel:     "info",
		LogFormat:    "json",
		RateLimit:    5,
		RateBurst:    10,
	}
}

// Load reads an optional dotenv file and then parses the process environment.
//
// ROOMBOOK_ENV_FILE names the dotenv file explicitly and must exist when set;
// otherwise a ".env" in the working directory is used if present. Variables that
// are already set in the environment take precedence over the file.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}
	return Parse(os.Getenv)
}

func loadEnvFile() error {
	if path := strings.TrimSpace(os.Getenv("ROOMBOOK_ENV_FILE")); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Parse builds a Config from getenv, applying defaults for unset variables.
// Missing and invalid variables are collected and reported together.
func Parse(getenv func(string) string) (Config, error) {
	cfg := Default()
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	get := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	if value := get("ROOMBOOK_HTTP_PORT"); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "ROOMBOOK_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if value := get("ROOMBOOK_STORE"); value != "" {
		switch store := strings.ToLower(value); store {
		case StoreJSON, StoreSQLite, StoreRedis:
			cfg.Store = store
		default:
			invalid = append(invalid, "ROOMBOOK_STORE")
		}
	}
	if value := get("ROOMBOOK_STORE_PATH"); value != "" {
		cfg.StorePath = value
	}
	if value := get("ROOMBOOK_SQLITE_DSN"); value != "" {
		cfg.SQLiteDSN = value
	}

	cfg.RedisAddr = get("ROOMBOOK_REDIS_ADDR")
	if cfg.Store == StoreRedis && cfg.RedisAddr == "" {
		missing = append(missing, "ROOMBOOK_REDIS_ADDR")
	}
	cfg.RedisPassword = getenv("ROOMBOOK_REDIS_PASSWORD")
	if value := get("ROOMBOOK_REDIS_DB"); value != "" {
		db, err := strconv.Atoi(value)
		if err != nil || db < 0 {
			invalid = append(invalid, "ROOMBOOK_REDIS_DB")
		} else {
			cfg.RedisDB = db
		}
	}
	if value := get("ROOMBOOK_REDIS_KEY"); value != "" {
		cfg.RedisKey = value
	}

	if value := get("ROOMBOOK_TIMEZONE"); value != "" {
		loc, err := time.LoadLocation(value)
		if err != nil {
			invalid = append(invalid, "ROOMBOOK_TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	if value := get("ROOMBOOK_RENDER_OUTPUT"); value != "" {
		cfg.RenderOutput = value
	}
	cfg.PublicURL = strings.TrimRight(get("ROOMBOOK_PUBLIC_URL"), "/")

	if value := get("ROOMBOOK_LOG_LEVEL"); value != "" {
		switch level := strings.ToLower(value); level {
		case "debug", "info", "warn", "error":
			cfg.LogLevel = level
		default:
			invalid = append(invalid, "ROOMBOOK_LOG_LEVEL")
		}
	}
	if value := get("ROOMBOOK_LOG_FORMAT"); value != "" {
		switch format := strings.ToLower(value); format {
		case "json", "text":
			cfg.LogFormat = format
		default:
			invalid = append(invalid, "ROOMBOOK_LOG_FORMAT")
		}
	}

	if value := get("ROOMBOOK_RATE_LIMIT"); value != "" {
		limit, err := strconv.ParseFloat(value, 64)
		if err != nil || limit < 0 {
			invalid = append(invalid, "ROOMBOOK_RATE_LIMIT")
		} else {
			cfg.RateLimit = limit
		}
	}
	if value := get("ROOMBOOK_RATE_BURST"); value != "" {
		burst, err := strconv.Atoi(value)
		if err != nil || burst <= 0 {
			invalid = append(invalid, "ROOMBOOK_RATE_BURST")
		} else {
			cfg.RateBurst = burst
		}
	}

	if value := get("ROOMBOOK_CORS_ORIGINS"); value != "" {
		for _, origin := range strings.Split(value, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
