package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends the service can run against.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort   int
	Storage    string
	SQLitePath string
	SessionTTL time.Duration
	LogLevel   slog.Level
	Timezone   *time.Location
}

// Load parses configuration values from the current process environment. A
// .env file in the working directory is merged in first when present.
//
// The loader applies defaults for every field and aggregates invalid values
// into a single error so operators see all problems at once.
func Load() (Config, error) {
	// Missing .env is the common case outside local development.
	_ = godotenv.Load()

	cfg := Config{
		HTTPPort:   8080,
		Storage:    StorageSQLite,
		SQLitePath: "booking.db",
		SessionTTL: 24 * time.Hour,
		LogLevel:   slog.LevelInfo,
		Timezone:   time.Local,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("BOOKING_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "BOOKING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if storage := strings.TrimSpace(strings.ToLower(os.Getenv("BOOKING_STORAGE"))); storage != "" {
		switch storage {
		case StorageSQLite, StorageMemory:
			cfg.Storage = storage
		default:
			invalid = append(invalid, "BOOKING_STORAGE")
		}
	}

	if path := strings.TrimSpace(os.Getenv("BOOKING_SQLITE_PATH")); path != "" {
		cfg.SQLitePath = path
	}

	if ttlValue := strings.TrimSpace(os.Getenv("BOOKING_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "BOOKING_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if levelValue := strings.TrimSpace(os.Getenv("BOOKING_LOG_LEVEL")); levelValue != "" {
		level, ok := parseLogLevel(levelValue)
		if !ok {
			invalid = append(invalid, "BOOKING_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if tzValue := strings.TrimSpace(os.Getenv("BOOKING_TIMEZONE")); tzValue != "" {
		location, err := time.LoadLocation(tzValue)
		if err != nil {
			invalid = append(invalid, "BOOKING_TIMEZONE")
		} else {
			cfg.Timezone = location
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func parseLogLevel(value string) (slog.Level, bool) {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
