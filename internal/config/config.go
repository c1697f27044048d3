package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const devJWTSecret = "dev-secret-change-me-dev-secret-change-me"

// Config holds every runtime setting for the server and the CLI.
type Config struct {
	Env       string
	Port      string
	PublicURL string

	// Database
	DBDriver          string
	DBPath            string
	DBUser            string
	DBPass            string
	DBHost            string
	DBPort            string
	DBName            string
	DBSkipSchema      bool
	DBConnectAttempts uint
	DBConnectDelay    time.Duration

	// Auth
	SessionTTL     time.Duration
	CookieSecure   bool
	JWTSecret      string
	JWTTTL         time.Duration
	AuthRateLimit  int
	AuthRateWindow time.Duration

	// Tracker
	Timezone       string
	MaxStreakDays  int
	StatsCacheTTL  time.Duration
	LegacyShareIDs bool

	// Logging
	LogDebug bool
	LogDir   string

	// UsingDevSecret is set when JWT_SECRET was missing and the development default was applied.
	UsingDevSecret bool

	location *time.Location
}

// Load reads configuration from environment variables. Callers load .env files beforehand.
func Load() (*Config, error) {
	cfg := &Config{
		Env:               getEnv("ENV", getEnv("ENVIRONMENT", "development")),
		Port:              getEnv("PORT", "8080"),
		PublicURL:         strings.TrimRight(os.Getenv("PUBLIC_URL"), "/"),
		DBDriver:          strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBPath:            getEnv("DB_PATH", "habitgrid.db"),
		DBUser:            os.Getenv("DB_USER"),
		DBPass:            os.Getenv("DB_PASS"),
		DBHost:            getEnv("DB_HOST", "127.0.0.1"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBName:            getEnv("DB_NAME", "habitgrid"),
		DBSkipSchema:      getEnvBool("DB_SKIP_SCHEMA", false),
		DBConnectAttempts: uint(getEnvInt("DB_CONNECT_ATTEMPTS", 10)),
		DBConnectDelay:    getEnvDuration("DB_CONNECT_DELAY", 5*time.Second),
		SessionTTL:        getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		CookieSecure:      getEnvBool("COOKIE_SECURE", false),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTTTL:            getEnvDuration("JWT_TTL", 24*time.Hour),
		AuthRateLimit:     getEnvInt("AUTH_RATE_LIMIT", 10),
		AuthRateWindow:    getEnvDuration("AUTH_RATE_WINDOW", time.Minute),
		Timezone:          getEnv("TIMEZONE", "Local"),
		MaxStreakDays:     getEnvInt("STREAK_MAX_DAYS", 3650),
		StatsCacheTTL:     getEnvDuration("STATS_CACHE_TTL", time.Minute),
		LegacyShareIDs:    getEnvBool("LEGACY_SHARE_IDS", false),
		LogDebug:          getEnvBool("LOG_DEBUG", false),
		LogDir:            os.Getenv("LOG_DIR"),
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = devJWTSecret
		cfg.UsingDevSecret = true
	}

	return cfg, cfg.Validate()
}

// Validate checks the loaded values and resolves the timezone.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be mysql or sqlite, got %q", c.DBDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long (current: %d)", len(c.JWTSecret))
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.MaxStreakDays < 1 {
		return fmt.Errorf("STREAK_MAX_DAYS must be at least 1, got %d", c.MaxStreakDays)
	}
	if c.AuthRateLimit < 1 {
		return fmt.Errorf("AUTH_RATE_LIMIT must be at least 1, got %d", c.AuthRateLimit)
	}
	if c.DBConnectAttempts < 1 {
		c.DBConnectAttempts = 1
	}

	loc, err := loadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc
	return nil
}

// IsProduction reports whether ENV (or ENVIRONMENT) is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Location returns the timezone that defines "today" for streaks and default months.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func getEnv(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return strings.EqualFold(v, "true") || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}
