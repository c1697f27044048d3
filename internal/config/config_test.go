package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("DBDriver = %q, want sqlite", cfg.DBDriver)
	}
	if !cfg.UsingDevSecret {
		t.Error("expected development secret to be applied")
	}
	if cfg.MaxStreakDays != 3650 {
		t.Errorf("MaxStreakDays = %d, want 3650", cfg.MaxStreakDays)
	}
	if cfg.Location().String() != "UTC" {
		t.Errorf("Location() = %s, want UTC", cfg.Location())
	}
}

func TestLoadProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing in production")
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("JWT_SECRET", "short")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for short JWT_SECRET")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("STREAK_MAX_DAYS", "30")
	t.Setenv("STATS_CACHE_TTL", "5s")
	t.Setenv("LEGACY_SHARE_IDS", "1")
	t.Setenv("PUBLIC_URL", "https://habits.example.com/")
	t.Setenv("TIMEZONE", "UTC")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DBDriver != "mysql" {
		t.Errorf("DBDriver = %q, want mysql", cfg.DBDriver)
	}
	if cfg.MaxStreakDays != 30 {
		t.Errorf("MaxStreakDays = %d, want 30", cfg.MaxStreakDays)
	}
	if cfg.StatsCacheTTL != 5*time.Second {
		t.Errorf("StatsCacheTTL = %s, want 5s", cfg.StatsCacheTTL)
	}
	if !cfg.LegacyShareIDs {
		t.Error("LegacyShareIDs should be enabled")
	}
	if cfg.PublicURL != "https://habits.example.com" {
		t.Errorf("PublicURL = %q, trailing slash should be trimmed", cfg.PublicURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown driver", func(c *Config) { c.DBDriver = "postgres" }, true},
		{"zero streak cap", func(c *Config) { c.MaxStreakDays = 0 }, true},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, true},
		{"zero rate limit", func(c *Config) { c.AuthRateLimit = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				DBDriver:      "sqlite",
				JWTSecret:     devJWTSecret,
				JWTTTL:        time.Hour,
				SessionTTL:    time.Hour,
				MaxStreakDays: 10,
				AuthRateLimit: 5,
				Timezone:      "UTC",
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
