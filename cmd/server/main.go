package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourorg/habitgrid/internal/auth"
	"github.com/yourorg/habitgrid/internal/cache"
	"github.com/yourorg/habitgrid/internal/config"
	appdb "github.com/yourorg/habitgrid/internal/db"
	"github.com/yourorg/habitgrid/internal/handlers"
	"github.com/yourorg/habitgrid/internal/live"
	"github.com/yourorg/habitgrid/internal/logger"
	"github.com/yourorg/habitgrid/internal/middleware"
	"github.com/yourorg/habitgrid/internal/models"
	"github.com/yourorg/habitgrid/internal/routes"
	"github.com/yourorg/habitgrid/internal/store"
	"github.com/yourorg/habitgrid/internal/tracker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		_ = logger.Init(logger.Config{})
		logger.Fatal("invalid configuration", "err", err)
	}

	if err := logger.Init(logger.Config{Debug: cfg.LogDebug, Dir: cfg.LogDir}); err != nil {
		_ = logger.Init(logger.Config{})
		logger.Fatal("failed to initialise logger", "err", err)
	}
	if cfg.UsingDevSecret {
		logger.Warn("using default JWT secret (development only)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ============================================================================
	// DB CONNECTION
	// ============================================================================
	conn, dialect, err := appdb.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("database unavailable", "driver", cfg.DBDriver, "err", err)
	}
	defer conn.Close()

	if cfg.DBSkipSchema {
		logger.Info("skipping schema migration", "reason", "DB_SKIP_SCHEMA")
	} else if err := appdb.EnsureSchema(ctx, conn, dialect); err != nil {
		logger.Fatal("schema migration failed", "err", err)
	}

	// ============================================================================
	// SERVICES
	// ============================================================================
	st := store.New(conn, dialect)

	stats := cache.New[[]models.HabitStats](cfg.StatsCacheTTL, 5*cfg.StatsCacheTTL)
	defer stats.Stop()

	hub := live.NewHub()
	defer hub.Stop()

	svc := tracker.New(st, tracker.Options{
		Location:      cfg.Location(),
		MaxStreakDays: cfg.MaxStreakDays,
		Stats:         stats,
		Publisher:     hub,
	})
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)

	h := handlers.New(handlers.Deps{
		Config:   cfg,
		Store:    st,
		Tracker:  svc,
		Sessions: middleware.NewSessionStore(cfg.SessionTTL, cfg.CookieSecure),
		Tokens:   tokens,
		Hub:      hub,
		Stats:    stats,
	})
	app := routes.NewApp(cfg, h, routes.Auth{Users: st, Tokens: tokens})

	// ============================================================================
	// GRACEFUL SHUTDOWN
	// ============================================================================
	go func() {
		<-ctx.Done()
		logger.Info("shutdown signal received, closing server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Warn("error closing server", "err", err)
		}
	}()

	logger.Info("server listening",
		"port", cfg.Port,
		"driver", dialect,
		"timezone", cfg.Location().String(),
		"share_mode", handlers.ShareMode(cfg.LegacyShareIDs),
	)
	if !cfg.LegacyShareIDs {
		logger.Info("share links resolve by token only; set LEGACY_SHARE_IDS=true to also serve /share/<user_id>")
	}
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", "err", err)
	}
	logger.Info("server closed")
}
