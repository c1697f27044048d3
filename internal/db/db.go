package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-sql-driver/mysql"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/yourorg/habitgrid/internal/config"
	"github.com/yourorg/habitgrid/internal/logger"
)

//go:embed migrations
var migrationsFS embed.FS

// Dialect names the SQL flavour behind a connection.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// InsertIgnore returns the dialect's insert-if-absent prefix.
func (d Dialect) InsertIgnore() string {
	if d == MySQL {
		return "INSERT IGNORE"
	}
	return "INSERT OR IGNORE"
}

func (d Dialect) gooseDialect() goose.Dialect {
	if d == MySQL {
		return goose.DialectMySQL
	}
	return goose.DialectSQLite3
}

// DSN builds the driver-specific data source name from the configuration.
func DSN(cfg *config.Config) (Dialect, string) {
	if Dialect(cfg.DBDriver) == MySQL {
		mc := mysql.NewConfig()
		mc.User = cfg.DBUser
		mc.Passwd = cfg.DBPass
		mc.Net = "tcp"
		mc.Addr = cfg.DBHost + ":" + cfg.DBPort
		mc.DBName = cfg.DBName
		mc.ParseTime = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return MySQL, mc.FormatDSN()
	}
	return SQLite, cfg.DBPath
}

// Open opens and pings a database for the given dialect. For SQLite the dsn is a file path.
func Open(dialect Dialect, dsn string) (*sql.DB, error) {
	var (
		conn *sql.DB
		err  error
	)

	switch dialect {
	case MySQL:
		conn, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		conn.SetMaxOpenConns(20)
		conn.SetMaxIdleConns(5)
		conn.SetConnMaxLifetime(30 * time.Minute)
	case SQLite:
		if dir := filepath.Dir(dsn); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		conn, err = sql.Open("sqlite", dsn+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// single writer keeps SQLite from returning SQLITE_BUSY under concurrent requests
		conn.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

// Connect opens the configured database, retrying while it is unreachable.
func Connect(ctx context.Context, cfg *config.Config) (*sql.DB, Dialect, error) {
	dialect, dsn := DSN(cfg)

	var conn *sql.DB
	err := retry.Do(
		func() error {
			c, err := Open(dialect, dsn)
			if err != nil {
				return err
			}
			conn = c
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(cfg.DBConnectAttempts),
		retry.Delay(cfg.DBConnectDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("db connect failed, retrying", "attempt", n+1, "delay", cfg.DBConnectDelay, "err", err)
		}),
	)
	if err != nil {
		return nil, dialect, err
	}
	return conn, dialect, nil
}

// EnsureSchema applies the embedded migrations for the dialect.
func EnsureSchema(ctx context.Context, conn *sql.DB, dialect Dialect) error {
	fsys, err := fs.Sub(migrationsFS, "migrations/"+string(dialect))
	if err != nil {
		return fmt.Errorf("locate migrations: %w", err)
	}

	provider, err := goose.NewProvider(dialect.gooseDialect(), conn, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify migration version: %w", err)
	}
	logger.Info("database schema ready", "dialect", dialect, "applied", len(results), "version", version)
	return nil
}
