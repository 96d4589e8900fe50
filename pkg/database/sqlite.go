// Package database opens the SQLite file that backs the local audit journal
// and applies its embedded schema.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// MemoryPath opens a private in-memory database, mostly for tests.
const MemoryPath = ":memory:"

const defaultBusyTimeout = 5 * time.Second

type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// BusyTimeout bounds how long a writer waits on a locked file; zero means 5s
	BusyTimeout time.Duration
}

// DB is the journal database handle
type DB struct {
	*sql.DB
	path   string
	logger *zap.Logger
}

// dsn builds the go-sqlite3 connection string. WAL is skipped for memory
// databases, which do not support it.
func (cfg Config) dsn() string {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = defaultBusyTimeout
	}

	q := url.Values{}
	q.Set("_busy_timeout", fmt.Sprintf("%d", busy.Milliseconds()))
	q.Set("_foreign_keys", "on")
	if cfg.Path != MemoryPath {
		q.Set("_journal_mode", "WAL")
		q.Set("_synchronous", "NORMAL")
	}
	return "file:" + cfg.Path + "?" + q.Encode()
}

// New opens the journal database, creating its directory if needed.
func New(cfg Config, logger *zap.Logger) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is empty")
	}
	if cfg.Path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Path == MemoryPath {
		// each pooled connection would see its own empty database
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
		cfg.ConnMaxLifetime = 0
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	db := &DB{DB: sqlDB, path: cfg.Path, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	logger.Info("Journal database opened",
		zap.String("path", cfg.Path),
		zap.Int("max_open_conns", cfg.MaxOpenConns))
	return db, nil
}

// Path returns the file the database was opened from
func (db *DB) Path() string {
	return db.path
}

// Ping checks the database answers a trivial query
func (db *DB) Ping(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("journal database unreachable: %w", err)
	}
	return nil
}

// inTx runs fn in a transaction, rolling back on error or panic
func (db *DB) inTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				db.logger.Warn("Rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the pool and logs its final usage counters
func (db *DB) Close() error {
	stats := db.Stats()
	db.logger.Info("Closing journal database",
		zap.String("path", db.path),
		zap.Int64("wait_count", stats.WaitCount),
		zap.Duration("wait_duration", stats.WaitDuration))
	return db.DB.Close()
}
