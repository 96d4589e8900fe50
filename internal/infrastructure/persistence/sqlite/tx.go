// Package sqlite holds the transaction plumbing shared by the journal
// repositories.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/estr/backoffice/internal/application/port"
	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type txKey struct{}

// TxManager runs units of work in one transaction, retrying the whole unit
// when SQLite reports the file busy or locked.
type TxManager struct {
	db      *sql.DB
	logger  *zap.Logger
	retries int
	backoff time.Duration
}

type TxOption func(*TxManager)

// WithBusyRetries sets how often a busy unit of work is retried and the
// base pause between attempts, which grows linearly.
func WithBusyRetries(n int, backoff time.Duration) TxOption {
	return func(m *TxManager) {
		m.retries = n
		m.backoff = backoff
	}
}

func NewTxManager(db *sql.DB, logger *zap.Logger, opts ...TxOption) *TxManager {
	m := &TxManager{db: db, logger: logger, retries: 3, backoff: 50 * time.Millisecond}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ port.TransactionManager = (*TxManager)(nil)

// WithTransaction runs fn with a context carrying the transaction. A call
// made inside another transaction joins it and is never retried on its own.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if InTx(ctx) {
		return fn(ctx)
	}

	for attempt := 0; ; attempt++ {
		err := m.once(ctx, fn)
		if err == nil || !IsBusy(err) || attempt >= m.retries {
			return err
		}

		m.logger.Warn("Journal database busy, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.backoff * time.Duration(attempt+1)):
		}
	}
}

func (m *TxManager) once(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			m.logger.Error("Unit of work panicked, rolled back", zap.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.logger.Error("Rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// IsBusy reports whether err is SQLite's busy or locked condition
func IsBusy(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
}

// InTx reports whether ctx already carries a transaction
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}

// Executor is satisfied by *sql.DB and *sql.Tx
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ExecutorFor returns the transaction carried by ctx, or db outside one
func ExecutorFor(ctx context.Context, db *sql.DB) Executor {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}
