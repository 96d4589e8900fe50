package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/estr/backoffice/pkg/database"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func memoryDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(database.Config{Path: database.MemoryPath}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec("CREATE TABLE marks (v TEXT)")
	require.NoError(t, err)
	return db
}

func countMarks(t *testing.T, db *database.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM marks").Scan(&n))
	return n
}

func TestTxManager_CommitAndRollback(t *testing.T) {
	db := memoryDB(t)
	m := NewTxManager(db.DB, zap.NewNop())
	ctx := context.Background()

	err := m.WithTransaction(ctx, func(ctx context.Context) error {
		assert.True(t, InTx(ctx))
		_, err := ExecutorFor(ctx, db.DB).ExecContext(ctx, "INSERT INTO marks VALUES ('a')")
		return err
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = m.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := ExecutorFor(ctx, db.DB).ExecContext(ctx, "INSERT INTO marks VALUES ('b')"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, countMarks(t, db))
}

func TestTxManager_NestedJoinsOuter(t *testing.T) {
	db := memoryDB(t)
	m := NewTxManager(db.DB, zap.NewNop())

	err := m.WithTransaction(context.Background(), func(outer context.Context) error {
		return m.WithTransaction(outer, func(inner context.Context) error {
			// a second BeginTx would block on the single memory connection
			_, err := ExecutorFor(inner, db.DB).ExecContext(inner, "INSERT INTO marks VALUES ('x')")
			return err
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, countMarks(t, db))
}

func TestTxManager_RetriesBusy(t *testing.T) {
	db := memoryDB(t)
	m := NewTxManager(db.DB, zap.NewNop(), WithBusyRetries(2, time.Millisecond))

	attempts := 0
	err := m.WithTransaction(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("insert: %w", sqlite3.Error{Code: sqlite3.ErrBusy})
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	attempts = 0
	err = m.WithTransaction(context.Background(), func(ctx context.Context) error {
		attempts++
		return sqlite3.Error{Code: sqlite3.ErrLocked}
	})
	assert.True(t, IsBusy(err))
	assert.Equal(t, 3, attempts, "gives up after the configured retries")
}

func TestTxManager_DoesNotRetryOtherErrors(t *testing.T) {
	db := memoryDB(t)
	m := NewTxManager(db.DB, zap.NewNop())

	attempts := 0
	err := m.WithTransaction(context.Background(), func(ctx context.Context) error {
		attempts++
		return sqlite3.Error{Code: sqlite3.ErrConstraint}
	})
	assert.False(t, IsBusy(err))
	assert.Equal(t, 1, attempts)
}

func TestTxManager_PanicRollsBack(t *testing.T) {
	db := memoryDB(t)
	m := NewTxManager(db.DB, zap.NewNop())

	assert.Panics(t, func() {
		_ = m.WithTransaction(context.Background(), func(ctx context.Context) error {
			_, _ = ExecutorFor(ctx, db.DB).ExecContext(ctx, "INSERT INTO marks VALUES ('p')")
			panic("boom")
		})
	})
	assert.Equal(t, 0, countMarks(t, db))
}
