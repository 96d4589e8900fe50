package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Migration is one numbered schema file, e.g. "002_journal_correlation.sql"
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrator applies embedded schema files once each, recording them in
// schema_migrations.
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, logger: logger}
}

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version    INTEGER PRIMARY KEY,
	name       TEXT NOT NULL,
	applied_at TEXT NOT NULL
)`

// Applied returns the recorded versions
func (m *Migrator) Applied(ctx context.Context) (map[int]bool, error) {
	if _, err := m.db.ExecContext(ctx, migrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	done := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		done[v] = true
	}
	return done, rows.Err()
}

// Pending lists the files of fsys not yet applied, lowest version first
func (m *Migrator) Pending(ctx context.Context, fsys fs.FS) ([]Migration, error) {
	all, err := LoadMigrations(fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	done, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}

	pending := all[:0]
	for _, mig := range all {
		if !done[mig.Version] {
			pending = append(pending, mig)
		}
	}
	return pending, nil
}

// RunMigrations applies every pending migration and returns how many ran.
// Each file runs in its own transaction; the first failure stops the run.
func (m *Migrator) RunMigrations(ctx context.Context, fsys fs.FS) (int, error) {
	pending, err := m.Pending(ctx, fsys)
	if err != nil {
		return 0, err
	}

	for i, mig := range pending {
		m.logger.Info("Applying migration",
			zap.Int("version", mig.Version),
			zap.String("name", mig.Name))

		if err := m.apply(ctx, mig); err != nil {
			return i, fmt.Errorf("migration %03d_%s: %w", mig.Version, mig.Name, err)
		}
	}
	return len(pending), nil
}

func (m *Migrator) apply(ctx context.Context, mig Migration) error {
	return m.db.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, mig.SQL); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			mig.Version, mig.Name, time.Now().UTC().Format(time.RFC3339))
		return err
	})
}

// LoadMigrations reads every *.sql file of fsys. File names must start with
// a version number followed by an underscore; versions must be unique.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	var out []Migration
	owner := make(map[int]string)

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || path.Ext(p) != ".sql" {
			return err
		}

		base := path.Base(p)
		prefix, name, ok := strings.Cut(strings.TrimSuffix(base, ".sql"), "_")
		version, convErr := strconv.Atoi(prefix)
		if !ok || convErr != nil {
			return fmt.Errorf("migration %s: name must look like 001_description.sql", base)
		}
		if prev, dup := owner[version]; dup {
			return fmt.Errorf("migration version %d used by %s and %s", version, prev, base)
		}
		owner[version] = base

		body, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		out = append(out, Migration{Version: version, Name: name, SQL: string(body)})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
