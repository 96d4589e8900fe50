package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/estr/backoffice/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const journalColumns = `id, subject, subject_id, action, actor_user_id, actor_role,
	branch_code, previous_status, new_status, payload, outcome, error,
	correlation_id, created_at`

// JournalRepository implements port.JournalRepository
type JournalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewJournalRepository creates a new journal repository
func NewJournalRepository(db *sql.DB, logger *zap.Logger) *JournalRepository {
	return &JournalRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an entry; ID and CreatedAt are filled in
func (r *JournalRepository) Create(ctx context.Context, entry *entity.JournalEntry) error {
	query := `
		INSERT INTO journal_entries (
			subject, subject_id, action, actor_user_id, actor_role,
			branch_code, previous_status, new_status, payload, outcome,
			error, correlation_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.CreatedAt = entry.CreatedAt.UTC()

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		entry.Subject,
		entry.SubjectID,
		entry.Action,
		entry.ActorUserID,
		entry.ActorRole,
		entry.BranchCode,
		entry.PreviousStatus,
		entry.NewStatus,
		entry.Payload,
		entry.Outcome,
		entry.Error,
		entry.CorrelationID,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create journal entry",
			zap.String("subject", entry.Subject),
			zap.String("subject_id", entry.SubjectID),
			zap.Error(err))
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// ListBySubject returns every entry about one subject, oldest first
func (r *JournalRepository) ListBySubject(ctx context.Context, subject, subjectID string) ([]*entity.JournalEntry, error) {
	query := `SELECT ` + journalColumns + `
		FROM journal_entries
		WHERE subject = ? AND subject_id = ?
		ORDER BY created_at ASC, id ASC`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, subject, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// List returns entries matching filter, newest first
func (r *JournalRepository) List(ctx context.Context, filter entity.JournalFilter, limit, offset int) ([]*entity.JournalEntry, error) {
	where, args := journalWhere(filter)
	query := `SELECT ` + journalColumns + `
		FROM journal_entries` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Count returns the number of entries matching filter
func (r *JournalRepository) Count(ctx context.Context, filter entity.JournalFilter) (int, error) {
	where, args := journalWhere(filter)

	var n int
	err := r.getExecutor(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM journal_entries`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count journal: %w", err)
	}
	return n, nil
}

func journalWhere(filter entity.JournalFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	add := func(cond string, arg interface{}) {
		conds = append(conds, cond)
		args = append(args, arg)
	}

	if filter.Subject != "" {
		add("subject = ?", filter.Subject)
	}
	if filter.SubjectID != "" {
		add("subject_id = ?", filter.SubjectID)
	}
	if filter.ActorUserID != "" {
		add("actor_user_id = ?", filter.ActorUserID)
	}
	if filter.Outcome != "" {
		add("outcome = ?", filter.Outcome)
	}
	if filter.Since != nil {
		add("created_at >= ?", filter.Since.UTC())
	}
	if filter.Until != nil {
		add("created_at < ?", filter.Until.UTC())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanEntries(rows *sql.Rows) ([]*entity.JournalEntry, error) {
	entries := []*entity.JournalEntry{}
	for rows.Next() {
		var e entity.JournalEntry
		if err := rows.Scan(
			&e.ID,
			&e.Subject,
			&e.SubjectID,
			&e.Action,
			&e.ActorUserID,
			&e.ActorRole,
			&e.BranchCode,
			&e.PreviousStatus,
			&e.NewStatus,
			&e.Payload,
			&e.Outcome,
			&e.Error,
			&e.CorrelationID,
			&e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *JournalRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

var _ port.JournalRepository = (*JournalRepository)(nil)
