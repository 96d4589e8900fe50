package port

import (
	"context"

	"github.com/estr/backoffice/internal/domain/entity"
)

// JournalRepository defines persistence operations for JournalEntry
type JournalRepository interface {
	Create(ctx context.Context, entry *entity.JournalEntry) error
	ListBySubject(ctx context.Context, subject, subjectID string) ([]*entity.JournalEntry, error)
	List(ctx context.Context, filter entity.JournalFilter, limit, offset int) ([]*entity.JournalEntry, error)
	Count(ctx context.Context, filter entity.JournalFilter) (int, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
