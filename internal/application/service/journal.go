package service

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/datatable"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/estr/backoffice/internal/domain/event"
	"github.com/estr/backoffice/internal/domain/workflow"
)

// JournalService reads the local action journal
type JournalService interface {
	List(ctx context.Context, user *entity.Profile, filter entity.JournalFilter, page, pageSize int) (*datatable.Page[*entity.JournalEntry], error)
	History(ctx context.Context, user *entity.Profile, subject, subjectID string) ([]*entity.JournalEntry, error)
}

type journalServiceImpl struct {
	repo   port.JournalRepository
	logger Logger
}

// NewJournalService creates a new JournalService
func NewJournalService(repo port.JournalRepository, logger Logger) JournalService {
	return &journalServiceImpl{repo: repo, logger: logger}
}

// List pages through the journal, newest first. Paging happens in the database.
func (s *journalServiceImpl) List(ctx context.Context, user *entity.Profile, filter entity.JournalFilter, page, pageSize int) (*datatable.Page[*entity.JournalEntry], error) {
	if !workflow.Role(user.Role).CanViewJournal() {
		return nil, ErrForbidden
	}
	if pageSize <= 0 {
		pageSize = datatable.DefaultPageSize
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	pages := datatable.PageCount(total, pageSize)
	page = datatable.ClampPage(page, pages)

	rows, err := s.repo.List(ctx, filter, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}

	return &datatable.Page[*entity.JournalEntry]{
		Rows:     rows,
		Total:    total,
		Filtered: total,
		Page:     page,
		PageSize: pageSize,
		Pages:    pages,
		Links:    datatable.PageLinks(page, pages, datatable.DefaultSiblings),
	}, nil
}

// History returns every journal entry of one case, parameter or job run in order
func (s *journalServiceImpl) History(ctx context.Context, user *entity.Profile, subject, subjectID string) ([]*entity.JournalEntry, error) {
	if !workflow.Role(user.Role).CanViewJournal() {
		return nil, ErrForbidden
	}
	return s.repo.ListBySubject(ctx, subject, subjectID)
}

// recorder is shared by the services that journal, publish and observe actions.
// Every collaborator is optional.
type recorder struct {
	journal   port.JournalRepository
	publisher Publisher
	observer  ActionObserver
	logger    Logger
}

func (r recorder) newEntry(subject, subjectID, action string, user *entity.Profile, payload interface{}) *entity.JournalEntry {
	return &entity.JournalEntry{
		Subject:     subject,
		SubjectID:   subjectID,
		Action:      action,
		ActorUserID: user.UserID,
		ActorRole:   user.Role,
		BranchCode:  user.BranchCode,
		Payload:     encodePayload(payload),
		Outcome:     entity.OutcomeSuccess,
		CreatedAt:   time.Now(),
	}
}

// finish marks the entry with the call's outcome and reports it to the observer
func (r recorder) finish(entry *entity.JournalEntry, err error) {
	if err != nil {
		entry.Outcome = entity.OutcomeFailed
		entry.Error = err.Error()
	}
	if r.observer != nil {
		r.observer.ObserveAction(entry.Subject, entry.Action, entry.ActorRole, entry.Outcome)
	}
}

// record writes the entry. The remote action already happened, so a journal
// failure is logged rather than returned.
func (r recorder) record(ctx context.Context, entry *entity.JournalEntry) {
	if r.journal == nil {
		return
	}
	if err := r.journal.Create(ctx, entry); err != nil {
		r.logger.Error("Failed to write journal entry",
			"subject", entry.Subject, "subject_id", entry.SubjectID, "action", entry.Action, "error", err)
	}
}

func (r recorder) publish(ctx context.Context, evt *event.Event) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Dispatch(ctx, evt); err != nil {
		r.logger.Error("Event handler failed", "event_type", evt.Type, "subject_id", evt.SubjectID, "error", err)
	}
}

func encodePayload(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
