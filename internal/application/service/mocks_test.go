package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/estr/backoffice/internal/domain/event"
)

type mockCaseAPI struct {
	listCasesFunc    func(ctx context.Context, filter port.CaseFilter) ([]*entity.Case, error)
	getCaseFunc      func(ctx context.Context, track entity.Track, id, userID string) (*entity.Case, error)
	submitActionFunc func(ctx context.Context, req port.TransitionRequest) (*port.TransitionResult, error)

	// cases backs GetCase when getCaseFunc is nil
	cases map[string]*entity.Case

	listCalls   []port.CaseFilter
	getCalls    int
	submitCalls []port.TransitionRequest
}

func (m *mockCaseAPI) store(cases ...*entity.Case) {
	if m.cases == nil {
		m.cases = make(map[string]*entity.Case)
	}
	for _, c := range cases {
		m.cases[c.ID] = c
	}
}

func (m *mockCaseAPI) ListCases(ctx context.Context, filter port.CaseFilter) ([]*entity.Case, error) {
	m.listCalls = append(m.listCalls, filter)
	if m.listCasesFunc != nil {
		return m.listCasesFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockCaseAPI) GetCase(ctx context.Context, track entity.Track, id, userID string) (*entity.Case, error) {
	m.getCalls++
	if m.getCaseFunc != nil {
		return m.getCaseFunc(ctx, track, id, userID)
	}
	if c, ok := m.cases[id]; ok {
		cp := *c
		cp.Track = track
		return &cp, nil
	}
	return nil, fmt.Errorf("case %s: %w", id, ErrNotFound)
}

func (m *mockCaseAPI) SubmitAction(ctx context.Context, req port.TransitionRequest) (*port.TransitionResult, error) {
	m.submitCalls = append(m.submitCalls, req)
	if m.submitActionFunc != nil {
		return m.submitActionFunc(ctx, req)
	}
	return &port.TransitionResult{CaseID: req.CaseID, StatusCode: req.ToStatus}, nil
}

type mockParameterAPI struct {
	listRedFlagFunc   func(ctx context.Context, userID string) ([]*entity.Parameter, error)
	getRedFlagFunc    func(ctx context.Context, indicator, userID string) (*entity.Parameter, error)
	updateRedFlagFunc func(ctx context.Context, update port.ParameterUpdate) (*entity.Parameter, error)
	getTxCodeFunc     func(ctx context.Context, userID string) (*entity.Parameter, error)
	updateTxCodeFunc  func(ctx context.Context, update port.ParameterUpdate) (*entity.Parameter, error)
	listPendingFunc   func(ctx context.Context, userID string) ([]*entity.Parameter, error)
	authorizeFunc     func(ctx context.Context, auth port.ParameterAuthorization) (*entity.Parameter, error)

	updates        []port.ParameterUpdate
	authorizations []port.ParameterAuthorization
}

func (m *mockParameterAPI) ListRedFlagParameters(ctx context.Context, userID string) ([]*entity.Parameter, error) {
	if m.listRedFlagFunc != nil {
		return m.listRedFlagFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockParameterAPI) GetRedFlagParameter(ctx context.Context, indicator, userID string) (*entity.Parameter, error) {
	if m.getRedFlagFunc != nil {
		return m.getRedFlagFunc(ctx, indicator, userID)
	}
	return &entity.Parameter{ID: "P-" + indicator, Kind: entity.ParameterKindRedFlag, Indicator: indicator, AuthStatus: entity.AuthStatusApproved, Active: true}, nil
}

func (m *mockParameterAPI) UpdateRedFlagParameter(ctx context.Context, update port.ParameterUpdate) (*entity.Parameter, error) {
	m.updates = append(m.updates, update)
	if m.updateRedFlagFunc != nil {
		return m.updateRedFlagFunc(ctx, update)
	}
	return &entity.Parameter{Indicator: update.Indicator, PendingValues: update.Values}, nil
}

func (m *mockParameterAPI) GetTransactionCodeParameters(ctx context.Context, userID string) (*entity.Parameter, error) {
	if m.getTxCodeFunc != nil {
		return m.getTxCodeFunc(ctx, userID)
	}
	return &entity.Parameter{ID: "TC", Kind: entity.ParameterKindTransactionCode, Indicator: "TRANSACTION_CODE", AuthStatus: entity.AuthStatusApproved}, nil
}

func (m *mockParameterAPI) UpdateTransactionCodeParameters(ctx context.Context, update port.ParameterUpdate) (*entity.Parameter, error) {
	m.updates = append(m.updates, update)
	if m.updateTxCodeFunc != nil {
		return m.updateTxCodeFunc(ctx, update)
	}
	return &entity.Parameter{Indicator: update.Indicator, AuthStatus: entity.AuthStatusPending}, nil
}

func (m *mockParameterAPI) ListPendingParameters(ctx context.Context, userID string) ([]*entity.Parameter, error) {
	if m.listPendingFunc != nil {
		return m.listPendingFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockParameterAPI) AuthorizeParameter(ctx context.Context, auth port.ParameterAuthorization) (*entity.Parameter, error) {
	m.authorizations = append(m.authorizations, auth)
	if m.authorizeFunc != nil {
		return m.authorizeFunc(ctx, auth)
	}
	status := entity.AuthStatusApproved
	if !auth.Approve {
		status = entity.AuthStatusRejected
	}
	return &entity.Parameter{ID: auth.ParameterID, AuthStatus: status}, nil
}

type mockJobAPI struct {
	triggerFunc  func(ctx context.Context, req port.JobTriggerRequest) (*port.JobTriggerResult, error)
	listLogsFunc func(ctx context.Context, userID string) ([]*entity.JobLog, error)

	triggers []port.JobTriggerRequest
}

func (m *mockJobAPI) TriggerJob(ctx context.Context, req port.JobTriggerRequest) (*port.JobTriggerResult, error) {
	m.triggers = append(m.triggers, req)
	if m.triggerFunc != nil {
		return m.triggerFunc(ctx, req)
	}
	return &port.JobTriggerResult{Accepted: true}, nil
}

func (m *mockJobAPI) ListJobLogs(ctx context.Context, userID string) ([]*entity.JobLog, error) {
	if m.listLogsFunc != nil {
		return m.listLogsFunc(ctx, userID)
	}
	return nil, nil
}

type mockReportAPI struct {
	listFunc func(ctx context.Context, filter port.ReportFilter) ([]*entity.Case, error)
	filters  []port.ReportFilter
}

func (m *mockReportAPI) ListReports(ctx context.Context, filter port.ReportFilter) ([]*entity.Case, error) {
	m.filters = append(m.filters, filter)
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, nil
}

type mockJournalRepo struct {
	mu             sync.Mutex
	createFunc     func(ctx context.Context, entry *entity.JournalEntry) error
	entries        []*entity.JournalEntry
	listResult     []*entity.JournalEntry
	countResult    int
	lastLimit      int
	lastOffset     int
	bySubjectCalls []string
}

func (m *mockJournalRepo) Create(ctx context.Context, entry *entity.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createFunc != nil {
		if err := m.createFunc(ctx, entry); err != nil {
			return err
		}
	}
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockJournalRepo) ListBySubject(ctx context.Context, subject, subjectID string) ([]*entity.JournalEntry, error) {
	m.bySubjectCalls = append(m.bySubjectCalls, subject+"/"+subjectID)
	return m.listResult, nil
}

func (m *mockJournalRepo) List(ctx context.Context, filter entity.JournalFilter, limit, offset int) ([]*entity.JournalEntry, error) {
	m.lastLimit, m.lastOffset = limit, offset
	return m.listResult, nil
}

func (m *mockJournalRepo) Count(ctx context.Context, filter entity.JournalFilter) (int, error) {
	return m.countResult, nil
}

type mockTxManager struct {
	calls int
	err   error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	return fn(ctx)
}

type mockPublisher struct {
	events []*event.Event
}

func (m *mockPublisher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.events = append(m.events, evt)
	return nil
}

type mockObserver struct {
	outcomes []string
}

func (m *mockObserver) ObserveAction(subject, action, role, outcome string) {
	m.outcomes = append(m.outcomes, subject+":"+action+":"+outcome)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
