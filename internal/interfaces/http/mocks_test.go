package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/estr/backoffice/internal/application/service"
	"github.com/estr/backoffice/internal/datatable"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/estr/backoffice/internal/export"
	"github.com/estr/backoffice/internal/jobprogress"
	"github.com/estr/backoffice/internal/session"
	"go.uber.org/zap"
)

type mockAuth struct {
	loginFunc func(ctx context.Context, username, password string) (*entity.Profile, error)
}

func (m *mockAuth) Login(ctx context.Context, username, password string) (*entity.Profile, error) {
	return m.loginFunc(ctx, username, password)
}

type mockCaseService struct {
	listFunc   func(ctx context.Context, user *entity.Profile, track entity.Track, view service.CaseView, q datatable.Query) (*datatable.Page[service.CaseRow], error)
	formFunc   func(ctx context.Context, user *entity.Profile, track entity.Track, id string) (*service.CaseForm, error)
	submitFunc func(ctx context.Context, user *entity.Profile, track entity.Track, id string, req service.ActionRequest) (*service.ActionResult, error)
	bulkFunc   func(ctx context.Context, user *entity.Profile, track entity.Track, req service.BulkActionRequest) (*service.BulkResult, error)
}

func (m *mockCaseService) ListCases(ctx context.Context, user *entity.Profile, track entity.Track, view service.CaseView, q datatable.Query) (*datatable.Page[service.CaseRow], error) {
	return m.listFunc(ctx, user, track, view, q)
}

func (m *mockCaseService) PrepareForm(ctx context.Context, user *entity.Profile, track entity.Track, id string) (*service.CaseForm, error) {
	return m.formFunc(ctx, user, track, id)
}

func (m *mockCaseService) Submit(ctx context.Context, user *entity.Profile, track entity.Track, id string, req service.ActionRequest) (*service.ActionResult, error) {
	return m.submitFunc(ctx, user, track, id, req)
}

func (m *mockCaseService) SubmitBulk(ctx context.Context, user *entity.Profile, track entity.Track, req service.BulkActionRequest) (*service.BulkResult, error) {
	return m.bulkFunc(ctx, user, track, req)
}

type mockParameterService struct {
	listFunc      func(ctx context.Context, user *entity.Profile, q datatable.Query) (*datatable.Page[*entity.Parameter], error)
	formFunc      func(ctx context.Context, user *entity.Profile, indicator string) (*service.ParameterForm, error)
	saveFunc      func(ctx context.Context, user *entity.Profile, indicator string, req service.SaveParameterRequest) (*entity.Parameter, error)
	pendingFunc   func(ctx context.Context, user *entity.Profile, q datatable.Query) (*datatable.Page[*entity.Parameter], error)
	authorizeFunc func(ctx context.Context, user *entity.Profile, id string, req service.AuthorizeRequest) (*entity.Parameter, error)
}

func (m *mockParameterService) ListRedFlag(ctx context.Context, user *entity.Profile, q datatable.Query) (*datatable.Page[*entity.Parameter], error) {
	return m.listFunc(ctx, user, q)
}

func (m *mockParameterService) GetForm(ctx context.Context, user *entity.Profile, indicator string) (*service.ParameterForm, error) {
	return m.formFunc(ctx, user, indicator)
}

func (m *mockParameterService) Save(ctx context.Context, user *entity.Profile, indicator string, req service.SaveParameterRequest) (*entity.Parameter, error) {
	return m.saveFunc(ctx, user, indicator, req)
}

func (m *mockParameterService) ListPending(ctx context.Context, user *entity.Profile, q datatable.Query) (*datatable.Page[*entity.Parameter], error) {
	return m.pendingFunc(ctx, user, q)
}

func (m *mockParameterService) Authorize(ctx context.Context, user *entity.Profile, id string, req service.AuthorizeRequest) (*entity.Parameter, error) {
	return m.authorizeFunc(ctx, user, id, req)
}

type mockJobService struct {
	triggerFunc func(ctx context.Context, user *entity.Profile, jobName string, params map[string]string) (*entity.JobTrigger, error)
	logsFunc    func(ctx context.Context, user *entity.Profile, q datatable.Query) (*datatable.Page[*entity.JobLog], error)
}

func (m *mockJobService) Trigger(ctx context.Context, user *entity.Profile, jobName string, params map[string]string) (*entity.JobTrigger, error) {
	return m.triggerFunc(ctx, user, jobName, params)
}

func (m *mockJobService) Logs(ctx context.Context, user *entity.Profile, q datatable.Query) (*datatable.Page[*entity.JobLog], error) {
	return m.logsFunc(ctx, user, q)
}

func (m *mockJobService) KnownJobs() []string {
	return []string{"DOR", "MTM", "PASSBY"}
}

type mockReportService struct {
	listFunc   func(ctx context.Context, user *entity.Profile, rq service.ReportQuery, q datatable.Query) (*datatable.Page[*entity.Case], error)
	exportFunc func(ctx context.Context, user *entity.Profile, rq service.ReportQuery, q datatable.Query, format export.Format) (*export.Result, error)
}

func (m *mockReportService) List(ctx context.Context, user *entity.Profile, rq service.ReportQuery, q datatable.Query) (*datatable.Page[*entity.Case], error) {
	return m.listFunc(ctx, user, rq, q)
}

func (m *mockReportService) Export(ctx context.Context, user *entity.Profile, rq service.ReportQuery, q datatable.Query, format export.Format) (*export.Result, error) {
	return m.exportFunc(ctx, user, rq, q, format)
}

type mockJournalService struct {
	listFunc    func(ctx context.Context, user *entity.Profile, filter entity.JournalFilter, page, pageSize int) (*datatable.Page[*entity.JournalEntry], error)
	historyFunc func(ctx context.Context, user *entity.Profile, subject, subjectID string) ([]*entity.JournalEntry, error)
}

func (m *mockJournalService) List(ctx context.Context, user *entity.Profile, filter entity.JournalFilter, page, pageSize int) (*datatable.Page[*entity.JournalEntry], error) {
	return m.listFunc(ctx, user, filter, page, pageSize)
}

func (m *mockJournalService) History(ctx context.Context, user *entity.Profile, subject, subjectID string) ([]*entity.JournalEntry, error) {
	return m.historyFunc(ctx, user, subject, subjectID)
}

// mockLogger records log lines
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, fmt.Sprint(append([]interface{}{msg}, keysAndValues...)...))
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, fmt.Sprint(append([]interface{}{msg}, keysAndValues...)...))
}

var (
	oprCab = &entity.Profile{UserID: "u-oc", Name: "Ani", BranchCode: "001", Role: "estr_opr_cab"}
	spvKep = &entity.Profile{UserID: "u-sk", Name: "Budi", Role: "estr_spv_kep"}
)

type testEnv struct {
	server   *Server
	sessions *session.Manager
	cases    *mockCaseService
	params   *mockParameterService
	jobs     *mockJobService
	reports  *mockReportService
	journal  *mockJournalService
	auth     *mockAuth
	tracker  *jobprogress.Tracker
	logger   *mockLogger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		sessions: session.NewManager(session.Config{Secret: "test-secret-0123456789", Issuer: "estr-test"}),
		cases:    &mockCaseService{},
		params:   &mockParameterService{},
		jobs:     &mockJobService{},
		reports:  &mockReportService{},
		journal:  &mockJournalService{},
		auth:     &mockAuth{},
		tracker:  jobprogress.NewTracker(),
		logger:   &mockLogger{},
	}

	env.server = NewServer(ServerConfig{Mode: gin.TestMode, Version: "test"}, Dependencies{
		Auth:       env.auth,
		Cases:      env.cases,
		Parameters: env.params,
		Jobs:       env.jobs,
		Reports:    env.reports,
		Journal:    env.journal,
		Sessions:   env.sessions,
		Tracker:    env.tracker,
		Hub:        jobprogress.NewHub(env.tracker, zap.NewNop()),
		Limits:     datatable.Limits{DefaultPageSize: 10, MaxPageSize: 50},
	}, env.logger)
	return env
}

// do sends a request, signed in as user when user is non-nil
func (e *testEnv) do(t *testing.T, user *entity.Profile, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != nil {
		token, _, err := e.sessions.Issue(user)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: session.CookieUserID, Value: user.UserID})
		req.AddCookie(&http.Cookie{Name: session.CookieBranchCode, Value: user.BranchCode})
		req.AddCookie(&http.Cookie{Name: session.CookieSession, Value: token})
	}

	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}
