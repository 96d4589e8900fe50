package http

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/estr/backoffice/internal/application/service"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/estr/backoffice/internal/domain/workflow"
	"github.com/estr/backoffice/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// staticFiles serves the embedded scripts and styles
func staticFiles() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// screenLoader fetches the first page of a screen for the page shell
type screenLoader func(h *Handlers, c *gin.Context, user *entity.Profile) (interface{}, error)

// screen is one page of the back-office menu
type screen struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Endpoint string `json:"endpoint"`
	Socket   string `json:"socket,omitempty"`
	allowed  func(workflow.Role) bool
	load     screenLoader
}

func anyRole(workflow.Role) bool { return true }

func notBranch(r workflow.Role) bool { return !r.IsBranch() }

func parameterViewer(r workflow.Role) bool { return r.IsCompliance() || r == workflow.RoleAdmin }

var screens = []screen{
	{Key: "cases-manual", Title: "Kasus Manual Cabang", Endpoint: "/api/cases/manual-cabang", allowed: anyRole, load: loadCases(entity.TrackManualCabang)},
	{Key: "cases-bifast", Title: "Kasus BI-Fast", Endpoint: "/api/cases/bifast", allowed: notBranch, load: loadCases(entity.TrackBIFast)},
	{Key: "red-flag", Title: "Parameter Red Flag", Endpoint: "/api/parameters/red-flag", allowed: parameterViewer, load: loadRedFlag},
	{Key: "transaction-code", Title: "Parameter Kode Transaksi", Endpoint: "/api/parameters/transaction-code", allowed: parameterViewer},
	{Key: "authorization", Title: "Otorisasi Parameter", Endpoint: "/api/parameters/pending", allowed: workflow.Role.CanAuthorizeParameters, load: loadPending},
	{Key: "jobs", Title: "Job Deteksi", Endpoint: "/api/jobs/logs", Socket: "/ws/job-progress", allowed: workflow.Role.CanTriggerJobs, load: loadJobLogs},
	{Key: "reports", Title: "Laporan", Endpoint: "/api/reports", allowed: anyRole, load: loadReports},
	{Key: "journal", Title: "Jurnal Aktivitas", Endpoint: "/api/journal", allowed: workflow.Role.CanViewJournal, load: loadJournal},
}

func loadCases(track entity.Track) screenLoader {
	return func(h *Handlers, c *gin.Context, user *entity.Profile) (interface{}, error) {
		view, ok := service.ParseCaseView(c.Query("view"))
		if !ok {
			view = service.ViewTodo
		}
		q := h.tableQuery(c, service.CaseSearchFields, service.CaseSortFields)
		return h.deps.Cases.ListCases(c.Request.Context(), user, track, view, q)
	}
}

func loadRedFlag(h *Handlers, c *gin.Context, user *entity.Profile) (interface{}, error) {
	q := h.tableQuery(c, service.ParameterSearchFields, parameterSortFields)
	return h.deps.Parameters.ListRedFlag(c.Request.Context(), user, q)
}

func loadPending(h *Handlers, c *gin.Context, user *entity.Profile) (interface{}, error) {
	q := h.tableQuery(c, service.ParameterSearchFields, parameterSortFields)
	return h.deps.Parameters.ListPending(c.Request.Context(), user, q)
}

func loadJobLogs(h *Handlers, c *gin.Context, user *entity.Profile) (interface{}, error) {
	q := h.tableQuery(c, service.JobLogSearchFields, jobLogSortFields)
	return h.deps.Jobs.Logs(c.Request.Context(), user, q)
}

func loadReports(h *Handlers, c *gin.Context, user *entity.Profile) (interface{}, error) {
	rq, err := reportQuery(c)
	if err != nil {
		return nil, &service.ValidationError{Message: err.Error()}
	}
	q := h.tableQuery(c, reportSearchFields, service.CaseSortFields)
	return h.deps.Reports.List(c.Request.Context(), user, rq, q)
}

func loadJournal(h *Handlers, c *gin.Context, user *entity.Profile) (interface{}, error) {
	filter, page, size, err := h.journalQuery(c)
	if err != nil {
		return nil, &service.ValidationError{Message: err.Error()}
	}
	return h.deps.Journal.List(c.Request.Context(), user, filter, page, size)
}

// menuFor lists the screens the role may open
func menuFor(role workflow.Role) []screen {
	out := make([]screen, 0, len(screens))
	for _, s := range screens {
		if s.allowed(role) {
			out = append(out, s)
		}
	}
	return out
}

// appPage is the data embedded in the page shell as JSON. Data holds the
// screen's first page; Error is shown instead when loading it failed.
type appPage struct {
	User   *entity.Profile `json:"user"`
	Screen screen          `json:"screen"`
	Menu   []screen        `json:"menu"`
	Data   interface{}     `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Home handles GET / and opens the first screen of the user's menu
func (h *Handlers) Home(c *gin.Context) {
	user, ok := session.CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, session.SignInPath)
		return
	}
	menu := menuFor(workflow.Role(user.Role))
	if len(menu) == 0 {
		c.String(http.StatusForbidden, "no screens available")
		return
	}
	c.Redirect(http.StatusFound, "/app/"+menu[0].Key)
}

// AppPage handles GET /app/:screen. The screen's first page is loaded here
// with the request's table parameters and embedded in the shell.
func (h *Handlers) AppPage(c *gin.Context) {
	user, ok := session.CurrentUser(c)
	if !ok {
		c.Redirect(http.StatusFound, session.SignInPath)
		return
	}

	menu := menuFor(workflow.Role(user.Role))
	key := c.Param("screen")
	for _, s := range menu {
		if s.Key != key {
			continue
		}
		initial := appPage{User: user, Screen: s, Menu: menu}
		if s.load != nil {
			data, err := s.load(h, c, user)
			if err != nil {
				_ = c.Error(err)
				status, resp := h.errorResponse("app_page", err)
				if status == http.StatusUnauthorized {
					c.Redirect(http.StatusFound, session.SignInPath)
					return
				}
				initial.Error = resp.Error
			} else {
				initial.Data = data
			}
		}
		h.render(c, http.StatusOK, "app.html", gin.H{
			"Title":   s.Title,
			"Initial": initial,
		})
		return
	}
	h.render(c, http.StatusNotFound, "notfound.html", gin.H{"Title": "Halaman tidak ditemukan"})
}

func (h *Handlers) renderSignIn(c *gin.Context, status int, message string) {
	h.render(c, status, "signin.html", gin.H{
		"Title": "Masuk",
		"Error": message,
	})
}

func (h *Handlers) render(c *gin.Context, status int, name string, data gin.H) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := pages.ExecuteTemplate(c.Writer, name, data); err != nil {
		h.logger.Error("Failed to render page", "page", name, "error", err)
	}
}
