package http

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/estr/backoffice/internal/application/service"
	"github.com/estr/backoffice/internal/export"
)

const dateLayout = "2006-01-02"

var reportSearchFields = []string{"id", "cif", "customer_name", "account_number", "branch_code", "indicator", "status_description"}

// reportQuery reads the report filter from the query string. Dates are
// yyyy-mm-dd; an empty range means the last 30 days.
func reportQuery(c *gin.Context) (service.ReportQuery, error) {
	rq := service.ReportQuery{
		Indicator:  c.Query("indicator"),
		BranchCode: c.Query("branch"),
		StatusCode: c.Query("status"),
	}

	now := time.Now()
	rq.To = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	rq.From = rq.To.AddDate(0, 0, -30)

	if v := c.Query("from"); v != "" {
		from, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			return rq, fmt.Errorf("invalid from date %q", v)
		}
		rq.From = from
	}
	if v := c.Query("to"); v != "" {
		to, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			return rq, fmt.Errorf("invalid to date %q", v)
		}
		rq.To = to
	}
	return rq, nil
}

// ListReports handles GET /api/reports
func (h *Handlers) ListReports(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	rq, err := reportQuery(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	q := h.tableQuery(c, reportSearchFields, service.CaseSortFields)
	page, err := h.deps.Reports.List(c.Request.Context(), user, rq, q)
	if err != nil {
		h.respondError(c, "list_reports", err)
		return
	}
	respondOK(c, page)
}

// ExportReports handles GET /api/reports/export?format=xlsx|pdf|zip and
// streams the file as an attachment
func (h *Handlers) ExportReports(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	rq, err := reportQuery(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatExcel)))
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	q := h.tableQuery(c, reportSearchFields, service.CaseSortFields)
	res, err := h.deps.Reports.Export(c.Request.Context(), user, rq, q, format)
	if err != nil {
		h.respondError(c, "export_reports", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Name))
	c.Header("Content-Length", strconv.Itoa(len(res.Data)))
	c.Data(http.StatusOK, res.ContentType, res.Data)
}
