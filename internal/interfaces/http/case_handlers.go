package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/estr/backoffice/internal/application/service"
	"github.com/estr/backoffice/internal/domain/workflow"
)

// actionBody is the JSON body of a single case action
type actionBody struct {
	Status    string            `json:"status"`
	Fields    map[string]string `json:"fields"`
	Confirmed bool              `json:"confirmed"`
}

// bulkBody is the JSON body of a bulk case action
type bulkBody struct {
	Cases     []service.BulkCase `json:"cases"`
	Fields    map[string]string  `json:"fields"`
	Confirmed bool               `json:"confirmed"`
}

func parseAction(s string) workflow.Trigger {
	return workflow.Trigger(strings.ToUpper(strings.TrimSpace(s)))
}

// ListCases handles GET /api/cases/:track
func (h *Handlers) ListCases(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	track, ok := h.track(c)
	if !ok {
		return
	}
	view, ok := service.ParseCaseView(c.Query("view"))
	if !ok {
		fail(c, http.StatusBadRequest, "invalid view")
		return
	}

	q := h.tableQuery(c, service.CaseSearchFields, service.CaseSortFields)
	page, err := h.deps.Cases.ListCases(c.Request.Context(), user, track, view, q)
	if err != nil {
		h.respondError(c, "list_cases", err)
		return
	}
	respondOK(c, page)
}

// CaseForm handles GET /api/cases/:track/:id/form
func (h *Handlers) CaseForm(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	track, ok := h.track(c)
	if !ok {
		return
	}

	form, err := h.deps.Cases.PrepareForm(c.Request.Context(), user, track, c.Param("id"))
	if err != nil {
		h.respondError(c, "case_form", err)
		return
	}
	respondOK(c, form)
}

// SubmitCaseAction handles POST /api/cases/:track/:id/actions/:action
func (h *Handlers) SubmitCaseAction(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	track, ok := h.track(c)
	if !ok {
		return
	}

	var body actionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	req := service.ActionRequest{
		Action:    parseAction(c.Param("action")),
		Status:    body.Status,
		Fields:    body.Fields,
		Confirmed: body.Confirmed,
	}
	result, err := h.deps.Cases.Submit(c.Request.Context(), user, track, c.Param("id"), req)
	if err != nil {
		h.respondError(c, "submit_case_action", err)
		return
	}
	respondOK(c, result)
}

// SubmitBulkAction handles POST /api/cases/:track/bulk/:action
func (h *Handlers) SubmitBulkAction(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	track, ok := h.track(c)
	if !ok {
		return
	}

	var body bulkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	req := service.BulkActionRequest{
		Action:    parseAction(c.Param("action")),
		Cases:     body.Cases,
		Fields:    body.Fields,
		Confirmed: body.Confirmed,
	}
	result, err := h.deps.Cases.SubmitBulk(c.Request.Context(), user, track, req)
	if err != nil {
		h.respondError(c, "submit_bulk_action", err)
		return
	}
	respondOK(c, result)
}
