package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/estr/backoffice/internal/application/service"
	"github.com/estr/backoffice/internal/domain/paramform"
)

var parameterSortFields = []string{"indicator", "description", "auth_status", "requested_by", "active"}

// ListRedFlagParameters handles GET /api/parameters/red-flag
func (h *Handlers) ListRedFlagParameters(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}

	q := h.tableQuery(c, service.ParameterSearchFields, parameterSortFields)
	page, err := h.deps.Parameters.ListRedFlag(c.Request.Context(), user, q)
	if err != nil {
		h.respondError(c, "list_red_flag_parameters", err)
		return
	}
	respondOK(c, page)
}

// RedFlagParameterForm handles GET /api/parameters/red-flag/:indicator
func (h *Handlers) RedFlagParameterForm(c *gin.Context) {
	h.parameterForm(c, c.Param("indicator"))
}

// SaveRedFlagParameter handles PUT /api/parameters/red-flag/:indicator
func (h *Handlers) SaveRedFlagParameter(c *gin.Context) {
	h.saveParameter(c, c.Param("indicator"))
}

// TransactionCodeForm handles GET /api/parameters/transaction-code
func (h *Handlers) TransactionCodeForm(c *gin.Context) {
	h.parameterForm(c, paramform.TransactionCodeIndicator)
}

// SaveTransactionCode handles PUT /api/parameters/transaction-code
func (h *Handlers) SaveTransactionCode(c *gin.Context) {
	h.saveParameter(c, paramform.TransactionCodeIndicator)
}

func (h *Handlers) parameterForm(c *gin.Context, indicator string) {
	user, ok := h.user(c)
	if !ok {
		return
	}

	form, err := h.deps.Parameters.GetForm(c.Request.Context(), user, indicator)
	if err != nil {
		h.respondError(c, "parameter_form", err)
		return
	}
	respondOK(c, form)
}

func (h *Handlers) saveParameter(c *gin.Context, indicator string) {
	user, ok := h.user(c)
	if !ok {
		return
	}

	var req service.SaveParameterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := h.deps.Parameters.Save(c.Request.Context(), user, indicator, req)
	if err != nil {
		h.respondError(c, "save_parameter", err)
		return
	}
	respondOK(c, saved)
}

// ListPendingParameters handles GET /api/parameters/pending
func (h *Handlers) ListPendingParameters(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}

	q := h.tableQuery(c, service.ParameterSearchFields, parameterSortFields)
	page, err := h.deps.Parameters.ListPending(c.Request.Context(), user, q)
	if err != nil {
		h.respondError(c, "list_pending_parameters", err)
		return
	}
	respondOK(c, page)
}

// AuthorizeParameter handles POST /api/parameters/:id/authorize
func (h *Handlers) AuthorizeParameter(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}

	var req service.AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	param, err := h.deps.Parameters.Authorize(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		h.respondError(c, "authorize_parameter", err)
		return
	}
	respondOK(c, param)
}
