package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/estr/backoffice/internal/domain/entity"
)

// journalQuery reads the journal filter and paging from the query string.
// Dates are yyyy-mm-dd and until is inclusive.
func (h *Handlers) journalQuery(c *gin.Context) (entity.JournalFilter, int, int, error) {
	filter := entity.JournalFilter{
		Subject:     strings.ToUpper(c.Query("subject")),
		SubjectID:   c.Query("subject_id"),
		ActorUserID: c.Query("actor"),
		Outcome:     strings.ToUpper(c.Query("outcome")),
	}
	if v := c.Query("since"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			return filter, 0, 0, errors.New("invalid since date")
		}
		filter.Since = &t
	}
	if v := c.Query("until"); v != "" {
		t, err := time.ParseInLocation(dateLayout, v, time.Local)
		if err != nil {
			return filter, 0, 0, errors.New("invalid until date")
		}
		end := t.AddDate(0, 0, 1)
		filter.Until = &end
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(h.deps.Limits.DefaultPageSize)))
	if size <= 0 {
		size = h.deps.Limits.DefaultPageSize
	}
	if h.deps.Limits.MaxPageSize > 0 && size > h.deps.Limits.MaxPageSize {
		size = h.deps.Limits.MaxPageSize
	}
	return filter, page, size, nil
}

// ListJournal handles GET /api/journal
func (h *Handlers) ListJournal(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}

	filter, page, size, err := h.journalQuery(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.deps.Journal.List(c.Request.Context(), user, filter, page, size)
	if err != nil {
		h.respondError(c, "list_journal", err)
		return
	}
	respondOK(c, result)
}

// SubjectHistory handles GET /api/journal/:subject/:id
func (h *Handlers) SubjectHistory(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}

	entries, err := h.deps.Journal.History(c.Request.Context(), user, strings.ToUpper(c.Param("subject")), c.Param("id"))
	if err != nil {
		h.respondError(c, "subject_history", err)
		return
	}
	respondOK(c, entries)
}
