package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/estr/backoffice/internal/application/service"
)

var jobLogSortFields = []string{"filename", "job_name", "modified_at", "size"}

// triggerBody carries optional job parameters
type triggerBody struct {
	Params map[string]string `json:"params"`
}

// KnownJobs handles GET /api/jobs
func (h *Handlers) KnownJobs(c *gin.Context) {
	if _, ok := h.user(c); !ok {
		return
	}
	respondOK(c, h.deps.Jobs.KnownJobs())
}

// TriggerJob handles POST /api/jobs/:name/trigger
func (h *Handlers) TriggerJob(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}

	var body triggerBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			fail(c, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	res, err := h.deps.Jobs.Trigger(c.Request.Context(), user, c.Param("name"), body.Params)
	if err != nil {
		h.respondError(c, "trigger_job", err)
		return
	}
	c.JSON(http.StatusAccepted, Response{Success: true, Data: res})
}

// JobLogs handles GET /api/jobs/logs
func (h *Handlers) JobLogs(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}

	q := h.tableQuery(c, service.JobLogSearchFields, jobLogSortFields)
	page, err := h.deps.Jobs.Logs(c.Request.Context(), user, q)
	if err != nil {
		h.respondError(c, "job_logs", err)
		return
	}
	respondOK(c, page)
}

// JobProgress handles GET /api/jobs/progress
func (h *Handlers) JobProgress(c *gin.Context) {
	if _, ok := h.user(c); !ok {
		return
	}
	respondOK(c, h.deps.Tracker.Snapshot())
}

// JobProgressSocket handles GET /ws/job-progress
func (h *Handlers) JobProgressSocket(c *gin.Context) {
	user, ok := h.user(c)
	if !ok {
		return
	}
	if err := h.deps.Hub.ServeWS(c.Writer, c.Request, user.UserID); err != nil {
		h.logger.Error("Progress socket upgrade failed", "user_id", user.UserID, "error", err)
	}
}
