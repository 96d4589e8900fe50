package estrapi

import (
	"context"
	"net/url"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/valyala/fasthttp"
)

// TriggerJob asks the core to start a detection job
func (c *Client) TriggerJob(ctx context.Context, req port.JobTriggerRequest) (*port.JobTriggerResult, error) {
	result := port.JobTriggerResult{Accepted: true}
	path := "/jobs/" + url.PathEscape(req.JobName) + "/trigger"
	if err := c.call(ctx, "trigger_job", fasthttp.MethodPost, path, nil, req.RequestedBy, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListJobLogs lists the log files written by job runs
func (c *Client) ListJobLogs(ctx context.Context, userID string) ([]*entity.JobLog, error) {
	var logs []*entity.JobLog
	if err := c.call(ctx, "list_job_logs", fasthttp.MethodGet, "/jobs/logs", nil, userID, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
