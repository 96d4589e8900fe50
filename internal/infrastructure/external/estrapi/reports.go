package estrapi

import (
	"context"
	"net/url"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/valyala/fasthttp"
)

const dateLayout = "2006-01-02"

// ListReports lists cases matching the report filter
func (c *Client) ListReports(ctx context.Context, filter port.ReportFilter) ([]*entity.Case, error) {
	q := url.Values{}
	if !filter.From.IsZero() {
		q.Set("from", filter.From.Format(dateLayout))
	}
	if !filter.To.IsZero() {
		q.Set("to", filter.To.Format(dateLayout))
	}
	if filter.Indicator != "" {
		q.Set("indicator", filter.Indicator)
	}
	if filter.BranchCode != "" {
		q.Set("branch_code", filter.BranchCode)
	}
	if filter.StatusCode != "" {
		q.Set("status", filter.StatusCode)
	}

	var rows []struct {
		caseDTO
		Track string `json:"track"`
	}
	if err := c.call(ctx, "list_reports", fasthttp.MethodGet, "/reports", q, filter.UserID, nil, &rows); err != nil {
		return nil, err
	}

	cases := make([]*entity.Case, 0, len(rows))
	for i := range rows {
		track, ok := entity.ParseTrack(rows[i].Track)
		if !ok {
			track = entity.TrackManualCabang
		}
		cases = append(cases, rows[i].caseDTO.toEntity(track))
	}
	return cases, nil
}

var _ port.CoreAPI = (*Client)(nil)
