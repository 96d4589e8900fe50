package estrapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/estr/backoffice/internal/domain/workflow"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
)

// caseDTO mirrors the core API's case record. Dates arrive in several
// layouts and older records carry only the status description.
type caseDTO struct {
	ID                string          `json:"id"`
	CIF               string          `json:"cif"`
	AccountNumber     string          `json:"account_number"`
	CustomerName      string          `json:"customer_name"`
	BranchCode        string          `json:"branch_code"`
	Indicator         string          `json:"indicator"`
	TransactionDate   string          `json:"transaction_date"`
	Amount            decimal.Decimal `json:"amount"`
	StatusCode        string          `json:"status_code"`
	StatusDescription string          `json:"status_description"`

	ExplanationOprCabang    string `json:"explanation_opr_cabang"`
	ExplanationSpvCabang    string `json:"explanation_spv_cabang"`
	ExplanationOprKepatuhan string `json:"explanation_opr_kepatuhan"`
	ExplanationSpvKepatuhan string `json:"explanation_spv_kepatuhan"`

	InputOprCabangBy    string `json:"input_opr_cabang_by"`
	InputOprCabangAt    string `json:"input_opr_cabang_at"`
	AuthSpvCabangBy     string `json:"auth_spv_cabang_by"`
	AuthSpvCabangAt     string `json:"auth_spv_cabang_at"`
	InputOprKepatuhanBy string `json:"input_opr_kepatuhan_by"`
	InputOprKepatuhanAt string `json:"input_opr_kepatuhan_at"`
	AuthSpvKepatuhanBy  string `json:"auth_spv_kepatuhan_by"`
	AuthSpvKepatuhanAt  string `json:"auth_spv_kepatuhan_at"`

	RejectedBy   string `json:"rejected_by"`
	RejectedAt   string `json:"rejected_at"`
	RejectReason string `json:"reject_reason"`

	Active *bool `json:"active"`
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseTimePtr(s string) *time.Time {
	if t, ok := parseTime(s); ok {
		return &t
	}
	return nil
}

func (d *caseDTO) toEntity(track entity.Track) *entity.Case {
	c := &entity.Case{
		ID:                      d.ID,
		Track:                   track,
		CIF:                     d.CIF,
		AccountNumber:           d.AccountNumber,
		CustomerName:            d.CustomerName,
		BranchCode:              d.BranchCode,
		Indicator:               d.Indicator,
		Amount:                  d.Amount,
		StatusCode:              d.StatusCode,
		StatusDescription:       d.StatusDescription,
		ExplanationOprCabang:    d.ExplanationOprCabang,
		ExplanationSpvCabang:    d.ExplanationSpvCabang,
		ExplanationOprKepatuhan: d.ExplanationOprKepatuhan,
		ExplanationSpvKepatuhan: d.ExplanationSpvKepatuhan,
		InputOprCabangBy:        d.InputOprCabangBy,
		InputOprCabangAt:        parseTimePtr(d.InputOprCabangAt),
		AuthSpvCabangBy:         d.AuthSpvCabangBy,
		AuthSpvCabangAt:         parseTimePtr(d.AuthSpvCabangAt),
		InputOprKepatuhanBy:     d.InputOprKepatuhanBy,
		InputOprKepatuhanAt:     parseTimePtr(d.InputOprKepatuhanAt),
		AuthSpvKepatuhanBy:      d.AuthSpvKepatuhanBy,
		AuthSpvKepatuhanAt:      parseTimePtr(d.AuthSpvKepatuhanAt),
		RejectedBy:              d.RejectedBy,
		RejectedAt:              parseTimePtr(d.RejectedAt),
		RejectReason:            d.RejectReason,
		Active:                  d.Active == nil || *d.Active,
	}

	if t, ok := parseTime(d.TransactionDate); ok {
		c.TransactionDate = t
	}

	if c.StatusCode == "" {
		if s, ok := workflow.StateFromDescription(c.StatusDescription); ok {
			c.StatusCode = s.String()
		}
	}
	if c.StatusDescription == "" && c.StatusCode != "" {
		c.StatusDescription = workflow.State(c.StatusCode).Description()
	}
	return c
}

func trackPath(track entity.Track) (string, error) {
	switch track {
	case entity.TrackManualCabang:
		return "/manual-cabang", nil
	case entity.TrackBIFast:
		return "/bifast", nil
	}
	return "", fmt.Errorf("unknown track %q", track)
}

func caseQuery(filter port.CaseFilter) url.Values {
	q := url.Values{}
	if len(filter.Statuses) > 0 {
		q.Set("status", strings.Join(filter.Statuses, ","))
	}
	if filter.BranchCode != "" {
		q.Set("branch_code", filter.BranchCode)
	}
	return q
}

func (c *Client) listCases(ctx context.Context, operation string, track entity.Track, filter port.CaseFilter) ([]*entity.Case, error) {
	base, err := trackPath(track)
	if err != nil {
		return nil, err
	}

	var dtos []caseDTO
	if err := c.call(ctx, operation, fasthttp.MethodGet, base+"/cases", caseQuery(filter), filter.UserID, nil, &dtos); err != nil {
		return nil, err
	}

	cases := make([]*entity.Case, 0, len(dtos))
	for i := range dtos {
		cases = append(cases, dtos[i].toEntity(track))
	}
	return cases, nil
}

// ListManualCases lists branch-originated cases
func (c *Client) ListManualCases(ctx context.Context, filter port.CaseFilter) ([]*entity.Case, error) {
	return c.listCases(ctx, "list_manual_cases", entity.TrackManualCabang, filter)
}

// ListBIFastCases lists BI-Fast cases
func (c *Client) ListBIFastCases(ctx context.Context, filter port.CaseFilter) ([]*entity.Case, error) {
	return c.listCases(ctx, "list_bifast_cases", entity.TrackBIFast, filter)
}

// ListCases lists cases of filter.Track
func (c *Client) ListCases(ctx context.Context, filter port.CaseFilter) ([]*entity.Case, error) {
	if filter.Track == entity.TrackBIFast {
		return c.ListBIFastCases(ctx, filter)
	}
	return c.ListManualCases(ctx, filter)
}

// GetCase returns one case of a track
func (c *Client) GetCase(ctx context.Context, track entity.Track, id, userID string) (*entity.Case, error) {
	base, err := trackPath(track)
	if err != nil {
		return nil, err
	}

	var dto caseDTO
	if err := c.call(ctx, "get_case", fasthttp.MethodGet, base+"/cases/"+url.PathEscape(id), nil, userID, nil, &dto); err != nil {
		return nil, err
	}
	if dto.ID == "" {
		dto.ID = id
	}
	return dto.toEntity(track), nil
}

func (c *Client) submitAction(ctx context.Context, operation string, req port.TransitionRequest) (*port.TransitionResult, error) {
	base, err := trackPath(req.Track)
	if err != nil {
		return nil, err
	}

	path := base + "/cases/" + url.PathEscape(req.CaseID) + "/actions"
	var result port.TransitionResult
	if err := c.call(ctx, operation, fasthttp.MethodPost, path, nil, req.ActorUserID, req, &result); err != nil {
		return nil, err
	}

	if result.CaseID == "" {
		result.CaseID = req.CaseID
	}
	if result.StatusCode == "" {
		result.StatusCode = req.ToStatus
	}
	return &result, nil
}

// SubmitManualAction submits a workflow action on a branch-originated case
func (c *Client) SubmitManualAction(ctx context.Context, req port.TransitionRequest) (*port.TransitionResult, error) {
	req.Track = entity.TrackManualCabang
	return c.submitAction(ctx, "submit_manual_action", req)
}

// SubmitBIFastAction submits a workflow action on a BI-Fast case
func (c *Client) SubmitBIFastAction(ctx context.Context, req port.TransitionRequest) (*port.TransitionResult, error) {
	req.Track = entity.TrackBIFast
	return c.submitAction(ctx, "submit_bifast_action", req)
}

// SubmitAction routes req to the endpoint of its track
func (c *Client) SubmitAction(ctx context.Context, req port.TransitionRequest) (*port.TransitionResult, error) {
	if req.Track == entity.TrackBIFast {
		return c.SubmitBIFastAction(ctx, req)
	}
	return c.SubmitManualAction(ctx, req)
}
