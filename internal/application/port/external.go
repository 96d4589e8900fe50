package port

import (
	"context"
	"time"

	"github.com/estr/backoffice/internal/domain/entity"
)

// CaseFilter selects cases for a list view
type CaseFilter struct {
	Track      entity.Track
	Statuses   []string
	BranchCode string // branch roles only see their own branch
	UserID     string
}

// TransitionRequest is one workflow action submitted to the core API
type TransitionRequest struct {
	Track       entity.Track      `json:"track"`
	CaseID      string            `json:"case_id"`
	Action      string            `json:"action"`
	FromStatus  string            `json:"from_status"`
	ToStatus    string            `json:"to_status"`
	ActorUserID string            `json:"actor_user_id"`
	ActorRole   string            `json:"actor_role"`
	BranchCode  string            `json:"branch_code,omitempty"`
	Fields      map[string]string `json:"fields"`
}

// TransitionResult is the core API's answer to a TransitionRequest
type TransitionResult struct {
	CaseID     string `json:"case_id"`
	StatusCode string `json:"status_code"`
	Message    string `json:"message,omitempty"`
}

// ReportFilter narrows the report listing
type ReportFilter struct {
	From       time.Time
	To         time.Time
	Indicator  string
	BranchCode string
	StatusCode string
	UserID     string
}

// ParameterUpdate replaces the values of one parameter set, pending authorization
type ParameterUpdate struct {
	Kind        string            `json:"kind"`
	Indicator   string            `json:"indicator"`
	Values      map[string]string `json:"values"`
	Active      bool              `json:"active"`
	RequestedBy string            `json:"requested_by"`
}

// ParameterAuthorization approves or rejects a pending parameter change
type ParameterAuthorization struct {
	ParameterID  string `json:"parameter_id"`
	Approve      bool   `json:"approve"`
	Reason       string `json:"reason,omitempty"`
	AuthorizedBy string `json:"authorized_by"`
}

// JobTriggerRequest asks the core API to start a detection job
type JobTriggerRequest struct {
	RunID       string            `json:"run_id"`
	JobName     string            `json:"job_name"`
	RequestedBy string            `json:"requested_by"`
	Params      map[string]string `json:"params,omitempty"`
}

// JobTriggerResult is the core API's answer to a trigger request
type JobTriggerResult struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message,omitempty"`
}

// AuthAPI authenticates back-office users
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*entity.Profile, error)
}

// CaseAPI reads and transitions cases on both review tracks
type CaseAPI interface {
	ListCases(ctx context.Context, filter CaseFilter) ([]*entity.Case, error)
	GetCase(ctx context.Context, track entity.Track, id, userID string) (*entity.Case, error)
	SubmitAction(ctx context.Context, req TransitionRequest) (*TransitionResult, error)
}

// ParameterAPI reads and updates detection parameters
type ParameterAPI interface {
	ListRedFlagParameters(ctx context.Context, userID string) ([]*entity.Parameter, error)
	GetRedFlagParameter(ctx context.Context, indicator, userID string) (*entity.Parameter, error)
	UpdateRedFlagParameter(ctx context.Context, update ParameterUpdate) (*entity.Parameter, error)
	GetTransactionCodeParameters(ctx context.Context, userID string) (*entity.Parameter, error)
	UpdateTransactionCodeParameters(ctx context.Context, update ParameterUpdate) (*entity.Parameter, error)
	ListPendingParameters(ctx context.Context, userID string) ([]*entity.Parameter, error)
	AuthorizeParameter(ctx context.Context, auth ParameterAuthorization) (*entity.Parameter, error)
}

// JobAPI starts detection jobs and lists their logs
type JobAPI interface {
	TriggerJob(ctx context.Context, req JobTriggerRequest) (*JobTriggerResult, error)
	ListJobLogs(ctx context.Context, userID string) ([]*entity.JobLog, error)
}

// ReportAPI lists cases for reporting
type ReportAPI interface {
	ListReports(ctx context.Context, filter ReportFilter) ([]*entity.Case, error)
}

// CoreAPI is the full remote eSTR core surface
type CoreAPI interface {
	AuthAPI
	CaseAPI
	ParameterAPI
	JobAPI
	ReportAPI
}
