package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/datatable"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/estr/backoffice/internal/domain/event"
	"github.com/estr/backoffice/internal/domain/workflow"
	"github.com/estr/backoffice/pkg/utils"
)

// CaseView selects which cases a list screen shows
type CaseView string

const (
	ViewTodo     CaseView = "todo"     // statuses where the role can act
	ViewRejected CaseView = "rejected" // the role's reject list
	ViewAll      CaseView = "all"
)

// ParseCaseView maps a query value to a view; empty means the to-do list
func ParseCaseView(s string) (CaseView, bool) {
	switch CaseView(s) {
	case "", ViewTodo:
		return ViewTodo, true
	case ViewRejected, ViewAll:
		return CaseView(s), true
	}
	return "", false
}

var (
	// CaseSearchFields are matched by the list search box
	CaseSearchFields = []string{"id", "cif", "customer_name", "account_number", "branch_code", "indicator", "status_description"}

	// CaseSortFields may be used as list sort keys
	CaseSortFields = []string{"id", "cif", "customer_name", "account_number", "branch_code", "indicator", "transaction_date", "amount", "status_code", "status_description"}
)

var fieldLabels = map[string]string{
	workflow.FieldExplanationOprCabang:    "Penjelasan Operator Cabang",
	workflow.FieldExplanationSpvCabang:    "Penjelasan Supervisor Cabang",
	workflow.FieldExplanationOprKepatuhan: "Penjelasan Operator Kepatuhan",
	workflow.FieldExplanationSpvKepatuhan: "Penjelasan Supervisor Kepatuhan",
	workflow.FieldRejectReason:            "Alasan penolakan",
	workflow.FieldReactivateReason:        "Alasan aktivasi kembali",
}

// CaseRow is a list row annotated with what the viewer may do with it
type CaseRow struct {
	*entity.Case
	AllowedActions []workflow.Trigger `json:"allowed_actions"`
	CanEdit        bool               `json:"can_edit"`
}

// CaseForm is the edit form of one case, prefilled for the viewer's role
type CaseForm struct {
	Case                 *entity.Case                  `json:"case"`
	Status               workflow.State                `json:"status"`
	StatusDescription    string                        `json:"status_description"`
	CanEdit              bool                          `json:"can_edit"`
	EditableField        string                        `json:"editable_field,omitempty"`
	Values               map[string]string             `json:"values"`
	PreviousExplanations map[string]string             `json:"previous_explanations"`
	AllowedActions       []workflow.Trigger            `json:"allowed_actions"`
	RequiredFields       map[workflow.Trigger][]string `json:"required_fields"`
	ConfirmActions       []workflow.Trigger            `json:"confirm_actions"`
}

// ActionRequest is one workflow action taken from the edit form
type ActionRequest struct {
	Action workflow.Trigger `json:"action"`
	// Status is the case status the user saw; a mismatch with the stored status is rejected
	Status    string            `json:"status"`
	Fields    map[string]string `json:"fields"`
	Confirmed bool              `json:"confirmed"`
}

// ActionResult tells the caller where the case went
type ActionResult struct {
	CaseID               string           `json:"case_id"`
	Action               workflow.Trigger `json:"action"`
	PreviousStatus       string           `json:"previous_status"`
	NewStatus            string           `json:"new_status"`
	NewStatusDescription string           `json:"new_status_description"`
	// RemoveFromList is set when the actor can no longer act on the case
	RemoveFromList bool   `json:"remove_from_list"`
	Message        string `json:"message,omitempty"`
}

// BulkCase is one selected row of a bulk action
type BulkCase struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// BulkActionRequest applies one action to a multi-selection
type BulkActionRequest struct {
	Action    workflow.Trigger  `json:"action"`
	Cases     []BulkCase        `json:"cases"`
	Fields    map[string]string `json:"fields"`
	Confirmed bool              `json:"confirmed"`
}

// BulkItemResult is the outcome for one case of a bulk action
type BulkItemResult struct {
	CaseID string        `json:"case_id"`
	Result *ActionResult `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// BulkResult summarizes a bulk action
type BulkResult struct {
	CorrelationID string           `json:"correlation_id"`
	Succeeded     int              `json:"succeeded"`
	Failed        int              `json:"failed"`
	Items         []BulkItemResult `json:"items"`
}

// CaseService drives the approval screens of both review tracks
type CaseService interface {
	ListCases(ctx context.Context, user *entity.Profile, track entity.Track, view CaseView, q datatable.Query) (*datatable.Page[CaseRow], error)
	PrepareForm(ctx context.Context, user *entity.Profile, track entity.Track, id string) (*CaseForm, error)
	Submit(ctx context.Context, user *entity.Profile, track entity.Track, id string, req ActionRequest) (*ActionResult, error)
	SubmitBulk(ctx context.Context, user *entity.Profile, track entity.Track, req BulkActionRequest) (*BulkResult, error)
}

type caseServiceImpl struct {
	api       port.CaseAPI
	policy    *workflow.Policy
	txManager port.TransactionManager
	recorder
}

// NewCaseService creates a new CaseService. journal, publisher and observer may be nil.
func NewCaseService(
	api port.CaseAPI,
	policy *workflow.Policy,
	journal port.JournalRepository,
	txManager port.TransactionManager,
	publisher Publisher,
	observer ActionObserver,
	logger Logger,
) CaseService {
	return &caseServiceImpl{
		api:       api,
		policy:    policy,
		txManager: txManager,
		recorder: recorder{
			journal:   journal,
			publisher: publisher,
			observer:  observer,
			logger:    logger,
		},
	}
}

func caseRowField(r CaseRow, field string) string {
	return r.Case.Field(field)
}

// authorize resolves the user's role and checks it may work on track
func authorize(user *entity.Profile, track entity.Track) (workflow.Role, error) {
	role := workflow.Role(user.Role)
	if !role.IsValid() {
		return "", ErrForbidden
	}
	if track == entity.TrackBIFast && role.IsBranch() {
		return "", ErrForbidden
	}
	return role, nil
}

func (s *caseServiceImpl) viewStatuses(role workflow.Role, track entity.Track, view CaseView) []workflow.State {
	switch view {
	case ViewTodo:
		return s.policy.TodoStatuses(role, track)
	case ViewRejected:
		out := []workflow.State{}
		for _, st := range workflow.RejectedStatuses(role) {
			if workflow.AppliesTo(track, st) {
				out = append(out, st)
			}
		}
		return out
	}
	return nil
}

// ListCases returns the role-filtered cases of track with each row's allowed actions
func (s *caseServiceImpl) ListCases(ctx context.Context, user *entity.Profile, track entity.Track, view CaseView, q datatable.Query) (*datatable.Page[CaseRow], error) {
	role, err := authorize(user, track)
	if err != nil {
		return nil, err
	}

	statuses := s.viewStatuses(role, track, view)
	if statuses != nil && len(statuses) == 0 {
		page := datatable.Apply([]CaseRow{}, q, caseRowField)
		return &page, nil
	}

	filter := port.CaseFilter{Track: track, UserID: user.UserID}
	wanted := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		filter.Statuses = append(filter.Statuses, string(st))
		wanted[string(st)] = true
	}
	if role.IsBranch() {
		filter.BranchCode = user.BranchCode
	}

	cases, err := s.api.ListCases(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	rows := make([]CaseRow, 0, len(cases))
	for _, c := range cases {
		if len(wanted) > 0 && !wanted[c.StatusCode] {
			continue
		}
		if role.IsBranch() && c.BranchCode != user.BranchCode {
			continue
		}
		st := workflow.State(c.StatusCode)
		actions := s.policy.AllowedActions(role, st)
		rows = append(rows, CaseRow{Case: c, AllowedActions: actions, CanEdit: len(actions) > 0})
	}

	page := datatable.Apply(rows, q, caseRowField)
	return &page, nil
}

// PrepareForm loads a case and prefills the viewer's explanation field.
// Explanations of other stages are returned read-only.
func (s *caseServiceImpl) PrepareForm(ctx context.Context, user *entity.Profile, track entity.Track, id string) (*CaseForm, error) {
	role, err := authorize(user, track)
	if err != nil {
		return nil, err
	}

	c, err := s.loadCase(ctx, user, role, track, id)
	if err != nil {
		return nil, err
	}

	status := workflow.State(c.StatusCode)
	actions := s.policy.AllowedActions(role, status)

	form := &CaseForm{
		Case:                 c,
		Status:               status,
		StatusDescription:    status.Description(),
		CanEdit:              len(actions) > 0,
		Values:               map[string]string{},
		PreviousExplanations: c.Explanations(),
		AllowedActions:       actions,
		RequiredFields:       make(map[workflow.Trigger][]string, len(actions)),
		ConfirmActions:       []workflow.Trigger{},
	}

	if form.CanEdit {
		if field := workflow.StageField(role); field != "" {
			form.EditableField = field
			form.Values[field] = c.Field(field)
			delete(form.PreviousExplanations, field)
		}
	}

	for _, a := range actions {
		form.RequiredFields[a] = s.policy.RequiredFields(role, a)
		if a.RequiresConfirmation() {
			form.ConfirmActions = append(form.ConfirmActions, a)
		}
	}

	return form, nil
}

func (s *caseServiceImpl) loadCase(ctx context.Context, user *entity.Profile, role workflow.Role, track entity.Track, id string) (*entity.Case, error) {
	c, err := s.api.GetCase(ctx, track, id, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load case %s: %w", id, err)
	}
	if role.IsBranch() && c.BranchCode != user.BranchCode {
		return nil, ErrForbidden
	}
	return c, nil
}

// payload checks confirmation and required fields and returns the fields sent
// to the core API: the action's required fields plus the role's explanation.
func (s *caseServiceImpl) payload(role workflow.Role, action workflow.Trigger, confirmed bool, fields map[string]string) (map[string]string, error) {
	if !action.IsValid() {
		return nil, invalid("action", fmt.Sprintf("Aksi %q tidak dikenal", action))
	}
	if action.RequiresConfirmation() && !confirmed {
		return nil, ErrConfirmationRequired
	}

	out := make(map[string]string)
	for _, key := range s.policy.RequiredFields(role, action) {
		v := utils.SanitizeString(fields[key])
		if v == "" {
			label := fieldLabels[key]
			if label == "" {
				label = key
			}
			return nil, invalid(key, label+" wajib diisi")
		}
		out[key] = v
	}

	if stage := workflow.StageField(role); stage != "" {
		if _, done := out[stage]; !done {
			if v := utils.SanitizeString(fields[stage]); v != "" {
				out[stage] = v
			}
		}
	}
	return out, nil
}

// Submit validates and sends one workflow action. A missing required field
// fails before any call to the core API. The policy is evaluated against the
// case as the core API reports it; req.Status only guards against a stale view.
func (s *caseServiceImpl) Submit(ctx context.Context, user *entity.Profile, track entity.Track, id string, req ActionRequest) (*ActionResult, error) {
	role, err := authorize(user, track)
	if err != nil {
		return nil, err
	}

	if claimed := workflow.State(req.Status); claimed != "" {
		if _, err := s.policy.Transition(ctx, role, claimed, req.Action); err != nil {
			return nil, err
		}
	}

	fields, err := s.payload(role, req.Action, req.Confirmed, req.Fields)
	if err != nil {
		return nil, err
	}

	from, err := s.currentStatus(ctx, user, role, track, id, req.Status)
	if err != nil {
		return nil, err
	}

	res, entry, err := s.transition(ctx, user, role, track, id, from, req.Action, fields, uuid.NewString())
	if entry != nil {
		s.record(ctx, entry)
	}
	return res, err
}

// currentStatus loads the case within the user's scope and returns its status.
// A non-empty seen status that differs from the stored one is ErrStaleCase.
func (s *caseServiceImpl) currentStatus(ctx context.Context, user *entity.Profile, role workflow.Role, track entity.Track, id, seen string) (workflow.State, error) {
	c, err := s.loadCase(ctx, user, role, track, id)
	if err != nil {
		return "", err
	}
	if seen != "" && seen != c.StatusCode {
		return "", fmt.Errorf("%w: case %s is now %s", ErrStaleCase, id, workflow.State(c.StatusCode).Description())
	}
	return workflow.State(c.StatusCode), nil
}

// SubmitBulk applies one action to every selected case. Confirmation and
// required fields are checked once; each case is then loaded, checked and
// transitioned on its own and the journal entries are written together.
func (s *caseServiceImpl) SubmitBulk(ctx context.Context, user *entity.Profile, track entity.Track, req BulkActionRequest) (*BulkResult, error) {
	role, err := authorize(user, track)
	if err != nil {
		return nil, err
	}

	// a case ticked twice is submitted once
	selected := datatable.NewSelection()
	cases := make([]BulkCase, 0, len(req.Cases))
	for _, bc := range req.Cases {
		if bc.ID == "" || selected.Has(bc.ID) {
			continue
		}
		selected.Toggle(bc.ID)
		cases = append(cases, bc)
	}
	if selected.Len() == 0 {
		return nil, invalid("cases", "Pilih minimal satu data")
	}

	fields, err := s.payload(role, req.Action, req.Confirmed, req.Fields)
	if err != nil {
		return nil, err
	}

	result := &BulkResult{
		CorrelationID: uuid.NewString(),
		Items:         make([]BulkItemResult, 0, len(cases)),
	}
	entries := make([]*entity.JournalEntry, 0, len(cases))

	for _, bc := range cases {
		item := BulkItemResult{CaseID: bc.ID}

		from, err := s.currentStatus(ctx, user, role, track, bc.ID, bc.Status)
		var (
			res   *ActionResult
			entry *entity.JournalEntry
		)
		if err == nil {
			res, entry, err = s.transition(ctx, user, role, track, bc.ID, from, req.Action, fields, result.CorrelationID)
		}
		if entry != nil {
			entries = append(entries, entry)
		}
		if err != nil {
			item.Error = err.Error()
			result.Failed++
		} else {
			item.Result = res
			result.Succeeded++
		}
		result.Items = append(result.Items, item)
	}

	s.recordAll(ctx, entries)

	s.logger.Info("Bulk action completed",
		"action", req.Action, "track", track, "correlation_id", result.CorrelationID,
		"succeeded", result.Succeeded, "failed", result.Failed)

	return result, nil
}

func (s *caseServiceImpl) recordAll(ctx context.Context, entries []*entity.JournalEntry) {
	if s.journal == nil || len(entries) == 0 {
		return
	}
	write := func(ctx context.Context) error {
		for _, e := range entries {
			if err := s.journal.Create(ctx, e); err != nil {
				return err
			}
		}
		return nil
	}

	var err error
	if s.txManager != nil {
		err = s.txManager.WithTransaction(ctx, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		s.logger.Error("Failed to write bulk journal entries", "count", len(entries), "error", err)
	}
}

// transition checks the policy for one case and sends exactly one action to the
// core API. The returned journal entry is nil when nothing was sent.
func (s *caseServiceImpl) transition(
	ctx context.Context,
	user *entity.Profile,
	role workflow.Role,
	track entity.Track,
	id string,
	from workflow.State,
	action workflow.Trigger,
	fields map[string]string,
	correlationID string,
) (*ActionResult, *entity.JournalEntry, error) {
	to, err := s.policy.Transition(ctx, role, from, action)
	if err != nil {
		return nil, nil, err
	}

	req := port.TransitionRequest{
		Track:       track,
		CaseID:      id,
		Action:      string(action),
		FromStatus:  string(from),
		ToStatus:    string(to),
		ActorUserID: user.UserID,
		ActorRole:   string(role),
		BranchCode:  user.BranchCode,
		Fields:      fields,
	}

	entry := s.newEntry(entity.SubjectCase, id, string(action), user, req)
	entry.PreviousStatus = string(from)
	entry.CorrelationID = correlationID

	res, err := s.api.SubmitAction(ctx, req)
	if err == nil && res == nil {
		err = errors.New("empty response from core API")
	}
	s.finish(entry, err)
	if err != nil {
		s.logger.Error("Case action failed", "case_id", id, "action", action, "user_id", user.UserID, "error", err)
		return nil, entry, fmt.Errorf("failed to %s case %s: %w", action, id, err)
	}

	newStatus := workflow.State(res.StatusCode)
	if newStatus == "" {
		newStatus = to
	}
	entry.NewStatus = string(newStatus)

	s.publish(ctx, event.NewEventWithCorrelation(event.TypeCaseTransitioned, id, user.UserID, map[string]interface{}{
		"track":       string(track),
		"action":      string(action),
		"role":        string(role),
		"from_status": string(from),
		"to_status":   string(newStatus),
		"branch_code": user.BranchCode,
	}, correlationID))

	s.logger.Info("Case action submitted",
		"case_id", id, "action", action, "from", from, "to", newStatus, "user_id", user.UserID)

	return &ActionResult{
		CaseID:               id,
		Action:               action,
		PreviousStatus:       string(from),
		NewStatus:            string(newStatus),
		NewStatusDescription: newStatus.Description(),
		RemoveFromList:       !s.policy.CanEdit(role, newStatus),
		Message:              res.Message,
	}, entry, nil
}
