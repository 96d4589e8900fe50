package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/datatable"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/estr/backoffice/internal/domain/event"
	"github.com/estr/backoffice/internal/domain/paramform"
	"github.com/estr/backoffice/internal/domain/workflow"
	"github.com/estr/backoffice/pkg/utils"
)

// Parameter journal actions
const (
	ParameterActionSave       = "SAVE"
	ParameterActionActivate   = "ACTIVATE"
	ParameterActionDeactivate = "DEACTIVATE"
	ParameterActionApprove    = "APPROVE"
	ParameterActionReject     = "REJECT"
)

// ParameterSearchFields are matched by the parameter list search box
var ParameterSearchFields = []string{"indicator", "description", "auth_status", "requested_by"}

// ParameterForm is a parameter set bound to its form schema
type ParameterForm struct {
	Schema       paramform.Schema  `json:"schema"`
	Parameter    *entity.Parameter `json:"parameter"`
	Values       map[string]string `json:"values"`
	Active       bool              `json:"active"`
	Pending      bool              `json:"pending"`
	CanEdit      bool              `json:"can_edit"`
	CanAuthorize bool              `json:"can_authorize"`
}

// SaveParameterRequest carries a whole form. Nil Values keeps the current
// values, so an activation toggle sends only Active.
type SaveParameterRequest struct {
	Values map[string]string `json:"values"`
	Active *bool             `json:"active"`
}

// AuthorizeRequest approves or rejects a pending change
type AuthorizeRequest struct {
	Approve   bool   `json:"approve"`
	Reason    string `json:"reason"`
	Confirmed bool   `json:"confirmed"`
}

// ParameterService drives the parameter setting and authorization screens
type ParameterService interface {
	ListRedFlag(ctx context.Context, user *entity.Profile, q datatable.Query) (*datatable.Page[*entity.Parameter], error)
	GetForm(ctx context.Context, user *entity.Profile, indicator string) (*ParameterForm, error)
	Save(ctx context.Context, user *entity.Profile, indicator string, req SaveParameterRequest) (*entity.Parameter, error)
	ListPending(ctx context.Context, user *entity.Profile, q datatable.Query) (*datatable.Page[*entity.Parameter], error)
	Authorize(ctx context.Context, user *entity.Profile, id string, req AuthorizeRequest) (*entity.Parameter, error)
}

type parameterServiceImpl struct {
	api port.ParameterAPI
	recorder
}

// NewParameterService creates a new ParameterService. journal, publisher and observer may be nil.
func NewParameterService(
	api port.ParameterAPI,
	journal port.JournalRepository,
	publisher Publisher,
	observer ActionObserver,
	logger Logger,
) ParameterService {
	return &parameterServiceImpl{
		api: api,
		recorder: recorder{
			journal:   journal,
			publisher: publisher,
			observer:  observer,
			logger:    logger,
		},
	}
}

func parameterField(p *entity.Parameter, field string) string {
	return p.Field(field)
}

func canViewParameters(role workflow.Role) bool {
	return role.IsCompliance() || role == workflow.RoleAdmin
}

func lookupSchema(indicator string) (paramform.Schema, error) {
	schema, ok := paramform.Lookup(strings.ToUpper(strings.TrimSpace(indicator)))
	if !ok {
		return paramform.Schema{}, fmt.Errorf("%w: parameter %q", ErrNotFound, indicator)
	}
	return schema, nil
}

func (s *parameterServiceImpl) get(ctx context.Context, schema paramform.Schema, userID string) (*entity.Parameter, error) {
	var (
		p   *entity.Parameter
		err error
	)
	if schema.Kind == entity.ParameterKindTransactionCode {
		p, err = s.api.GetTransactionCodeParameters(ctx, userID)
	} else {
		p, err = s.api.GetRedFlagParameter(ctx, schema.Indicator, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load parameter %s: %w", schema.Indicator, err)
	}
	return p, nil
}

// ListRedFlag returns the red-flag parameter sets through the data table
func (s *parameterServiceImpl) ListRedFlag(ctx context.Context, user *entity.Profile, q datatable.Query) (*datatable.Page[*entity.Parameter], error) {
	if !canViewParameters(workflow.Role(user.Role)) {
		return nil, ErrForbidden
	}
	params, err := s.api.ListRedFlagParameters(ctx, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list parameters: %w", err)
	}
	page := datatable.Apply(params, q, parameterField)
	return &page, nil
}

// GetForm loads one parameter set and prefills its form
func (s *parameterServiceImpl) GetForm(ctx context.Context, user *entity.Profile, indicator string) (*ParameterForm, error) {
	role := workflow.Role(user.Role)
	if !canViewParameters(role) {
		return nil, ErrForbidden
	}
	schema, err := lookupSchema(indicator)
	if err != nil {
		return nil, err
	}

	p, err := s.get(ctx, schema, user.UserID)
	if err != nil {
		return nil, err
	}

	return &ParameterForm{
		Schema:       schema,
		Parameter:    p,
		Values:       schema.Prefill(p.Values),
		Active:       p.Active,
		Pending:      p.IsPending(),
		CanEdit:      role.CanEditParameters() && !p.IsPending(),
		CanAuthorize: role.CanAuthorizeParameters() && p.IsPending() && p.RequestedBy != user.UserID,
	}, nil
}

// Save normalizes the form and sends it as one update. The change waits for
// authorization by another user.
func (s *parameterServiceImpl) Save(ctx context.Context, user *entity.Profile, indicator string, req SaveParameterRequest) (*entity.Parameter, error) {
	if !workflow.Role(user.Role).CanEditParameters() {
		return nil, ErrForbidden
	}
	schema, err := lookupSchema(indicator)
	if err != nil {
		return nil, err
	}
	if req.Values == nil && req.Active == nil {
		return nil, invalid("values", "Tidak ada perubahan untuk disimpan")
	}

	var values map[string]string
	if req.Values != nil {
		if values, err = normalizeForm(schema, req.Values); err != nil {
			return nil, err
		}
	}

	current, err := s.get(ctx, schema, user.UserID)
	if err != nil {
		return nil, err
	}
	if current.IsPending() {
		return nil, invalid("indicator", "Perubahan sebelumnya masih menunggu otorisasi")
	}

	action := ParameterActionSave
	if values == nil {
		if values, err = normalizeForm(schema, schema.Prefill(current.Values)); err != nil {
			return nil, err
		}
		action = ParameterActionDeactivate
		if *req.Active {
			action = ParameterActionActivate
		}
	}

	active := current.Active
	if req.Active != nil {
		active = *req.Active
	}

	update := port.ParameterUpdate{
		Kind:        schema.Kind,
		Indicator:   schema.Indicator,
		Values:      values,
		Active:      active,
		RequestedBy: user.UserID,
	}

	entry := s.newEntry(entity.SubjectParameter, schema.Indicator, action, user, update)
	entry.PreviousStatus = current.AuthStatus

	var saved *entity.Parameter
	if schema.Kind == entity.ParameterKindTransactionCode {
		saved, err = s.api.UpdateTransactionCodeParameters(ctx, update)
	} else {
		saved, err = s.api.UpdateRedFlagParameter(ctx, update)
	}
	if err == nil && saved == nil {
		err = errors.New("empty response from core API")
	}
	s.finish(entry, err)
	if err != nil {
		s.record(ctx, entry)
		s.logger.Error("Parameter save failed", "indicator", schema.Indicator, "user_id", user.UserID, "error", err)
		return nil, fmt.Errorf("failed to save parameter %s: %w", schema.Indicator, err)
	}

	if saved.AuthStatus == "" {
		saved.AuthStatus = entity.AuthStatusPending
	}
	entry.NewStatus = saved.AuthStatus
	s.record(ctx, entry)

	s.publish(ctx, event.NewEvent(event.TypeParameterSaved, schema.Indicator, user.UserID, map[string]interface{}{
		"kind":   schema.Kind,
		"action": action,
		"active": active,
	}))

	s.logger.Info("Parameter saved", "indicator", schema.Indicator, "action", action, "user_id", user.UserID)
	return saved, nil
}

func normalizeForm(schema paramform.Schema, input map[string]string) (map[string]string, error) {
	values, err := schema.Normalize(input)
	if err != nil {
		var fe *paramform.FieldError
		if errors.As(err, &fe) {
			return nil, invalid(fe.Field, fe.Message)
		}
		return nil, err
	}
	return values, nil
}

// ListPending returns the changes awaiting authorization
func (s *parameterServiceImpl) ListPending(ctx context.Context, user *entity.Profile, q datatable.Query) (*datatable.Page[*entity.Parameter], error) {
	if !canViewParameters(workflow.Role(user.Role)) {
		return nil, ErrForbidden
	}
	params, err := s.api.ListPendingParameters(ctx, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending parameters: %w", err)
	}
	page := datatable.Apply(params, q, parameterField)
	return &page, nil
}

// Authorize approves or rejects a pending change. Only supervisors may
// authorize, and never their own request.
func (s *parameterServiceImpl) Authorize(ctx context.Context, user *entity.Profile, id string, req AuthorizeRequest) (*entity.Parameter, error) {
	if !workflow.Role(user.Role).CanAuthorizeParameters() {
		return nil, ErrForbidden
	}

	reason := utils.SanitizeString(req.Reason)
	if !req.Approve && reason == "" {
		return nil, invalid(workflow.FieldRejectReason, fieldLabels[workflow.FieldRejectReason]+" wajib diisi")
	}
	if !req.Confirmed {
		return nil, ErrConfirmationRequired
	}

	pending, err := s.api.ListPendingParameters(ctx, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending parameters: %w", err)
	}

	var target *entity.Parameter
	for _, p := range pending {
		if p.ID == id {
			target = p
			break
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: no pending change %q", ErrNotFound, id)
	}
	if target.RequestedBy == user.UserID {
		return nil, ErrSelfAuthorization
	}

	auth := port.ParameterAuthorization{
		ParameterID:  id,
		Approve:      req.Approve,
		Reason:       reason,
		AuthorizedBy: user.UserID,
	}

	action := ParameterActionReject
	if req.Approve {
		action = ParameterActionApprove
	}
	entry := s.newEntry(entity.SubjectParameter, target.Indicator, action, user, auth)
	entry.PreviousStatus = target.AuthStatus

	result, err := s.api.AuthorizeParameter(ctx, auth)
	if err == nil && result == nil {
		err = errors.New("empty response from core API")
	}
	s.finish(entry, err)
	if err != nil {
		s.record(ctx, entry)
		s.logger.Error("Parameter authorization failed", "parameter_id", id, "user_id", user.UserID, "error", err)
		return nil, fmt.Errorf("failed to authorize parameter %s: %w", id, err)
	}

	entry.NewStatus = result.AuthStatus
	s.record(ctx, entry)

	s.publish(ctx, event.NewEvent(event.TypeParameterAuthorized, target.Indicator, user.UserID, map[string]interface{}{
		"parameter_id": id,
		"approve":      req.Approve,
		"requested_by": target.RequestedBy,
	}))

	s.logger.Info("Parameter authorized", "parameter_id", id, "indicator", target.Indicator, "approve", req.Approve, "user_id", user.UserID)
	return result, nil
}
