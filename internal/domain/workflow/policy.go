package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/estr/backoffice/internal/domain/entity"
)

// Field keys of the case edit form
const (
	FieldExplanationOprCabang    = "explanation_opr_cabang"
	FieldExplanationSpvCabang    = "explanation_spv_cabang"
	FieldExplanationOprKepatuhan = "explanation_opr_kepatuhan"
	FieldExplanationSpvKepatuhan = "explanation_spv_kepatuhan"
	FieldRejectReason            = "reject_reason"
	FieldReactivateReason        = "reactivate_reason"
)

// allStates in display order
var allStates = []State{
	StateInputOprCabang,
	StateApprovalSpvCabang,
	StateReviewOprKepatuhan,
	StateApprovalSpvKepatuhan,
	StateReportedSTR,
	StateClosedNonSTR,
	StateRejectedSpvCabang,
	StateInactive,
}

// branchOnlyStates never occur on the BI-Fast track
var branchOnlyStates = map[State]bool{
	StateInputOprCabang:    true,
	StateApprovalSpvCabang: true,
	StateRejectedSpvCabang: true,
}

var stageFields = map[Role]string{
	RoleOprCabang:    FieldExplanationOprCabang,
	RoleSpvCabang:    FieldExplanationSpvCabang,
	RoleOprKepatuhan: FieldExplanationOprKepatuhan,
	RoleSpvKepatuhan: FieldExplanationSpvKepatuhan,
}

// Policy is the single table of which role may take which action on a case
// in which status, and which form fields each action requires.
type Policy struct {
	builder  StateMachineBuilder
	required map[Role]map[Trigger][]string
}

// NewPolicy builds the operator -> supervisor -> compliance operator ->
// compliance supervisor approval chain.
func NewPolicy() *Policy {
	b := NewBuilder()

	b.Configure(StateInputOprCabang).
		PermitIf(TriggerSubmit, StateApprovalSpvCabang, RoleIs(RoleOprCabang))

	b.Configure(StateRejectedSpvCabang).
		PermitIf(TriggerSubmit, StateApprovalSpvCabang, RoleIs(RoleOprCabang))

	b.Configure(StateApprovalSpvCabang).
		PermitIf(TriggerApprove, StateReviewOprKepatuhan, RoleIs(RoleSpvCabang)).
		PermitIf(TriggerReject, StateRejectedSpvCabang, RoleIs(RoleSpvCabang))

	b.Configure(StateReviewOprKepatuhan).
		PermitIf(TriggerSubmit, StateApprovalSpvKepatuhan, RoleIs(RoleOprKepatuhan)).
		PermitIf(TriggerReject, StateInactive, RoleIs(RoleOprKepatuhan))

	b.Configure(StateApprovalSpvKepatuhan).
		PermitIf(TriggerApprove, StateReportedSTR, RoleIs(RoleSpvKepatuhan)).
		PermitIf(TriggerClose, StateClosedNonSTR, RoleIs(RoleSpvKepatuhan)).
		PermitIf(TriggerReject, StateReviewOprKepatuhan, RoleIs(RoleSpvKepatuhan))

	b.Configure(StateInactive).
		PermitIf(TriggerReactivate, StateReviewOprKepatuhan, RoleIs(RoleSpvKepatuhan))

	required := map[Role]map[Trigger][]string{
		RoleOprCabang: {
			TriggerSubmit: {FieldExplanationOprCabang},
		},
		RoleSpvCabang: {
			TriggerApprove: {FieldExplanationSpvCabang},
			TriggerReject:  {FieldRejectReason},
		},
		RoleOprKepatuhan: {
			TriggerSubmit: {FieldExplanationOprKepatuhan},
			TriggerReject: {FieldRejectReason},
		},
		RoleSpvKepatuhan: {
			TriggerApprove:    {FieldExplanationSpvKepatuhan},
			TriggerClose:      {FieldExplanationSpvKepatuhan},
			TriggerReject:     {FieldRejectReason},
			TriggerReactivate: {FieldReactivateReason},
		},
	}

	return &Policy{builder: b, required: required}
}

// Machine returns a state machine positioned at status
func (p *Policy) Machine(status State) (StateMachine, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidState, status)
	}
	return p.builder.Build(status), nil
}

// AllowedActions returns the actions role may take on a case in status
func (p *Policy) AllowedActions(role Role, status State) []Trigger {
	m, err := p.Machine(status)
	if err != nil {
		return []Trigger{}
	}
	return m.PermittedTriggers(WithRole(context.Background(), role))
}

// IsAllowed reports whether role may fire trigger on a case in status
func (p *Policy) IsAllowed(role Role, status State, trigger Trigger) bool {
	m, err := p.Machine(status)
	if err != nil {
		return false
	}
	return m.CanFire(WithRole(context.Background(), role), trigger)
}

// CanEdit reports whether role may open the edit form for a case in status
func (p *Policy) CanEdit(role Role, status State) bool {
	return len(p.AllowedActions(role, status)) > 0
}

// Transition validates the action and returns the status the case moves to
func (p *Policy) Transition(ctx context.Context, role Role, status State, trigger Trigger) (State, error) {
	if !trigger.IsValid() {
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, trigger)
	}

	m, err := p.Machine(status)
	if err != nil {
		return "", err
	}

	if err := m.Fire(WithRole(ctx, role), trigger); err != nil {
		if errors.Is(err, ErrGuardFailed) || errors.Is(err, ErrInvalidTransition) {
			return "", fmt.Errorf("%w: %s cannot %s a case in %q", ErrActionNotAllowed, role, trigger, status.Description())
		}
		return "", err
	}

	return m.State(), nil
}

// RequiredFields returns the form fields that must be non-empty for role to fire trigger
func (p *Policy) RequiredFields(role Role, trigger Trigger) []string {
	fields := p.required[role][trigger]
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// StageField returns the explanation field owned by role, or "" for roles without a stage
func StageField(role Role) string {
	return stageFields[role]
}

// EntryState returns the status new cases on track start in
func EntryState(track entity.Track) State {
	if track == entity.TrackBIFast {
		return StateReviewOprKepatuhan
	}
	return StateInputOprCabang
}

// AppliesTo reports whether status can occur on track
func AppliesTo(track entity.Track, status State) bool {
	if track == entity.TrackBIFast {
		return !branchOnlyStates[status]
	}
	return status.IsValid()
}

// RejectedStatuses returns the statuses shown on role's reject list
func RejectedStatuses(role Role) []State {
	switch {
	case role.IsBranch():
		return []State{StateRejectedSpvCabang}
	case role.IsCompliance():
		return []State{StateInactive}
	case role == RoleAdmin:
		return []State{StateRejectedSpvCabang, StateInactive}
	}
	return []State{}
}

// TodoStatuses returns the statuses where role has pending work on track,
// excluding those listed on the reject list.
func (p *Policy) TodoStatuses(role Role, track entity.Track) []State {
	rejected := make(map[State]bool)
	for _, s := range RejectedStatuses(role) {
		rejected[s] = true
	}

	out := []State{}
	for _, s := range allStates {
		if rejected[s] || !AppliesTo(track, s) {
			continue
		}
		if p.CanEdit(role, s) {
			out = append(out, s)
		}
	}
	return out
}

// AllStates returns every known status in display order
func AllStates() []State {
	out := make([]State, len(allStates))
	copy(out, allStates)
	return out
}
