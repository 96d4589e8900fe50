package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateInputOprCabang, false},
		{StateApprovalSpvCabang, false},
		{StateReviewOprKepatuhan, false},
		{StateApprovalSpvKepatuhan, false},
		{StateRejectedSpvCabang, false},
		{StateInactive, false},
		{StateReportedSTR, true},
		{StateClosedNonSTR, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"branch input", StateInputOprCabang, true},
		{"inactive", StateInactive, true},
		{"unknown code", State("7"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_Description(t *testing.T) {
	if got := StateApprovalSpvCabang.Description(); got != "Persetujuan Supervisor Cabang" {
		t.Errorf("Description() = %q", got)
	}
	if got := State("42").Description(); got != "Status 42" {
		t.Errorf("Description() of unknown code = %q", got)
	}

	s, ok := StateFromDescription("Review Operator Kepatuhan")
	if !ok || s != StateReviewOprKepatuhan {
		t.Errorf("StateFromDescription() = %v, %v", s, ok)
	}
	if _, ok := StateFromDescription("nope"); ok {
		t.Error("StateFromDescription() should not resolve unknown text")
	}
}

func TestTrigger_RequiresConfirmation(t *testing.T) {
	if TriggerSubmit.RequiresConfirmation() {
		t.Error("SUBMIT should not need confirmation")
	}
	for _, tr := range []Trigger{TriggerApprove, TriggerReject, TriggerClose, TriggerReactivate} {
		if !tr.RequiresConfirmation() {
			t.Errorf("%s should need confirmation", tr)
		}
	}
	if Trigger("DELETE").IsValid() {
		t.Error("unknown trigger reported valid")
	}
}

func TestBuilder_ConfigureAccumulates(t *testing.T) {
	builder := NewBuilder()

	builder.Configure(StateApprovalSpvCabang).Permit(TriggerApprove, StateReviewOprKepatuhan)
	builder.Configure(StateApprovalSpvCabang).Permit(TriggerReject, StateRejectedSpvCabang)

	machine := builder.Build(StateApprovalSpvCabang)
	got := machine.PermittedTriggers(context.Background())
	if len(got) != 2 {
		t.Errorf("PermittedTriggers() = %v, want both rules", got)
	}
}

func TestBuilder_PermitFromFinalStatusPanics(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("PermitIf() should panic on a final status")
		}
	}()

	builder.Configure(StateReportedSTR).Permit(TriggerReactivate, StateReviewOprKepatuhan)
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()

	builder.Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	builder.Build(State("INVALID"))
}

func TestStateConfiguration_Permit(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateInputOprCabang).
		Permit(TriggerSubmit, StateApprovalSpvCabang)

	machine := builder.Build(StateInputOprCabang)
	ctx := context.Background()

	if !machine.CanFire(ctx, TriggerSubmit) {
		t.Error("CanFire() should return true for permitted trigger")
	}

	if err := machine.Fire(ctx, TriggerSubmit); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if machine.State() != StateApprovalSpvCabang {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StateApprovalSpvCabang)
	}
}

func TestStateConfiguration_PermitIf_GuardFails(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateInputOprCabang).
		PermitIf(TriggerSubmit, StateApprovalSpvCabang, RoleIs(RoleOprCabang))

	machine := builder.Build(StateInputOprCabang)
	ctx := WithRole(context.Background(), RoleSpvCabang)

	if machine.CanFire(ctx, TriggerSubmit) {
		t.Error("CanFire() should be false when the guard fails")
	}

	err := machine.Fire(ctx, TriggerSubmit)
	if err == nil {
		t.Fatal("Fire() should fail when guard fails")
	}

	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}

	if machine.State() != StateInputOprCabang {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateInputOprCabang, machine.State())
	}
}

func TestStateConfiguration_PermitIf_MultipleTransitions(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateApprovalSpvKepatuhan).
		PermitIf(TriggerReject, StateReviewOprKepatuhan, RoleIs(RoleSpvKepatuhan)).
		PermitIf(TriggerReject, StateInactive, RoleIs(RoleAdmin))

	machine1 := builder.Build(StateApprovalSpvKepatuhan)
	if err := machine1.Fire(WithRole(context.Background(), RoleSpvKepatuhan), TriggerReject); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine1.State() != StateReviewOprKepatuhan {
		t.Errorf("State after Fire() = %v, want %v", machine1.State(), StateReviewOprKepatuhan)
	}

	// first guard fails, second passes
	machine2 := builder.Build(StateApprovalSpvKepatuhan)
	if err := machine2.Fire(WithRole(context.Background(), RoleAdmin), TriggerReject); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine2.State() != StateInactive {
		t.Errorf("State after Fire() = %v, want %v", machine2.State(), StateInactive)
	}
}

func TestStateConfiguration_PermitPanicsOnInvalidState(t *testing.T) {
	builder := NewBuilder()

	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid target state")
		}
	}()

	builder.Configure(StateInputOprCabang).Permit(TriggerSubmit, State("INVALID"))
}

func TestStateMachine_CanFire(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateInputOprCabang).
		Permit(TriggerSubmit, StateApprovalSpvCabang)

	machine := builder.Build(StateInputOprCabang)

	tests := []struct {
		trigger  Trigger
		expected bool
	}{
		{TriggerSubmit, true},
		{TriggerApprove, false},
		{TriggerReject, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.trigger), func(t *testing.T) {
			if got := machine.CanFire(context.Background(), tt.trigger); got != tt.expected {
				t.Errorf("CanFire(%v) = %v, want %v", tt.trigger, got, tt.expected)
			}
		})
	}
}

func TestStateMachine_FireUnconfiguredState(t *testing.T) {
	builder := NewBuilder()
	machine := builder.Build(StateReportedSTR)

	err := machine.Fire(context.Background(), TriggerSubmit)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateApprovalSpvCabang).
		PermitIf(TriggerApprove, StateReviewOprKepatuhan, RoleIs(RoleSpvCabang)).
		PermitIf(TriggerReject, StateRejectedSpvCabang, RoleIs(RoleSpvCabang))

	machine := builder.Build(StateApprovalSpvCabang)

	triggers := machine.PermittedTriggers(WithRole(context.Background(), RoleSpvCabang))
	if len(triggers) != 2 || triggers[0] != TriggerApprove || triggers[1] != TriggerReject {
		t.Errorf("PermittedTriggers() = %v, want [APPROVE REJECT]", triggers)
	}

	none := machine.PermittedTriggers(WithRole(context.Background(), RoleOprCabang))
	if len(none) != 0 {
		t.Errorf("PermittedTriggers() for other role = %v, want empty", none)
	}
}

func TestStateMachine_BuildIsolation(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateInputOprCabang).
		Permit(TriggerSubmit, StateApprovalSpvCabang)

	machine := builder.Build(StateInputOprCabang)

	// configuring after Build must not leak into machine
	builder.Configure(StateInputOprCabang).Permit(TriggerClose, StateClosedNonSTR)

	if machine.CanFire(context.Background(), TriggerClose) {
		t.Error("machine should not see transitions added after Build()")
	}
}

func TestStateMachine_MachinesAreIndependent(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateInputOprCabang).Permit(TriggerSubmit, StateApprovalSpvCabang)

	first := builder.Build(StateInputOprCabang)
	second := builder.Build(StateInputOprCabang)

	if err := first.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if second.State() != StateInputOprCabang {
		t.Errorf("second machine moved to %v", second.State())
	}
}
