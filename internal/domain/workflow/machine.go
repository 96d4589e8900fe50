package workflow

import "context"

// StateMachine tracks a current state and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is configured and a guard passes for ctx
	CanFire(ctx context.Context, trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns the triggers that can be fired for ctx, sorted
	PermittedTriggers(ctx context.Context) []Trigger
}
