package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// GuardFunc decides whether a transition applies for the actor in ctx
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects transition rules and hands out machines
type StateMachineBuilder interface {
	// Configure returns the rule set for transitions leaving state
	Configure(state State) StateConfiguration

	// Build returns a machine positioned at initialState
	Build(initialState State) StateMachine
}

// StateConfiguration adds transitions leaving one state
type StateConfiguration interface {
	Permit(trigger Trigger, toState State) StateConfiguration
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type edge struct {
	to    State
	guard GuardFunc
}

func (e edge) open(ctx context.Context) bool {
	return e.guard == nil || e.guard(ctx)
}

// table is an immutable snapshot of the rules; machines only read it
type table map[State]map[Trigger][]edge

func (t table) edges(from State, trigger Trigger) []edge {
	return t[from][trigger]
}

type rules struct {
	from  State
	owner *builder
}

type builder struct {
	mu     sync.Mutex
	draft  table
	frozen table
}

type machine struct {
	current State
	table   table
}

func NewBuilder() StateMachineBuilder {
	return &builder{draft: make(table)}
}

func (b *builder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("workflow: unknown status %q", state))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.draft[state]; !ok {
		b.draft[state] = make(map[Trigger][]edge)
	}
	return &rules{from: state, owner: b}
}

// Build reuses the last snapshot until the rules change again
func (b *builder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("workflow: unknown initial status %q", initialState))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen == nil {
		b.frozen = make(table, len(b.draft))
		for from, byTrigger := range b.draft {
			out := make(map[Trigger][]edge, len(byTrigger))
			for trigger, edges := range byTrigger {
				out[trigger] = append([]edge(nil), edges...)
			}
			b.frozen[from] = out
		}
	}
	return &machine{current: initialState, table: b.frozen}
}

func (r *rules) Permit(trigger Trigger, toState State) StateConfiguration {
	return r.PermitIf(trigger, toState, nil)
}

// PermitIf adds an edge; when several edges share a trigger the first whose
// guard passes is taken. Final statuses cannot have outgoing edges.
func (r *rules) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("workflow: unknown target status %q", toState))
	}
	if r.from.IsTerminal() {
		panic(fmt.Sprintf("workflow: status %q is final", r.from))
	}

	b := r.owner
	b.mu.Lock()
	defer b.mu.Unlock()
	b.draft[r.from][trigger] = append(b.draft[r.from][trigger], edge{to: toState, guard: guard})
	b.frozen = nil
	return r
}

func (m *machine) State() State {
	return m.current
}

func (m *machine) CanFire(ctx context.Context, trigger Trigger) bool {
	_, ok := m.next(ctx, trigger)
	return ok
}

func (m *machine) next(ctx context.Context, trigger Trigger) (State, bool) {
	for _, e := range m.table.edges(m.current, trigger) {
		if e.open(ctx) {
			return e.to, true
		}
	}
	return "", false
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) error {
	if m.current.IsTerminal() {
		return fmt.Errorf("%w: status %s is final", ErrInvalidTransition, m.current)
	}
	if len(m.table.edges(m.current, trigger)) == 0 {
		return fmt.Errorf("%w: no %s from status %s", ErrInvalidTransition, trigger, m.current)
	}

	to, ok := m.next(ctx, trigger)
	if !ok {
		return fmt.Errorf("%w: %s from status %s", ErrGuardFailed, trigger, m.current)
	}
	m.current = to
	return nil
}

// PermittedTriggers is sorted so screens render buttons in a stable order
func (m *machine) PermittedTriggers(ctx context.Context) []Trigger {
	out := []Trigger{}
	for trigger := range m.table[m.current] {
		if _, ok := m.next(ctx, trigger); ok {
			out = append(out, trigger)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
