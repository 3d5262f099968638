package runtime

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
)

// Resource lifecycle states
const (
	StatePending  = "pending"
	StateCreating = "creating"
	StateUpdating = "updating"
	StateReading  = "reading"
	StateReady    = "ready"
	StateDeleting = "deleting"
	StateDeleted  = "deleted"
	StateFailed   = "failed"
)

// Resource lifecycle events
const (
	EventCreate  = "create"
	EventUpdate  = "update"
	EventRead    = "read"
	EventSucceed = "succeed"
	EventDelete  = "delete"
	EventDeleted = "deleted"
	EventFail    = "fail"
)

var lifecycleEvents = []fsm.EventDesc{
	{Name: EventCreate, Src: []string{StatePending}, Dst: StateCreating},
	{Name: EventUpdate, Src: []string{StatePending}, Dst: StateUpdating},
	{Name: EventRead, Src: []string{StatePending}, Dst: StateReading},
	{Name: EventSucceed, Src: []string{StateCreating, StateUpdating, StateReading}, Dst: StateReady},
	{Name: EventDelete, Src: []string{StateReady}, Dst: StateDeleting},
	{Name: EventDeleted, Src: []string{StateDeleting}, Dst: StateDeleted},
	{Name: EventFail, Src: []string{StatePending, StateCreating, StateUpdating, StateReading, StateDeleting}, Dst: StateFailed},
}

// Lifecycle tracks the state of one resource during a stack operation
type Lifecycle struct {
	fsm *fsm.FSM
}

// NewLifecycle returns a lifecycle in the given state
func NewLifecycle(initial string) *Lifecycle {
	return &Lifecycle{fsm: fsm.NewFSM(initial, lifecycleEvents, nil)}
}

// Fire applies an event. Transitions not allowed from the current state are errors.
func (l *Lifecycle) Fire(ctx context.Context, event string) error {
	if err := l.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("invalid lifecycle transition %q from %q: %w", event, l.fsm.Current(), err)
	}
	return nil
}

// State returns the current state
func (l *Lifecycle) State() string {
	return l.fsm.Current()
}

// Can reports whether event is allowed from the current state
func (l *Lifecycle) Can(event string) bool {
	return l.fsm.Can(event)
}
