package domain

import "fmt"

// LifecycleState is the review state of a locally stored entity.
type LifecycleState string

const (
	StateActive        LifecycleState = "active"
	StatePendingAdd    LifecycleState = "pending_add"
	StatePendingEdit   LifecycleState = "pending_edit"
	StatePendingDelete LifecycleState = "pending_delete"
	StateDeleted       LifecycleState = "deleted"
)

// Visible reports whether entities in this state are served publicly.
// A pending edit keeps serving the confirmed content until the diff is applied.
func (s LifecycleState) Visible() bool {
	return s == StateActive || s == StatePendingEdit
}

// Valid reports whether s is a known state.
func (s LifecycleState) Valid() bool {
	switch s {
	case StateActive, StatePendingAdd, StatePendingEdit, StatePendingDelete, StateDeleted:
		return true
	}
	return false
}

// LifecycleEvent drives a state transition.
type LifecycleEvent string

const (
	EventEdit          LifecycleEvent = "edit"
	EventConfirmCreate LifecycleEvent = "confirm_create"
	EventConfirmEdit   LifecycleEvent = "confirm_edit"
	EventDelete        LifecycleEvent = "delete"
	EventConfirmDelete LifecycleEvent = "confirm_delete"
)

var transitions = map[LifecycleState]map[LifecycleEvent]LifecycleState{
	StatePendingAdd: {
		EventConfirmCreate: StateActive,
	},
	StateActive: {
		EventEdit:   StatePendingEdit,
		EventDelete: StatePendingDelete,
	},
	StatePendingEdit: {
		EventConfirmEdit: StateActive,
	},
	StatePendingDelete: {
		EventConfirmDelete: StateDeleted,
	},
}

// Transition returns the state reached by applying ev to s, or
// ErrInvalidTransition when ev is not allowed from s.
// New entities always start in StatePendingAdd.
func (s LifecycleState) Transition(ev LifecycleEvent) (LifecycleState, error) {
	next, ok := transitions[s][ev]
	if !ok {
		return s, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, ev, s)
	}
	return next, nil
}

// Capability returns the capability an actor needs to trigger ev.
func (ev LifecycleEvent) Capability() Capability {
	switch ev {
	case EventEdit:
		return CapabilityEdit
	case EventDelete:
		return CapabilityDelete
	default:
		return CapabilityReview
	}
}
