package booking

import "errors"

// Status identifies where a booking sits in its lifecycle.
type Status string

const (
	// StatusPending marks a freshly created booking awaiting review.
	StatusPending Status = "pending"
	// StatusConfirmed marks a booking accepted by an administrator.
	StatusConfirmed Status = "confirmed"
	// StatusCancelled marks a booking that no longer holds its slot.
	// Cancelled is terminal.
	StatusCancelled Status = "cancelled"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Action identifies a requested lifecycle transition.
type Action string

const (
	// ActionAccept confirms a pending booking. Admin only.
	ActionAccept Action = "accept"
	// ActionReject cancels a pending booking. Admin only.
	ActionReject Action = "reject"
	// ActionCancel cancels a pending or confirmed booking.
	ActionCancel Action = "cancel"
)

// Valid reports whether the action is one of the known transitions.
func (a Action) Valid() bool {
	switch a {
	case ActionAccept, ActionReject, ActionCancel:
		return true
	}
	return false
}

var (
	// ErrTerminalState is returned when any action targets a cancelled booking.
	ErrTerminalState = errors.New("booking: cancelled is a terminal state")
	// ErrInvalidTransition is returned when the action is not legal from the
	// booking's current status.
	ErrInvalidTransition = errors.New("booking: invalid status transition")
)

// Transition returns the status resulting from applying action to current.
//
//	pending   --accept--> confirmed
//	pending   --reject--> cancelled
//	pending   --cancel--> cancelled
//	confirmed --cancel--> cancelled
//
// Every action against cancelled fails with ErrTerminalState; accept or
// reject against confirmed fails with ErrInvalidTransition.
func Transition(current Status, action Action) (Status, error) {
	if current == StatusCancelled {
		return current, ErrTerminalState
	}

	switch action {
	case ActionAccept:
		if current == StatusPending {
			return StatusConfirmed, nil
		}
	case ActionReject:
		if current == StatusPending {
			return StatusCancelled, nil
		}
	case ActionCancel:
		if current == StatusPending || current == StatusConfirmed {
			return StatusCancelled, nil
		}
	}

	return current, ErrInvalidTransition
}
