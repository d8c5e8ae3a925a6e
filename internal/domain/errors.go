package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange rejects a window whose end is not after its start.
	ErrInvalidRange = errors.New("planned end must be after planned start")

	// ErrEmptyContainers rejects plan creation with no containers.
	ErrEmptyContainers = errors.New("plan requires at least one container")

	// ErrAlreadyAssigned rejects assigning a container that already has
	// an active assignment in any open plan.
	ErrAlreadyAssigned = errors.New("container already assigned to an open plan")

	// ErrLastContainer rejects an unassign that would leave a live plan
	// with zero containers.
	ErrLastContainer = errors.New("cannot remove the last container of a live plan")

	// ErrNotScheduled rejects delete, header edit and container
	// assignment on a plan that has left the scheduled state.
	ErrNotScheduled = errors.New("plan is not in scheduled state")

	// ErrPlanNotInProgress rejects outcome recording outside the
	// in-progress phase.
	ErrPlanNotInProgress = errors.New("plan is not in progress")

	// ErrAlreadyTerminal rejects a second outcome for an assignment.
	ErrAlreadyTerminal = errors.New("container outcome already recorded")

	// ErrUnknownBay rejects a plan referencing an unconfigured bay.
	ErrUnknownBay = errors.New("unknown receiving bay")

	// ErrInsideCutoff rejects header edits once the bay's cutoff lead
	// window before the planned start has begun.
	ErrInsideCutoff = errors.New("plan is inside the bay edit cutoff window")
)

// GuardError reports a lifecycle transition whose guard over container
// outcomes is not satisfied.
type GuardError struct {
	From    PlanStatus
	To      PlanStatus
	Summary ExecutionSummary
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("transition %s -> %s not allowed (total=%d received=%d rejected=%d waiting=%d)",
		e.From, e.To, e.Summary.Total, e.Summary.Received, e.Summary.Rejected, e.Summary.Waiting)
}
