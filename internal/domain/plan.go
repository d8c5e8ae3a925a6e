package domain

import (
	"errors"
	"strings"
	"time"
)

// Window is a half-open [Start, End) interval of yard time.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && w.End.After(w.Start)
}

// Overlaps reports whether two half-open windows intersect. Touching
// endpoints do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Plan is a scheduled window during which a specific set of containers
// is received at one bay of the freight station.
type Plan struct {
	ID              string
	Code            string
	Bay             string
	PlannedStart    time.Time
	PlannedEnd      time.Time
	ExecutionStart  *time.Time
	ExecutionEnd    *time.Time
	PendingDate     *time.Time
	EquipmentBooked bool
	PortNotified    bool
	Status          PlanStatus
	Containers      []PlanContainer
	CreatedAt       time.Time
	CreatedBy       string
}

func (p Plan) Window() Window {
	return Window{Start: p.PlannedStart, End: p.PlannedEnd}
}

// ActiveContainers returns the assignments that have not been detached.
// Detached assignments are kept as history and carry an UnassignedAt
// timestamp.
func (p Plan) ActiveContainers() []PlanContainer {
	active := make([]PlanContainer, 0, len(p.Containers))
	for _, c := range p.Containers {
		if c.Active() {
			active = append(active, c)
		}
	}
	return active
}

func (p Plan) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return errors.New("plan id is required")
	}
	if strings.TrimSpace(p.Bay) == "" {
		return errors.New("bay is required")
	}
	if !p.Window().Valid() {
		return ErrInvalidRange
	}
	if !p.Status.Valid() {
		return errors.New("plan status is invalid")
	}
	return nil
}

// PlanContainer links one order container to one plan and carries that
// container's processing outcome. Its ID is the assignment id, distinct
// from the container's own id.
type PlanContainer struct {
	ID               string
	PlanID           string
	OrderContainerID string
	Status           ContainerStatus
	AssignedAt       time.Time
	UnassignedAt     *time.Time
	ReceivedAt       *time.Time
	RejectedAt       *time.Time
	Completed        bool
}

// Active reports whether the assignment still binds the container to
// its plan. A container has at most one active assignment across all
// open plans.
func (c PlanContainer) Active() bool {
	return c.UnassignedAt == nil
}

func (c PlanContainer) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("assignment id is required")
	}
	if strings.TrimSpace(c.PlanID) == "" {
		return errors.New("plan id is required")
	}
	if strings.TrimSpace(c.OrderContainerID) == "" {
		return errors.New("order container id is required")
	}
	if !c.Status.Valid() {
		return errors.New("container status is invalid")
	}
	return nil
}

// Container mirrors the registry entry for an order container. The
// engine reads identity and deadline fields for display only; registry
// data never gates a plan transition.
type Container struct {
	ID               string
	Number           string
	BookingCode      string
	HBLCode          string
	FreeTimeDeadline *time.Time
}
