package domain

import "strings"

// PlanStatus is the lifecycle state of a receive plan.
type PlanStatus string

const (
	PlanStatusScheduled  PlanStatus = "scheduled"
	PlanStatusInProgress PlanStatus = "in_progress"
	PlanStatusPending    PlanStatus = "pending"
	PlanStatusDone       PlanStatus = "done"
)

func (s PlanStatus) Valid() bool {
	switch s {
	case PlanStatusScheduled, PlanStatusInProgress, PlanStatusPending, PlanStatusDone:
		return true
	default:
		return false
	}
}

// Live reports whether the plan still participates in overlap checks
// and must retain at least one container.
func (s PlanStatus) Live() bool {
	return s == PlanStatusScheduled || s == PlanStatusInProgress
}

var planTransitions = map[PlanStatus][]PlanStatus{
	PlanStatusScheduled:  {PlanStatusInProgress},
	PlanStatusInProgress: {PlanStatusScheduled, PlanStatusDone, PlanStatusPending},
	PlanStatusPending:    {},
	PlanStatusDone:       {},
}

// CanTransitionPlan reports whether the status edge exists. Guards over
// container outcomes are evaluated separately against the execution
// summary.
func CanTransitionPlan(from, to PlanStatus) bool {
	allowed, ok := planTransitions[from]
	if !ok {
		return false
	}
	for _, candidate := range allowed {
		if candidate == to {
			return true
		}
	}
	return false
}

// NormalizePlanStatus maps free-form status values to canonical ones.
func NormalizePlanStatus(value string) PlanStatus {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(PlanStatusScheduled):
		return PlanStatusScheduled
	case string(PlanStatusInProgress):
		return PlanStatusInProgress
	case string(PlanStatusPending):
		return PlanStatusPending
	case string(PlanStatusDone):
		return PlanStatusDone
	default:
		return ""
	}
}

// ContainerStatus is the processing outcome of one assignment.
type ContainerStatus string

const (
	ContainerStatusWaiting  ContainerStatus = "waiting"
	ContainerStatusReceived ContainerStatus = "received"
	ContainerStatusRejected ContainerStatus = "rejected"
)

func (s ContainerStatus) Valid() bool {
	switch s {
	case ContainerStatusWaiting, ContainerStatusReceived, ContainerStatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether the outcome is final. Received and rejected
// outcomes never change again.
func (s ContainerStatus) Terminal() bool {
	return s == ContainerStatusReceived || s == ContainerStatusRejected
}

// CanTransitionContainer allows waiting -> received and
// waiting -> rejected only.
func CanTransitionContainer(from, to ContainerStatus) bool {
	return from == ContainerStatusWaiting && to.Terminal()
}

// NormalizeContainerStatus maps free-form outcome values to canonical ones.
func NormalizeContainerStatus(value string) ContainerStatus {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ContainerStatusWaiting):
		return ContainerStatusWaiting
	case string(ContainerStatusReceived):
		return ContainerStatusReceived
	case string(ContainerStatusRejected):
		return ContainerStatusRejected
	default:
		return ""
	}
}
