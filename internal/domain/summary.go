package domain

import "time"

// ExecutionSummary aggregates container outcomes for one plan. It is
// recomputed from the assignments on every read; transition guards are
// pure functions of this summary, never separately stored flags.
type ExecutionSummary struct {
	Total    int
	Received int
	Rejected int
	Waiting  int
}

// Summarize counts outcomes over a plan's assignments. Detached
// assignments are history and excluded.
func Summarize(containers []PlanContainer) ExecutionSummary {
	var s ExecutionSummary
	for _, c := range containers {
		if !c.Active() {
			continue
		}
		s.Total++
		switch c.Status {
		case ContainerStatusReceived:
			s.Received++
		case ContainerStatusRejected:
			s.Rejected++
		default:
			s.Waiting++
		}
	}
	return s
}

// ShouldEnableDone reports whether every container carries a terminal
// outcome. A plan with nothing processed can never be done.
func ShouldEnableDone(s ExecutionSummary) bool {
	return s.Total > 0 && s.Waiting == 0
}

// ShouldEnablePending reports a partial failure that still needs
// follow-up: at least one rejection while work remains.
func ShouldEnablePending(s ExecutionSummary) bool {
	return s.Rejected > 0 && s.Waiting > 0
}

// AllWaiting reports whether no container has left the waiting state,
// which is the condition for cancelling back to scheduled.
func AllWaiting(s ExecutionSummary) bool {
	return s.Waiting == s.Total
}

// ExpectedEnd linearly extrapolates a finish time from elapsed
// progress: executionStart + plannedSpan / processedFraction. With no
// processed containers it falls back to the planned end. Display aid
// only; never gates a transition.
func ExpectedEnd(plannedStart, plannedEnd, executionStart time.Time, s ExecutionSummary) time.Time {
	if s.Total == 0 {
		return plannedEnd
	}
	processed := float64(s.Received+s.Rejected) / float64(s.Total)
	if processed <= 0 {
		return plannedEnd
	}
	span := plannedEnd.Sub(plannedStart)
	return executionStart.Add(time.Duration(float64(span) / processed))
}
