package domain

import (
	"testing"
	"time"
)

func TestSummarize_ExcludesDetached(t *testing.T) {
	detachedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	containers := []PlanContainer{
		{ID: "a1", Status: ContainerStatusWaiting},
		{ID: "a2", Status: ContainerStatusReceived},
		{ID: "a3", Status: ContainerStatusRejected},
		{ID: "a4", Status: ContainerStatusWaiting, UnassignedAt: &detachedAt},
	}
	s := Summarize(containers)
	if s.Total != 3 || s.Received != 1 || s.Rejected != 1 || s.Waiting != 1 {
		t.Fatalf("Summarize()=%+v, want total=3 received=1 rejected=1 waiting=1", s)
	}
}

func TestGuards(t *testing.T) {
	cases := []struct {
		name        string
		summary     ExecutionSummary
		wantDone    bool
		wantPending bool
	}{
		{"empty", ExecutionSummary{}, false, false},
		{"all waiting", ExecutionSummary{Total: 2, Waiting: 2}, false, false},
		{"one rejected one waiting", ExecutionSummary{Total: 2, Rejected: 1, Waiting: 1}, false, true},
		{"one received one waiting", ExecutionSummary{Total: 2, Received: 1, Waiting: 1}, false, false},
		{"all received", ExecutionSummary{Total: 2, Received: 2}, true, false},
		{"all rejected", ExecutionSummary{Total: 2, Rejected: 2}, true, false},
		{"mixed terminal", ExecutionSummary{Total: 3, Received: 2, Rejected: 1}, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShouldEnableDone(tc.summary); got != tc.wantDone {
				t.Fatalf("ShouldEnableDone(%+v)=%v, want %v", tc.summary, got, tc.wantDone)
			}
			if got := ShouldEnablePending(tc.summary); got != tc.wantPending {
				t.Fatalf("ShouldEnablePending(%+v)=%v, want %v", tc.summary, got, tc.wantPending)
			}
		})
	}
}

func TestAllWaiting(t *testing.T) {
	if !AllWaiting(ExecutionSummary{Total: 2, Waiting: 2}) {
		t.Fatalf("AllWaiting() expected true with no outcomes")
	}
	if AllWaiting(ExecutionSummary{Total: 2, Received: 1, Waiting: 1}) {
		t.Fatalf("AllWaiting() expected false after an outcome")
	}
}

func TestExpectedEnd_Extrapolates(t *testing.T) {
	plannedStart := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	plannedEnd := plannedStart.Add(8 * time.Hour)
	executionStart := plannedStart.Add(30 * time.Minute)

	// Half processed: the full span is expected to take twice the plan.
	got := ExpectedEnd(plannedStart, plannedEnd, executionStart, ExecutionSummary{Total: 4, Received: 1, Rejected: 1, Waiting: 2})
	want := executionStart.Add(16 * time.Hour)
	if !got.Equal(want) {
		t.Fatalf("ExpectedEnd()=%v, want %v", got, want)
	}

	// Fully processed: extrapolation collapses to the planned span.
	got = ExpectedEnd(plannedStart, plannedEnd, executionStart, ExecutionSummary{Total: 4, Received: 4})
	want = executionStart.Add(8 * time.Hour)
	if !got.Equal(want) {
		t.Fatalf("ExpectedEnd()=%v, want %v", got, want)
	}
}

func TestExpectedEnd_FallsBackToPlannedEnd(t *testing.T) {
	plannedStart := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	plannedEnd := plannedStart.Add(8 * time.Hour)
	executionStart := plannedStart

	got := ExpectedEnd(plannedStart, plannedEnd, executionStart, ExecutionSummary{Total: 3, Waiting: 3})
	if !got.Equal(plannedEnd) {
		t.Fatalf("ExpectedEnd()=%v, want planned end %v", got, plannedEnd)
	}
	got = ExpectedEnd(plannedStart, plannedEnd, executionStart, ExecutionSummary{})
	if !got.Equal(plannedEnd) {
		t.Fatalf("ExpectedEnd()=%v, want planned end %v for empty summary", got, plannedEnd)
	}
}
