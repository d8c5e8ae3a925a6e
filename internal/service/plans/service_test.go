package plans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harborworks/receiving-go/internal/domain"
	"github.com/harborworks/receiving-go/internal/repo"
)

func hours(startHour, endHour int) (time.Time, time.Time) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	return day.Add(time.Duration(startHour) * time.Hour), day.Add(time.Duration(endHour) * time.Hour)
}

func mustCreate(t *testing.T, service *Service, startHour, endHour int, containerIDs ...string) domain.Plan {
	t.Helper()
	start, end := hours(startHour, endHour)
	plan, err := service.CreatePlan(context.Background(), CreatePlanInput{
		PlannedStart: start,
		PlannedEnd:   end,
		ContainerIDs: containerIDs,
		CreatedBy:    "tester",
	})
	if err != nil {
		t.Fatalf("CreatePlan() err=%v", err)
	}
	return plan
}

func TestCreatePlan(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)

	plan := mustCreate(t, service, 9, 17, "C1", "C2")
	if plan.Status != domain.PlanStatusScheduled {
		t.Fatalf("CreatePlan() status=%s, want scheduled", plan.Status)
	}
	if plan.Code == "" {
		t.Fatalf("CreatePlan() expected server-assigned code")
	}
	if len(plan.Containers) != 2 {
		t.Fatalf("CreatePlan() containers=%d, want 2", len(plan.Containers))
	}
	for _, assignment := range plan.Containers {
		if assignment.Status != domain.ContainerStatusWaiting {
			t.Fatalf("assignment status=%s, want waiting", assignment.Status)
		}
	}
}

func TestCreatePlan_EmptyContainers(t *testing.T) {
	service := newTestService(newFakeStore())
	start, end := hours(9, 17)
	_, err := service.CreatePlan(context.Background(), CreatePlanInput{PlannedStart: start, PlannedEnd: end})
	if !errors.Is(err, domain.ErrEmptyContainers) {
		t.Fatalf("CreatePlan() err=%v, want ErrEmptyContainers", err)
	}
}

func TestCreatePlan_InvalidRange(t *testing.T) {
	service := newTestService(newFakeStore())
	start, end := hours(17, 9)
	_, err := service.CreatePlan(context.Background(), CreatePlanInput{
		PlannedStart: start,
		PlannedEnd:   end,
		ContainerIDs: []string{"C1"},
	})
	if !errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("CreatePlan() err=%v, want ErrInvalidRange", err)
	}
}

func TestCreatePlan_UnknownBay(t *testing.T) {
	service := newTestService(newFakeStore())
	start, end := hours(9, 17)
	_, err := service.CreatePlan(context.Background(), CreatePlanInput{
		Bay:          "bay-z",
		PlannedStart: start,
		PlannedEnd:   end,
		ContainerIDs: []string{"C1"},
	})
	if !errors.Is(err, domain.ErrUnknownBay) {
		t.Fatalf("CreatePlan() err=%v, want ErrUnknownBay", err)
	}
}

func TestCreatePlan_OverlapAndTouching(t *testing.T) {
	service := newTestService(newFakeStore())
	first := mustCreate(t, service, 9, 17, "C1", "C2")

	start, end := hours(16, 18)
	_, err := service.CreatePlan(context.Background(), CreatePlanInput{
		PlannedStart: start,
		PlannedEnd:   end,
		ContainerIDs: []string{"C3"},
	})
	var overlap *domain.OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("CreatePlan() err=%v, want OverlapError", err)
	}
	if overlap.PlanCode != first.Code {
		t.Fatalf("OverlapError.PlanCode=%q, want %q", overlap.PlanCode, first.Code)
	}

	// Touching windows share an endpoint and are legal.
	touching := mustCreate(t, service, 17, 18, "C3")
	if touching.ID == "" {
		t.Fatalf("expected touching plan to be created")
	}
}

func TestCreatePlan_ContainerAlreadyPlanned(t *testing.T) {
	service := newTestService(newFakeStore())
	mustCreate(t, service, 9, 17, "C1")

	start, end := hours(18, 20)
	_, err := service.CreatePlan(context.Background(), CreatePlanInput{
		PlannedStart: start,
		PlannedEnd:   end,
		ContainerIDs: []string{"C1"},
	})
	if !errors.Is(err, domain.ErrAlreadyAssigned) {
		t.Fatalf("CreatePlan() err=%v, want ErrAlreadyAssigned", err)
	}
}

func TestUpdatePlanHeader(t *testing.T) {
	service := newTestService(newFakeStore())
	plan := mustCreate(t, service, 9, 17, "C1")

	// Shifting within the plan's own window must not self-conflict.
	newStart, newEnd := hours(10, 18)
	updated, err := service.UpdatePlanHeader(context.Background(), plan.ID, UpdateHeaderInput{
		PlannedStart: &newStart,
		PlannedEnd:   &newEnd,
	})
	if err != nil {
		t.Fatalf("UpdatePlanHeader() err=%v", err)
	}
	if !updated.PlannedStart.Equal(newStart) || !updated.PlannedEnd.Equal(newEnd) {
		t.Fatalf("UpdatePlanHeader() window=%v-%v, want %v-%v", updated.PlannedStart, updated.PlannedEnd, newStart, newEnd)
	}

	other := mustCreate(t, service, 20, 22, "C2")
	badStart, badEnd := hours(21, 23)
	_, err = service.UpdatePlanHeader(context.Background(), plan.ID, UpdateHeaderInput{
		PlannedStart: &badStart,
		PlannedEnd:   &badEnd,
	})
	var overlap *domain.OverlapError
	if !errors.As(err, &overlap) || overlap.PlanCode != other.Code {
		t.Fatalf("UpdatePlanHeader() err=%v, want overlap with %s", err, other.Code)
	}
}

func TestUpdatePlanHeader_NotScheduled(t *testing.T) {
	service := newTestService(newFakeStore())
	plan := mustCreate(t, service, 9, 17, "C1")
	if _, err := service.TransitionPlan(context.Background(), plan.ID, domain.PlanStatusInProgress); err != nil {
		t.Fatalf("TransitionPlan() err=%v", err)
	}

	booked := true
	_, err := service.UpdatePlanHeader(context.Background(), plan.ID, UpdateHeaderInput{EquipmentBooked: &booked})
	if !errors.Is(err, domain.ErrNotScheduled) {
		t.Fatalf("UpdatePlanHeader() err=%v, want ErrNotScheduled", err)
	}
}

func TestUpdatePlanHeader_InsideCutoff(t *testing.T) {
	service := newTestService(newFakeStore())
	start, end := hours(9, 17)
	plan, err := service.CreatePlan(context.Background(), CreatePlanInput{
		Bay:          "bay-cutoff",
		PlannedStart: start,
		PlannedEnd:   end,
		ContainerIDs: []string{"C1"},
	})
	if err != nil {
		t.Fatalf("CreatePlan() err=%v", err)
	}

	booked := true

	// One hour before start: inside the 2h cutoff, frozen.
	service.now = func() time.Time { return start.Add(-time.Hour) }
	_, err = service.UpdatePlanHeader(context.Background(), plan.ID, UpdateHeaderInput{EquipmentBooked: &booked})
	if !errors.Is(err, domain.ErrInsideCutoff) {
		t.Fatalf("UpdatePlanHeader() err=%v, want ErrInsideCutoff", err)
	}

	// Three hours before start: still editable.
	service.now = func() time.Time { return start.Add(-3 * time.Hour) }
	updated, err := service.UpdatePlanHeader(context.Background(), plan.ID, UpdateHeaderInput{EquipmentBooked: &booked})
	if err != nil {
		t.Fatalf("UpdatePlanHeader() err=%v", err)
	}
	if !updated.EquipmentBooked {
		t.Fatalf("expected prerequisite flag to be updated outside the cutoff")
	}
}

func TestDeletePlan(t *testing.T) {
	store := newFakeStore()
	store.containers["C1"] = domain.Container{ID: "C1"}
	service := newTestService(store)
	plan := mustCreate(t, service, 9, 17, "C1")

	unplanned, err := service.ListUnplannedContainers(context.Background(), repo.ContainerFilter{})
	if err != nil {
		t.Fatalf("ListUnplannedContainers() err=%v", err)
	}
	if len(unplanned) != 0 {
		t.Fatalf("expected C1 to leave the unplanned projection")
	}

	if err := service.DeletePlan(context.Background(), plan.ID); err != nil {
		t.Fatalf("DeletePlan() err=%v", err)
	}
	if _, err := service.GetPlan(context.Background(), plan.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("GetPlan() err=%v, want ErrNotFound after delete", err)
	}
	unplanned, err = service.ListUnplannedContainers(context.Background(), repo.ContainerFilter{})
	if err != nil {
		t.Fatalf("ListUnplannedContainers() err=%v", err)
	}
	if len(unplanned) != 1 || unplanned[0].ID != "C1" {
		t.Fatalf("expected C1 back in the unplanned projection, got %v", unplanned)
	}
}

func TestDeletePlan_NotScheduled(t *testing.T) {
	service := newTestService(newFakeStore())
	plan := mustCreate(t, service, 9, 17, "C1")
	if _, err := service.TransitionPlan(context.Background(), plan.ID, domain.PlanStatusInProgress); err != nil {
		t.Fatalf("TransitionPlan() err=%v", err)
	}
	if err := service.DeletePlan(context.Background(), plan.ID); !errors.Is(err, domain.ErrNotScheduled) {
		t.Fatalf("DeletePlan() err=%v, want ErrNotScheduled", err)
	}
}

func TestLifecycle_FullRun(t *testing.T) {
	service := newTestService(newFakeStore())
	plan := mustCreate(t, service, 9, 17, "C1", "C2")

	started, err := service.TransitionPlan(context.Background(), plan.ID, domain.PlanStatusInProgress)
	if err != nil {
		t.Fatalf("TransitionPlan(in_progress) err=%v", err)
	}
	if started.ExecutionStart == nil {
		t.Fatalf("expected execution start to be set")
	}

	rejected, err := service.RecordContainerOutcome(context.Background(), plan.Containers[0].ID, domain.ContainerStatusRejected)
	if err != nil {
		t.Fatalf("RecordContainerOutcome() err=%v", err)
	}
	if rejected.RejectedAt == nil || !rejected.Completed {
		t.Fatalf("expected rejection timestamp and completed flag, got %+v", rejected)
	}

	// One rejected, one waiting: done is blocked, pending is open.
	if _, err := service.TransitionPlan(context.Background(), plan.ID, domain.PlanStatusDone); err == nil {
		t.Fatalf("TransitionPlan(done) expected guard failure")
	}
	summary, err := service.ExecutionSummary(context.Background(), plan.ID)
	if err != nil {
		t.Fatalf("ExecutionSummary() err=%v", err)
	}
	if summary.Rejected != 1 || summary.Waiting != 1 {
		t.Fatalf("ExecutionSummary()=%+v, want rejected=1 waiting=1", summary.ExecutionSummary)
	}

	if _, err := service.RecordContainerOutcome(context.Background(), plan.Containers[1].ID, domain.ContainerStatusReceived); err != nil {
		t.Fatalf("RecordContainerOutcome() err=%v", err)
	}
	finished, err := service.TransitionPlan(context.Background(), plan.ID, domain.PlanStatusDone)
	if err != nil {
		t.Fatalf("TransitionPlan(done) err=%v", err)
	}
	if finished.ExecutionEnd == nil {
		t.Fatalf("expected execution end to be set")
	}
}

func TestLifecycle_PendingPath(t *testing.T) {
	service := newTestService(newFakeStore())
	plan := mustCreate(t, service, 9, 17, "C1", "C2")
	if _, err := service.TransitionPlan(context.Background(), plan.ID, domain.PlanStatusInProgress); err != nil {
		t.Fatalf("TransitionPlan() err=%v", err)
	}

	// All waiting: pending is blocked.
	if _, err := service.TransitionPlan(context.Background(), plan.ID, domain.PlanStatusPending); err == nil {
		t.Fatalf("TransitionPlan(pending) expected guard failure with no rejections")
	}

	if _, err := service.RecordContainerOutcome(context.Background(), plan.Containers[0].ID, domain.ContainerStatusRejected); err != nil {
		t.Fatalf("RecordContainerOutcome() err=%v", err)
	}
	parked, err := service.TransitionPlan(context.Background(), plan.ID, domain.PlanStatusPending)
	if err != nil {
		t.Fatalf("TransitionPlan(pending) err=%v", err)
	}
	if parked.PendingDate == nil {
		t.Fatalf("expected pending date to be set")
	}

	// Pending is terminal for the engine.
	if _, err := service.TransitionPlan(context.Background(), plan.ID, domain.PlanStatusInProgress); err == nil {
		t.Fatalf("TransitionPlan(in_progress) expected rejection from pending")
	}
}

func TestLifecycle_CancelOnlyWhileAllWaiting(t *testing.T) {
	service := newTestService(newFakeStore())
	plan := mustCreate(t, service, 9, 17, "C1", "C2")
	if _, err := service.TransitionPlan(context.Background(), plan.ID, domain.PlanStatusInProgress); err != nil {
		t.Fatalf("TransitionPlan() err=%v", err)
	}

	cancelled, err := service.TransitionPlan(context.Background(), plan.ID, domain.PlanStatusScheduled)
	if err != nil {
		t.Fatalf("TransitionPlan(scheduled) err=%v", err)
	}
	if cancelled.ExecutionStart != nil {
		t.Fatalf("expected execution start to be cleared on cancel")
	}

	if _, err := service.TransitionPlan(context.Background(), plan.ID, domain.PlanStatusInProgress); err != nil {
		t.Fatalf("TransitionPlan(in_progress) err=%v", err)
	}
	if _, err := service.RecordContainerOutcome(context.Background(), plan.Containers[0].ID, domain.ContainerStatusReceived); err != nil {
		t.Fatalf("RecordContainerOutcome() err=%v", err)
	}
	_, err = service.TransitionPlan(context.Background(), plan.ID, domain.PlanStatusScheduled)
	var guard *domain.GuardError
	if !errors.As(err, &guard) {
		t.Fatalf("TransitionPlan(scheduled) err=%v, want GuardError after an outcome", err)
	}
}

func TestTransition_InProgressRequiresContainers(t *testing.T) {
	store := newFakeStore()
	service := newTestService(store)
	start, end := hours(9, 17)
	// Seeded directly: the engine itself never creates an empty plan.
	empty, err := store.Create(context.Background(), domain.Plan{
		Bay:          "default",
		PlannedStart: start,
		PlannedEnd:   end,
		Status:       domain.PlanStatusScheduled,
	})
	if err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	_, err = service.TransitionPlan(context.Background(), empty.ID, domain.PlanStatusInProgress)
	var guard *domain.GuardError
	if !errors.As(err, &guard) {
		t.Fatalf("TransitionPlan() err=%v, want GuardError for empty plan", err)
	}
}

func TestRecordOutcome_PlanNotInProgress(t *testing.T) {
	service := newTestService(newFakeStore())
	plan := mustCreate(t, service, 9, 17, "C1")
	_, err := service.RecordContainerOutcome(context.Background(), plan.Containers[0].ID, domain.ContainerStatusReceived)
	if !errors.Is(err, domain.ErrPlanNotInProgress) {
		t.Fatalf("RecordContainerOutcome() err=%v, want ErrPlanNotInProgress", err)
	}
}

func TestRecordOutcome_Monotonic(t *testing.T) {
	service := newTestService(newFakeStore())
	plan := mustCreate(t, service, 9, 17, "C1", "C2")
	if _, err := service.TransitionPlan(context.Background(), plan.ID, domain.PlanStatusInProgress); err != nil {
		t.Fatalf("TransitionPlan() err=%v", err)
	}
	assignmentID := plan.Containers[0].ID
	if _, err := service.RecordContainerOutcome(context.Background(), assignmentID, domain.ContainerStatusReceived); err != nil {
		t.Fatalf("RecordContainerOutcome() err=%v", err)
	}
	_, err := service.RecordContainerOutcome(context.Background(), assignmentID, domain.ContainerStatusRejected)
	if !errors.Is(err, domain.ErrAlreadyTerminal) {
		t.Fatalf("RecordContainerOutcome() err=%v, want ErrAlreadyTerminal", err)
	}

	reread, err := service.GetPlan(context.Background(), plan.ID)
	if err != nil {
		t.Fatalf("GetPlan() err=%v", err)
	}
	for _, assignment := range reread.Containers {
		if assignment.ID == assignmentID && assignment.Status != domain.ContainerStatusReceived {
			t.Fatalf("outcome changed after terminal state: %s", assignment.Status)
		}
	}
}

func TestExecutionSummary_ExpectedEnd(t *testing.T) {
	service := newTestService(newFakeStore())
	fixed := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	service.now = func() time.Time { return fixed }

	plan := mustCreate(t, service, 9, 17, "C1", "C2")
	summary, err := service.ExecutionSummary(context.Background(), plan.ID)
	if err != nil {
		t.Fatalf("ExecutionSummary() err=%v", err)
	}
	if !summary.ExpectedEnd.Equal(plan.PlannedEnd) {
		t.Fatalf("ExpectedEnd=%v, want planned end before execution", summary.ExpectedEnd)
	}

	if _, err := service.TransitionPlan(context.Background(), plan.ID, domain.PlanStatusInProgress); err != nil {
		t.Fatalf("TransitionPlan() err=%v", err)
	}
	if _, err := service.RecordContainerOutcome(context.Background(), plan.Containers[0].ID, domain.ContainerStatusReceived); err != nil {
		t.Fatalf("RecordContainerOutcome() err=%v", err)
	}

	summary, err = service.ExecutionSummary(context.Background(), plan.ID)
	if err != nil {
		t.Fatalf("ExecutionSummary() err=%v", err)
	}
	// Half processed: 8h planned span extrapolates to 16h from start.
	want := fixed.Add(16 * time.Hour)
	if !summary.ExpectedEnd.Equal(want) {
		t.Fatalf("ExpectedEnd=%v, want %v", summary.ExpectedEnd, want)
	}
}
