package plans

import (
	"context"
	"errors"
	"fmt"

	"github.com/harborworks/receiving-go/internal/domain"
	"github.com/harborworks/receiving-go/internal/repo"
)

// AssignContainer attaches one container to a scheduled plan. The
// container must not hold an active assignment anywhere, including the
// same plan.
func (s *Service) AssignContainer(ctx context.Context, planID, orderContainerID string) (domain.PlanContainer, error) {
	release := s.coord.LockPlan(planID)
	defer release()

	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return domain.PlanContainer{}, err
	}
	s.coord.Reconcile(plan)
	if plan.Status != domain.PlanStatusScheduled {
		return domain.PlanContainer{}, domain.ErrNotScheduled
	}
	if err := s.requireUnplanned(ctx, orderContainerID); err != nil {
		return domain.PlanContainer{}, err
	}

	return s.assignments.Create(ctx, domain.PlanContainer{
		PlanID:           plan.ID,
		OrderContainerID: orderContainerID,
		Status:           domain.ContainerStatusWaiting,
		AssignedAt:       s.now(),
	})
}

// UnassignContainer detaches one assignment. A live plan may never be
// emptied this way; deleting the whole plan is the only path to zero
// containers. For scheduled plans the row is removed; once execution
// has started the row is kept as history with an unassignment
// timestamp.
func (s *Service) UnassignContainer(ctx context.Context, planID, assignmentID string) error {
	release := s.coord.LockPlan(planID)
	defer release()

	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return err
	}
	s.coord.Reconcile(plan)

	var target *domain.PlanContainer
	for i := range plan.Containers {
		if plan.Containers[i].ID == assignmentID && plan.Containers[i].Active() {
			target = &plan.Containers[i]
			break
		}
	}
	if target == nil {
		return repo.ErrNotFound
	}

	if plan.Status.Live() && s.effectiveActive(plan) <= 1 {
		return domain.ErrLastContainer
	}

	// Optimistically treat the assignment as gone so a near-simultaneous
	// unassign on the same plan sees the effective count; rolled back if
	// the store rejects the write.
	s.coord.MarkRemoved(assignmentID, plan.ID)
	if plan.Status == domain.PlanStatusScheduled {
		err = s.assignments.Delete(ctx, assignmentID)
	} else {
		err = s.assignments.MarkUnassigned(ctx, assignmentID, s.now())
	}
	if err != nil {
		s.coord.Forget(assignmentID)
		return err
	}
	return nil
}

// RecordContainerOutcome stores the terminal outcome delivered by the
// gate for one assignment. Only legal while the parent plan is in
// progress; outcomes are immutable once set.
func (s *Service) RecordContainerOutcome(ctx context.Context, assignmentID string, outcome domain.ContainerStatus) (domain.PlanContainer, error) {
	if !outcome.Terminal() {
		return domain.PlanContainer{}, fmt.Errorf("outcome must be received or rejected (got %q)", outcome)
	}

	assignment, err := s.assignments.Get(ctx, assignmentID)
	if err != nil {
		return domain.PlanContainer{}, err
	}

	release := s.coord.LockPlan(assignment.PlanID)
	defer release()

	// Re-read inside the lock; a concurrent outcome may have landed.
	assignment, err = s.assignments.Get(ctx, assignmentID)
	if err != nil {
		return domain.PlanContainer{}, err
	}
	plan, err := s.plans.Get(ctx, assignment.PlanID)
	if err != nil {
		return domain.PlanContainer{}, err
	}
	if plan.Status != domain.PlanStatusInProgress {
		return domain.PlanContainer{}, domain.ErrPlanNotInProgress
	}
	if !assignment.Active() || assignment.Status.Terminal() {
		return domain.PlanContainer{}, domain.ErrAlreadyTerminal
	}

	now := s.now()
	assignment.Status = outcome
	assignment.Completed = true
	switch outcome {
	case domain.ContainerStatusReceived:
		assignment.ReceivedAt = &now
	case domain.ContainerStatusRejected:
		assignment.RejectedAt = &now
	}
	if err := s.assignments.UpdateOutcome(ctx, assignment); err != nil {
		return domain.PlanContainer{}, err
	}
	return assignment, nil
}

func (s *Service) requireUnplanned(ctx context.Context, orderContainerID string) error {
	_, err := s.assignments.ActiveByContainer(ctx, orderContainerID)
	if err == nil {
		return domain.ErrAlreadyAssigned
	}
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	return err
}
