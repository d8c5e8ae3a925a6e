package plans

import (
	"context"
	"strings"
	"time"

	"github.com/harborworks/receiving-go/internal/domain"
	"github.com/harborworks/receiving-go/internal/repo"
	"github.com/harborworks/receiving-go/internal/yardcfg"
)

type Service struct {
	plans       repo.PlanRepository
	assignments repo.AssignmentRepository
	containers  repo.ContainerRepository
	coord       *Coordinator
	bays        yardcfg.Spec

	now func() time.Time
}

func New(planRepo repo.PlanRepository, assignmentRepo repo.AssignmentRepository, containerRepo repo.ContainerRepository, coord *Coordinator, bays yardcfg.Spec) *Service {
	if planRepo == nil || assignmentRepo == nil || containerRepo == nil || coord == nil {
		return nil
	}
	if len(bays.Bays) == 0 {
		bays = yardcfg.Default()
	}
	return &Service{
		plans:       planRepo,
		assignments: assignmentRepo,
		containers:  containerRepo,
		coord:       coord,
		bays:        bays,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type CreatePlanInput struct {
	Bay             string
	PlannedStart    time.Time
	PlannedEnd      time.Time
	EquipmentBooked bool
	PortNotified    bool
	ContainerIDs    []string
	CreatedBy       string
}

type UpdateHeaderInput struct {
	PlannedStart    *time.Time
	PlannedEnd      *time.Time
	EquipmentBooked *bool
	PortNotified    *bool
}

// Summary is the execution summary plus the extrapolated finish time.
type Summary struct {
	domain.ExecutionSummary
	ExpectedEnd time.Time
}

// CreatePlan validates the window against every live plan in the bay,
// verifies none of the containers is already planned, and creates the
// plan in scheduled state with one waiting assignment per container.
// The caller's transaction makes plan-plus-assignments atomic.
func (s *Service) CreatePlan(ctx context.Context, input CreatePlanInput) (domain.Plan, error) {
	bay := strings.TrimSpace(input.Bay)
	if bay == "" {
		bay = yardcfg.DefaultBayID
	}
	if _, ok := s.bays.Lookup(bay); !ok {
		return domain.Plan{}, domain.ErrUnknownBay
	}

	containerIDs := dedupe(input.ContainerIDs)
	if len(containerIDs) == 0 {
		return domain.Plan{}, domain.ErrEmptyContainers
	}

	window := domain.Window{Start: input.PlannedStart, End: input.PlannedEnd}
	existing, err := s.plans.List(ctx, repo.PlanFilter{Bay: bay})
	if err != nil {
		return domain.Plan{}, err
	}
	if err := domain.CheckOverlap(bay, window, existing, ""); err != nil {
		return domain.Plan{}, err
	}

	for _, containerID := range containerIDs {
		if err := s.requireUnplanned(ctx, containerID); err != nil {
			return domain.Plan{}, err
		}
	}

	now := s.now()
	plan, err := s.plans.Create(ctx, domain.Plan{
		Bay:             bay,
		PlannedStart:    input.PlannedStart.UTC(),
		PlannedEnd:      input.PlannedEnd.UTC(),
		EquipmentBooked: input.EquipmentBooked,
		PortNotified:    input.PortNotified,
		Status:          domain.PlanStatusScheduled,
		CreatedAt:       now,
		CreatedBy:       strings.TrimSpace(input.CreatedBy),
	})
	if err != nil {
		return domain.Plan{}, err
	}

	for _, containerID := range containerIDs {
		assignment, err := s.assignments.Create(ctx, domain.PlanContainer{
			PlanID:           plan.ID,
			OrderContainerID: containerID,
			Status:           domain.ContainerStatusWaiting,
			AssignedAt:       now,
		})
		if err != nil {
			return domain.Plan{}, err
		}
		plan.Containers = append(plan.Containers, assignment)
	}
	return plan, nil
}

func (s *Service) GetPlan(ctx context.Context, planID string) (domain.Plan, error) {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return domain.Plan{}, err
	}
	s.coord.Reconcile(plan)
	return plan, nil
}

func (s *Service) ListPlans(ctx context.Context, filter repo.PlanFilter) ([]domain.Plan, error) {
	return s.plans.List(ctx, filter)
}

func (s *Service) ListUnplannedContainers(ctx context.Context, filter repo.ContainerFilter) ([]domain.Container, error) {
	return s.containers.ListUnplanned(ctx, filter)
}

// UpdatePlanHeader edits window and prerequisite flags of a scheduled
// plan. The overlap check excludes the plan itself. Bays may declare a
// cutoff lead time; once the cutoff window before the planned start has
// begun the header is frozen. Container edits go through the
// assignment operations instead.
func (s *Service) UpdatePlanHeader(ctx context.Context, planID string, input UpdateHeaderInput) (domain.Plan, error) {
	release := s.coord.LockPlan(planID)
	defer release()

	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return domain.Plan{}, err
	}
	s.coord.Reconcile(plan)
	if plan.Status != domain.PlanStatusScheduled {
		return domain.Plan{}, domain.ErrNotScheduled
	}
	if bay, ok := s.bays.Lookup(plan.Bay); ok {
		if cutoff := bay.CutoffDuration(); cutoff > 0 && !s.now().Before(plan.PlannedStart.Add(-cutoff)) {
			return domain.Plan{}, domain.ErrInsideCutoff
		}
	}

	if input.PlannedStart != nil {
		plan.PlannedStart = input.PlannedStart.UTC()
	}
	if input.PlannedEnd != nil {
		plan.PlannedEnd = input.PlannedEnd.UTC()
	}
	if input.EquipmentBooked != nil {
		plan.EquipmentBooked = *input.EquipmentBooked
	}
	if input.PortNotified != nil {
		plan.PortNotified = *input.PortNotified
	}

	existing, err := s.plans.List(ctx, repo.PlanFilter{Bay: plan.Bay})
	if err != nil {
		return domain.Plan{}, err
	}
	if err := domain.CheckOverlap(plan.Bay, plan.Window(), existing, plan.ID); err != nil {
		return domain.Plan{}, err
	}
	if err := s.plans.UpdateHeader(ctx, plan); err != nil {
		return domain.Plan{}, err
	}
	return plan, nil
}

// DeletePlan removes a scheduled plan and all of its assignments,
// returning every container to the unplanned projection.
func (s *Service) DeletePlan(ctx context.Context, planID string) error {
	release := s.coord.LockPlan(planID)
	defer release()

	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return err
	}
	if plan.Status != domain.PlanStatusScheduled {
		return domain.ErrNotScheduled
	}
	return s.plans.Delete(ctx, planID)
}

// TransitionPlan applies one lifecycle transition. The guard is
// evaluated against the summary recomputed inside the plan's lock, so
// a gate scan landing concurrently cannot slip a stale enablement
// through.
func (s *Service) TransitionPlan(ctx context.Context, planID string, target domain.PlanStatus) (domain.Plan, error) {
	release := s.coord.LockPlan(planID)
	defer release()

	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return domain.Plan{}, err
	}
	s.coord.Reconcile(plan)
	summary := domain.Summarize(plan.Containers)

	if !domain.CanTransitionPlan(plan.Status, target) {
		return domain.Plan{}, &domain.GuardError{From: plan.Status, To: target, Summary: summary}
	}

	now := s.now()
	switch target {
	case domain.PlanStatusInProgress:
		if s.effectiveActive(plan) < 1 {
			return domain.Plan{}, &domain.GuardError{From: plan.Status, To: target, Summary: summary}
		}
		plan.ExecutionStart = &now
	case domain.PlanStatusScheduled:
		if !domain.AllWaiting(summary) {
			return domain.Plan{}, &domain.GuardError{From: plan.Status, To: target, Summary: summary}
		}
		plan.ExecutionStart = nil
	case domain.PlanStatusDone:
		if !domain.ShouldEnableDone(summary) {
			return domain.Plan{}, &domain.GuardError{From: plan.Status, To: target, Summary: summary}
		}
		plan.ExecutionEnd = &now
	case domain.PlanStatusPending:
		if !domain.ShouldEnablePending(summary) {
			return domain.Plan{}, &domain.GuardError{From: plan.Status, To: target, Summary: summary}
		}
		plan.PendingDate = &now
	default:
		return domain.Plan{}, &domain.GuardError{From: plan.Status, To: target, Summary: summary}
	}

	plan.Status = target
	if err := s.plans.UpdateStatus(ctx, plan); err != nil {
		return domain.Plan{}, err
	}
	return plan, nil
}

// ExecutionSummary recomputes counts and the expected end time for one
// plan. Reads never take the plan lock.
func (s *Service) ExecutionSummary(ctx context.Context, planID string) (Summary, error) {
	plan, err := s.plans.Get(ctx, planID)
	if err != nil {
		return Summary{}, err
	}
	s.coord.Reconcile(plan)
	return SummaryFor(plan), nil
}

// SummaryFor derives the execution summary and expected end from an
// already loaded plan.
func SummaryFor(plan domain.Plan) Summary {
	summary := domain.Summarize(plan.Containers)
	expected := plan.PlannedEnd
	if plan.ExecutionStart != nil {
		expected = domain.ExpectedEnd(plan.PlannedStart, plan.PlannedEnd, *plan.ExecutionStart, summary)
	}
	return Summary{ExecutionSummary: summary, ExpectedEnd: expected}
}

// effectiveActive is the stored active count minus removals the store
// has accepted but this read may still contain.
func (s *Service) effectiveActive(plan domain.Plan) int {
	return len(plan.ActiveContainers()) - s.coord.PendingRemovals(plan.ID)
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
