package plans

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/harborworks/receiving-go/internal/domain"
	"github.com/harborworks/receiving-go/internal/repo"
	"github.com/harborworks/receiving-go/internal/yardcfg"
)

// fakeStore backs all three repositories with one in-memory state so
// reads hydrate assignments the way the SQL stores do. With lagReads
// set, accepted removals stay visible to reads until flush is called,
// imitating an eventually-consistent backend.
type fakeStore struct {
	mu          sync.Mutex
	seq         int
	plans       map[string]domain.Plan
	assignments map[string]domain.PlanContainer
	containers  map[string]domain.Container

	lagReads bool
	removed  map[string]domain.PlanContainer
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		plans:       make(map[string]domain.Plan),
		assignments: make(map[string]domain.PlanContainer),
		containers:  make(map[string]domain.Container),
		removed:     make(map[string]domain.PlanContainer),
	}
}

// flush applies lagged removals so subsequent reads reflect them.
func (f *fakeStore) flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = make(map[string]domain.PlanContainer)
}

func (f *fakeStore) visibleAssignments() []domain.PlanContainer {
	out := make([]domain.PlanContainer, 0, len(f.assignments)+len(f.removed))
	for _, a := range f.assignments {
		out = append(out, a)
	}
	if f.lagReads {
		for _, a := range f.removed {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AssignedAt.Equal(out[j].AssignedAt) {
			return out[i].AssignedAt.Before(out[j].AssignedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *fakeStore) hydrate(plan domain.Plan) domain.Plan {
	plan.Containers = nil
	for _, a := range f.visibleAssignments() {
		if a.PlanID == plan.ID {
			plan.Containers = append(plan.Containers, a)
		}
	}
	return plan
}

func (f *fakeStore) Create(ctx context.Context, plan domain.Plan) (domain.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if plan.ID == "" {
		plan.ID = fmt.Sprintf("plan-%d", f.seq)
	}
	plan.Code = fmt.Sprintf("RCV-%06d", f.seq)
	f.plans[plan.ID] = plan
	return plan, nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (domain.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	plan, ok := f.plans[id]
	if !ok {
		return domain.Plan{}, repo.ErrNotFound
	}
	return f.hydrate(plan), nil
}

func (f *fakeStore) List(ctx context.Context, filter repo.PlanFilter) ([]domain.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Plan, 0, len(f.plans))
	for _, plan := range f.plans {
		if filter.Bay != "" && plan.Bay != filter.Bay {
			continue
		}
		if filter.Status != "" && plan.Status != filter.Status {
			continue
		}
		out = append(out, f.hydrate(plan))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) UpdateHeader(ctx context.Context, plan domain.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.plans[plan.ID]
	if !ok {
		return repo.ErrNotFound
	}
	stored.PlannedStart = plan.PlannedStart
	stored.PlannedEnd = plan.PlannedEnd
	stored.EquipmentBooked = plan.EquipmentBooked
	stored.PortNotified = plan.PortNotified
	f.plans[plan.ID] = stored
	return nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, plan domain.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.plans[plan.ID]
	if !ok {
		return repo.ErrNotFound
	}
	stored.Status = plan.Status
	stored.ExecutionStart = plan.ExecutionStart
	stored.ExecutionEnd = plan.ExecutionEnd
	stored.PendingDate = plan.PendingDate
	f.plans[plan.ID] = stored
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.plans[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.plans, id)
	for aid, a := range f.assignments {
		if a.PlanID == id {
			delete(f.assignments, aid)
		}
	}
	return nil
}

func (f *fakeStore) CreateAssignment(ctx context.Context, assignment domain.PlanContainer) (domain.PlanContainer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments {
		if a.OrderContainerID == assignment.OrderContainerID && a.Active() {
			return domain.PlanContainer{}, domain.ErrAlreadyAssigned
		}
	}
	f.seq++
	if assignment.ID == "" {
		assignment.ID = fmt.Sprintf("asg-%d", f.seq)
	}
	f.assignments[assignment.ID] = assignment
	return assignment, nil
}

func (f *fakeStore) GetAssignment(ctx context.Context, id string) (domain.PlanContainer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.assignments[id]; ok {
		return a, nil
	}
	if f.lagReads {
		if a, ok := f.removed[id]; ok {
			return a, nil
		}
	}
	return domain.PlanContainer{}, repo.ErrNotFound
}

func (f *fakeStore) ActiveByContainer(ctx context.Context, orderContainerID string) (domain.PlanContainer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.assignments {
		if a.OrderContainerID == orderContainerID && a.Active() {
			return a, nil
		}
	}
	return domain.PlanContainer{}, repo.ErrNotFound
}

func (f *fakeStore) UpdateOutcome(ctx context.Context, assignment domain.PlanContainer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.assignments[assignment.ID]
	if !ok {
		return repo.ErrNotFound
	}
	if stored.Status != domain.ContainerStatusWaiting || !stored.Active() {
		return domain.ErrAlreadyTerminal
	}
	stored.Status = assignment.Status
	stored.ReceivedAt = assignment.ReceivedAt
	stored.RejectedAt = assignment.RejectedAt
	stored.Completed = true
	f.assignments[assignment.ID] = stored
	return nil
}

func (f *fakeStore) MarkUnassigned(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.assignments[id]
	if !ok || !stored.Active() {
		return repo.ErrNotFound
	}
	stored.UnassignedAt = &at
	if f.lagReads {
		// Reads keep serving the active row until flush.
		f.removed[id] = f.assignments[id]
	}
	f.assignments[id] = stored
	return nil
}

func (f *fakeStore) DeleteAssignment(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.assignments[id]
	if !ok {
		return repo.ErrNotFound
	}
	if f.lagReads {
		f.removed[id] = stored
	}
	delete(f.assignments, id)
	return nil
}

func (f *fakeStore) GetContainer(ctx context.Context, id string) (domain.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.containers[id]; ok {
		return c, nil
	}
	return domain.Container{}, repo.ErrNotFound
}

func (f *fakeStore) ListUnplanned(ctx context.Context, filter repo.ContainerFilter) ([]domain.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Container, 0, len(f.containers))
	for _, c := range f.containers {
		active := false
		for _, a := range f.assignments {
			if a.OrderContainerID == c.ID && a.Active() {
				active = true
				break
			}
		}
		if !active {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Repository adapters: the fake's assignment and container methods use
// prefixed names so they can share the struct.
type fakeAssignments struct{ *fakeStore }

func (f fakeAssignments) Create(ctx context.Context, a domain.PlanContainer) (domain.PlanContainer, error) {
	return f.CreateAssignment(ctx, a)
}
func (f fakeAssignments) Get(ctx context.Context, id string) (domain.PlanContainer, error) {
	return f.GetAssignment(ctx, id)
}
func (f fakeAssignments) Delete(ctx context.Context, id string) error {
	return f.DeleteAssignment(ctx, id)
}

type fakeContainers struct{ *fakeStore }

func (f fakeContainers) Get(ctx context.Context, id string) (domain.Container, error) {
	return f.GetContainer(ctx, id)
}

func testBays() yardcfg.Spec {
	return yardcfg.Spec{
		Schema: yardcfg.SpecSchemaV1,
		Bays: []yardcfg.Bay{
			{ID: yardcfg.DefaultBayID},
			{ID: "bay-a"},
			{ID: "bay-b"},
			{ID: "bay-cutoff", Cutoff: "2h"},
		},
	}
}

func newTestService(store *fakeStore) *Service {
	return New(store, fakeAssignments{store}, fakeContainers{store}, NewCoordinator(), testBays())
}
