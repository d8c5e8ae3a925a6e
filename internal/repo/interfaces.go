package repo

import (
	"context"
	"errors"
	"time"

	"github.com/harborworks/receiving-go/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

type PlanFilter struct {
	Bay    string
	Status domain.PlanStatus
	From   time.Time
	To     time.Time
	Limit  int
}

type ContainerFilter struct {
	BookingCode string
	Limit       int
}

// PlanRepository persists receive plans. Get and List hydrate the
// plan's assignments so summaries can be recomputed on every read.
type PlanRepository interface {
	Create(ctx context.Context, plan domain.Plan) (domain.Plan, error)
	Get(ctx context.Context, id string) (domain.Plan, error)
	List(ctx context.Context, filter PlanFilter) ([]domain.Plan, error)
	UpdateHeader(ctx context.Context, plan domain.Plan) error
	UpdateStatus(ctx context.Context, plan domain.Plan) error
	Delete(ctx context.Context, id string) error
}

// AssignmentRepository persists the container-to-plan join records.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment domain.PlanContainer) (domain.PlanContainer, error)
	Get(ctx context.Context, id string) (domain.PlanContainer, error)
	ActiveByContainer(ctx context.Context, orderContainerID string) (domain.PlanContainer, error)
	UpdateOutcome(ctx context.Context, assignment domain.PlanContainer) error
	MarkUnassigned(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

// ContainerRepository reads the registry mirror. The engine never
// writes container records.
type ContainerRepository interface {
	Get(ctx context.Context, id string) (domain.Container, error)
	ListUnplanned(ctx context.Context, filter ContainerFilter) ([]domain.Container, error)
}
