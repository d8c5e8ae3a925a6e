package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harborworks/receiving-go/internal/domain"
)

type AssignmentStore struct {
	db DB
}

func NewAssignmentStore(db DB) *AssignmentStore {
	if db == nil {
		return nil
	}
	return &AssignmentStore{db: db}
}

const insertAssignmentQuery = `INSERT INTO plan_containers (
	plan_container_id,
	plan_id,
	order_container_id,
	status,
	assigned_at,
	completed
) VALUES ($1,$2,$3,$4,$5,false)`

const selectAssignmentQuery = `SELECT plan_container_id, plan_id, order_container_id, status,
	assigned_at, unassigned_at, received_at, rejected_at, completed
 FROM plan_containers
 WHERE plan_container_id = $1`

const selectActiveByContainerQuery = `SELECT plan_container_id, plan_id, order_container_id, status,
	assigned_at, unassigned_at, received_at, rejected_at, completed
 FROM plan_containers
 WHERE order_container_id = $1 AND unassigned_at IS NULL`

const updateOutcomeQuery = `UPDATE plan_containers
 SET status = $2,
     received_at = $3,
     rejected_at = $4,
     completed = true
 WHERE plan_container_id = $1 AND status = 'waiting' AND unassigned_at IS NULL`

func (s *AssignmentStore) Create(ctx context.Context, assignment domain.PlanContainer) (domain.PlanContainer, error) {
	if s == nil || s.db == nil {
		return domain.PlanContainer{}, fmt.Errorf("assignment store not initialized")
	}
	if strings.TrimSpace(assignment.ID) == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.Status == "" {
		assignment.Status = domain.ContainerStatusWaiting
	}
	if err := assignment.Validate(); err != nil {
		return domain.PlanContainer{}, err
	}
	assignment.AssignedAt = normalizeTime(assignment.AssignedAt)
	_, err := s.db.ExecContext(
		ctx,
		insertAssignmentQuery,
		strings.TrimSpace(assignment.ID),
		strings.TrimSpace(assignment.PlanID),
		strings.TrimSpace(assignment.OrderContainerID),
		string(assignment.Status),
		assignment.AssignedAt,
	)
	if err != nil {
		// Backstop for races the partial unique index catches: one
		// active assignment per order container.
		if isUniqueViolation(err) {
			return domain.PlanContainer{}, domain.ErrAlreadyAssigned
		}
		return domain.PlanContainer{}, fmt.Errorf("insert assignment: %w", err)
	}
	return assignment, nil
}

func (s *AssignmentStore) Get(ctx context.Context, id string) (domain.PlanContainer, error) {
	if s == nil || s.db == nil {
		return domain.PlanContainer{}, fmt.Errorf("assignment store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.PlanContainer{}, fmt.Errorf("assignment id is required")
	}
	row := s.db.QueryRowContext(ctx, selectAssignmentQuery, id)
	assignment, err := scanAssignment(row)
	if err != nil {
		return domain.PlanContainer{}, handleNotFound(err)
	}
	return assignment, nil
}

func (s *AssignmentStore) ActiveByContainer(ctx context.Context, orderContainerID string) (domain.PlanContainer, error) {
	if s == nil || s.db == nil {
		return domain.PlanContainer{}, fmt.Errorf("assignment store not initialized")
	}
	orderContainerID = strings.TrimSpace(orderContainerID)
	if orderContainerID == "" {
		return domain.PlanContainer{}, fmt.Errorf("order container id is required")
	}
	row := s.db.QueryRowContext(ctx, selectActiveByContainerQuery, orderContainerID)
	assignment, err := scanAssignment(row)
	if err != nil {
		return domain.PlanContainer{}, handleNotFound(err)
	}
	return assignment, nil
}

// UpdateOutcome records a terminal outcome. The status predicate makes
// the write a no-op for anything but a live waiting assignment, so a
// duplicate gate scan surfaces as ErrAlreadyTerminal instead of
// overwriting history.
func (s *AssignmentStore) UpdateOutcome(ctx context.Context, assignment domain.PlanContainer) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("assignment store not initialized")
	}
	if !assignment.Status.Terminal() {
		return fmt.Errorf("outcome status is invalid: %q", assignment.Status)
	}
	result, err := s.db.ExecContext(
		ctx,
		updateOutcomeQuery,
		strings.TrimSpace(assignment.ID),
		string(assignment.Status),
		nullTime(assignment.ReceivedAt),
		nullTime(assignment.RejectedAt),
	)
	if err != nil {
		return fmt.Errorf("update assignment outcome: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrAlreadyTerminal
	}
	return nil
}

func (s *AssignmentStore) MarkUnassigned(ctx context.Context, id string, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("assignment store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("assignment id is required")
	}
	result, err := s.db.ExecContext(
		ctx,
		`UPDATE plan_containers
		 SET unassigned_at = $2
		 WHERE plan_container_id = $1 AND unassigned_at IS NULL`,
		id,
		normalizeTime(at),
	)
	if err != nil {
		return fmt.Errorf("mark assignment unassigned: %w", err)
	}
	return requireRow(result)
}

func (s *AssignmentStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("assignment store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("assignment id is required")
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM plan_containers WHERE plan_container_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return requireRow(result)
}

func scanAssignment(row rowScanner) (domain.PlanContainer, error) {
	var assignment domain.PlanContainer
	var unassignedAt, receivedAt, rejectedAt sql.NullTime
	var status string
	err := row.Scan(
		&assignment.ID,
		&assignment.PlanID,
		&assignment.OrderContainerID,
		&status,
		&assignment.AssignedAt,
		&unassignedAt,
		&receivedAt,
		&rejectedAt,
		&assignment.Completed,
	)
	if err != nil {
		return domain.PlanContainer{}, err
	}
	assignment.Status = domain.NormalizeContainerStatus(status)
	assignment.UnassignedAt = timePtr(unassignedAt)
	assignment.ReceivedAt = timePtr(receivedAt)
	assignment.RejectedAt = timePtr(rejectedAt)
	return assignment, nil
}
