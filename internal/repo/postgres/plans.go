package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/harborworks/receiving-go/internal/domain"
	"github.com/harborworks/receiving-go/internal/repo"
)

type PlanStore struct {
	db DB
}

func NewPlanStore(db DB) *PlanStore {
	if db == nil {
		return nil
	}
	return &PlanStore{db: db}
}

const insertPlanQuery = `INSERT INTO plans (
	plan_id,
	code,
	bay,
	planned_start,
	planned_end,
	equipment_booked,
	port_notified,
	status,
	created_at,
	created_by
) VALUES ($1, 'RCV-' || lpad(nextval('plan_code_seq')::text, 6, '0'), $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING code, created_at`

const selectPlanQuery = `SELECT plan_id, code, bay, planned_start, planned_end,
	execution_start, execution_end, pending_date,
	equipment_booked, port_notified, status, created_at, created_by
 FROM plans
 WHERE plan_id = $1`

const selectPlanContainersQuery = `SELECT plan_container_id, plan_id, order_container_id, status,
	assigned_at, unassigned_at, received_at, rejected_at, completed
 FROM plan_containers
 WHERE plan_id = $1
 ORDER BY assigned_at, plan_container_id`

func (s *PlanStore) Create(ctx context.Context, plan domain.Plan) (domain.Plan, error) {
	if s == nil || s.db == nil {
		return domain.Plan{}, fmt.Errorf("plan store not initialized")
	}
	if strings.TrimSpace(plan.ID) == "" {
		plan.ID = uuid.NewString()
	}
	if plan.Status == "" {
		plan.Status = domain.PlanStatusScheduled
	}
	if err := plan.Validate(); err != nil {
		return domain.Plan{}, err
	}
	plan.CreatedAt = normalizeTime(plan.CreatedAt)
	err := s.db.QueryRowContext(
		ctx,
		insertPlanQuery,
		strings.TrimSpace(plan.ID),
		strings.TrimSpace(plan.Bay),
		plan.PlannedStart.UTC(),
		plan.PlannedEnd.UTC(),
		plan.EquipmentBooked,
		plan.PortNotified,
		string(plan.Status),
		plan.CreatedAt,
		strings.TrimSpace(plan.CreatedBy),
	).Scan(&plan.Code, &plan.CreatedAt)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("insert plan: %w", err)
	}
	return plan, nil
}

func (s *PlanStore) Get(ctx context.Context, id string) (domain.Plan, error) {
	if s == nil || s.db == nil {
		return domain.Plan{}, fmt.Errorf("plan store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Plan{}, fmt.Errorf("plan id is required")
	}
	row := s.db.QueryRowContext(ctx, selectPlanQuery, id)
	plan, err := scanPlan(row)
	if err != nil {
		return domain.Plan{}, handleNotFound(err)
	}
	containers, err := s.loadContainers(ctx, plan.ID)
	if err != nil {
		return domain.Plan{}, err
	}
	plan.Containers = containers
	return plan, nil
}

func (s *PlanStore) List(ctx context.Context, filter repo.PlanFilter) ([]domain.Plan, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("plan store not initialized")
	}
	clauses := make([]string, 0, 4)
	args := make([]any, 0, 4)

	if strings.TrimSpace(filter.Bay) != "" {
		args = append(args, strings.TrimSpace(filter.Bay))
		clauses = append(clauses, fmt.Sprintf("bay = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From.UTC())
		clauses = append(clauses, fmt.Sprintf("planned_end > $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To.UTC())
		clauses = append(clauses, fmt.Sprintf("planned_start < $%d", len(args)))
	}

	query := `SELECT plan_id, code, bay, planned_start, planned_end,
	execution_start, execution_end, pending_date,
	equipment_booked, port_notified, status, created_at, created_by
 FROM plans`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY planned_start, plan_id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer func() { _ = rows.Close() }()

	plans := make([]domain.Plan, 0)
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	for i := range plans {
		containers, err := s.loadContainers(ctx, plans[i].ID)
		if err != nil {
			return nil, err
		}
		plans[i].Containers = containers
	}
	return plans, nil
}

func (s *PlanStore) UpdateHeader(ctx context.Context, plan domain.Plan) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("plan store not initialized")
	}
	if err := plan.Validate(); err != nil {
		return err
	}
	result, err := s.db.ExecContext(
		ctx,
		`UPDATE plans
		 SET planned_start = $2,
		     planned_end = $3,
		     equipment_booked = $4,
		     port_notified = $5
		 WHERE plan_id = $1`,
		strings.TrimSpace(plan.ID),
		plan.PlannedStart.UTC(),
		plan.PlannedEnd.UTC(),
		plan.EquipmentBooked,
		plan.PortNotified,
	)
	if err != nil {
		return fmt.Errorf("update plan header: %w", err)
	}
	return requireRow(result)
}

func (s *PlanStore) UpdateStatus(ctx context.Context, plan domain.Plan) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("plan store not initialized")
	}
	if !plan.Status.Valid() {
		return fmt.Errorf("plan status is invalid")
	}
	result, err := s.db.ExecContext(
		ctx,
		`UPDATE plans
		 SET status = $2,
		     execution_start = $3,
		     execution_end = $4,
		     pending_date = $5
		 WHERE plan_id = $1`,
		strings.TrimSpace(plan.ID),
		string(plan.Status),
		nullTime(plan.ExecutionStart),
		nullTime(plan.ExecutionEnd),
		nullTime(plan.PendingDate),
	)
	if err != nil {
		return fmt.Errorf("update plan status: %w", err)
	}
	return requireRow(result)
}

// Delete removes the plan and all of its assignment rows. Callers run
// it inside a transaction so a half-removed plan is never observable.
func (s *PlanStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("plan store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("plan id is required")
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM plan_containers WHERE plan_id = $1`, id); err != nil {
		return fmt.Errorf("delete plan containers: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM plans WHERE plan_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return requireRow(result)
}

func (s *PlanStore) loadContainers(ctx context.Context, planID string) ([]domain.PlanContainer, error) {
	rows, err := s.db.QueryContext(ctx, selectPlanContainersQuery, planID)
	if err != nil {
		return nil, fmt.Errorf("list plan containers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	containers := make([]domain.PlanContainer, 0)
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan container: %w", err)
		}
		containers = append(containers, assignment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plan containers: %w", err)
	}
	return containers, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (domain.Plan, error) {
	var plan domain.Plan
	var executionStart, executionEnd, pendingDate sql.NullTime
	var status string
	err := row.Scan(
		&plan.ID,
		&plan.Code,
		&plan.Bay,
		&plan.PlannedStart,
		&plan.PlannedEnd,
		&executionStart,
		&executionEnd,
		&pendingDate,
		&plan.EquipmentBooked,
		&plan.PortNotified,
		&status,
		&plan.CreatedAt,
		&plan.CreatedBy,
	)
	if err != nil {
		return domain.Plan{}, err
	}
	plan.Status = domain.NormalizePlanStatus(status)
	plan.ExecutionStart = timePtr(executionStart)
	plan.ExecutionEnd = timePtr(executionEnd)
	plan.PendingDate = timePtr(pendingDate)
	return plan, nil
}
