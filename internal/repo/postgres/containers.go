package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/harborworks/receiving-go/internal/domain"
	"github.com/harborworks/receiving-go/internal/repo"
)

type ContainerStore struct {
	db DB
}

func NewContainerStore(db DB) *ContainerStore {
	if db == nil {
		return nil
	}
	return &ContainerStore{db: db}
}

const selectContainerQuery = `SELECT container_id, number, booking_code, hbl_code, free_time_deadline
 FROM containers
 WHERE container_id = $1`

// selectUnplannedQuery projects containers with no active assignment.
// A container leaves this set the instant an assignment is created and
// returns the instant its assignment is removed or detached.
const selectUnplannedQuery = `SELECT c.container_id, c.number, c.booking_code, c.hbl_code, c.free_time_deadline
 FROM containers c
 WHERE NOT EXISTS (
	SELECT 1 FROM plan_containers pc
	WHERE pc.order_container_id = c.container_id AND pc.unassigned_at IS NULL
 )`

func (s *ContainerStore) Get(ctx context.Context, id string) (domain.Container, error) {
	if s == nil || s.db == nil {
		return domain.Container{}, fmt.Errorf("container store not initialized")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Container{}, fmt.Errorf("container id is required")
	}
	row := s.db.QueryRowContext(ctx, selectContainerQuery, id)
	container, err := scanContainer(row)
	if err != nil {
		return domain.Container{}, handleNotFound(err)
	}
	return container, nil
}

func (s *ContainerStore) ListUnplanned(ctx context.Context, filter repo.ContainerFilter) ([]domain.Container, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("container store not initialized")
	}
	query := selectUnplannedQuery
	args := make([]any, 0, 2)
	if strings.TrimSpace(filter.BookingCode) != "" {
		args = append(args, strings.TrimSpace(filter.BookingCode))
		query += fmt.Sprintf(" AND c.booking_code = $%d", len(args))
	}
	query += " ORDER BY c.free_time_deadline NULLS FIRST, c.container_id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list unplanned containers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	containers := make([]domain.Container, 0)
	for rows.Next() {
		container, err := scanContainer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan container: %w", err)
		}
		containers = append(containers, container)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list unplanned containers: %w", err)
	}
	return containers, nil
}

func scanContainer(row rowScanner) (domain.Container, error) {
	var container domain.Container
	var deadline sql.NullTime
	err := row.Scan(
		&container.ID,
		&container.Number,
		&container.BookingCode,
		&container.HBLCode,
		&deadline,
	)
	if err != nil {
		return domain.Container{}, err
	}
	container.FreeTimeDeadline = timePtr(deadline)
	return container, nil
}
