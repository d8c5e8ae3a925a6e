// Package reports renders receiving reports for finished plans and
// exports them to the object store. Reports are a display aid; nothing
// in the plan lifecycle depends on them.
package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/harborworks/receiving-go/internal/domain"
)

// Render produces the CSV receiving report for one plan: one row per
// container assignment, then a summary row with the final counts.
func Render(plan domain.Plan) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"plan_code", "order_container_id", "status", "assigned_at", "completed_at"}); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for _, assignment := range plan.Containers {
		if !assignment.Active() {
			continue
		}
		completedAt := ""
		switch {
		case assignment.ReceivedAt != nil:
			completedAt = assignment.ReceivedAt.UTC().Format(time.RFC3339)
		case assignment.RejectedAt != nil:
			completedAt = assignment.RejectedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			plan.Code,
			assignment.OrderContainerID,
			string(assignment.Status),
			assignment.AssignedAt.UTC().Format(time.RFC3339),
			completedAt,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}

	summary := domain.Summarize(plan.Containers)
	totals := []string{
		plan.Code,
		"TOTAL",
		fmt.Sprintf("received=%d rejected=%d", summary.Received, summary.Rejected),
		"",
		strconv.Itoa(summary.Total),
	}
	if err := w.Write(totals); err != nil {
		return nil, fmt.Errorf("write summary: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
