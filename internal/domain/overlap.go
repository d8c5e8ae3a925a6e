package domain

import (
	"fmt"
	"time"
)

// OverlapError identifies the live plan conflicting with a candidate
// window, for operator messaging.
type OverlapError struct {
	PlanID       string
	PlanCode     string
	PlannedStart time.Time
	PlannedEnd   time.Time
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("window overlaps plan %s (%s - %s)",
		e.PlanCode,
		e.PlannedStart.Format(time.RFC3339),
		e.PlannedEnd.Format(time.RFC3339))
}

// CheckOverlap validates a candidate window against every live plan in
// the same bay. Done plans are historical and never conflict. The plan
// identified by excludePlanID is skipped so an edited plan does not
// conflict with itself. Windows are half-open: a plan ending at T and a
// plan starting at T do not conflict.
func CheckOverlap(bay string, candidate Window, plans []Plan, excludePlanID string) error {
	if !candidate.Valid() {
		return ErrInvalidRange
	}
	for _, p := range plans {
		if excludePlanID != "" && p.ID == excludePlanID {
			continue
		}
		if p.Status == PlanStatusDone {
			continue
		}
		if p.Bay != bay {
			continue
		}
		if candidate.Overlaps(p.Window()) {
			return &OverlapError{
				PlanID:       p.ID,
				PlanCode:     p.Code,
				PlannedStart: p.PlannedStart,
				PlannedEnd:   p.PlannedEnd,
			}
		}
	}
	return nil
}
