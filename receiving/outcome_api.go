package main

import (
	"net/http"

	"github.com/harborworks/receiving-go/internal/domain"
	"github.com/harborworks/receiving-go/internal/platform/auditlog"
)

type recordOutcomeRequest struct {
	Outcome string `json:"outcome"`
}

// handleRecordOutcome records the gate decision for one assignment:
// received or rejected, exactly once.
func (api *receivingAPI) handleRecordOutcome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requestIdentity(r)
	assignmentID := r.PathValue("assignment_id")

	var req recordOutcomeRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	outcome := domain.NormalizeContainerStatus(req.Outcome)
	if !outcome.Terminal() {
		api.writeError(w, r, http.StatusBadRequest, "invalid_outcome")
		return
	}

	tx, err := api.db.BeginTx(ctx, nil)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	defer tx.Rollback()

	svc := api.service(tx)
	assignment, err := svc.RecordContainerOutcome(ctx, assignmentID, outcome)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	if err := api.audit(ctx, tx, r, identity, auditlog.ActionContainerOutcome, "plan_container", assignment.ID, map[string]any{
		"plan_id":            assignment.PlanID,
		"order_container_id": assignment.OrderContainerID,
		"outcome":            string(assignment.Status),
	}); err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	if err := tx.Commit(); err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	api.writeJSON(w, http.StatusOK, assignmentDoc{
		AssignmentID:     assignment.ID,
		OrderContainerID: assignment.OrderContainerID,
		Status:           string(assignment.Status),
		AssignedAt:       assignment.AssignedAt,
		ReceivedAt:       assignment.ReceivedAt,
		RejectedAt:       assignment.RejectedAt,
		Completed:        assignment.Completed,
	})
}
