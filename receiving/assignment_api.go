package main

import (
	"net/http"

	"github.com/harborworks/receiving-go/internal/platform/auditlog"
)

type assignContainerRequest struct {
	OrderContainerID string `json:"order_container_id"`
}

func (api *receivingAPI) handleAssignContainer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requestIdentity(r)
	planID := r.PathValue("plan_id")

	var req assignContainerRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.OrderContainerID == "" {
		api.writeError(w, r, http.StatusBadRequest, "order_container_id_required")
		return
	}

	tx, err := api.db.BeginTx(ctx, nil)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	defer tx.Rollback()

	svc := api.service(tx)
	assignment, err := svc.AssignContainer(ctx, planID, req.OrderContainerID)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	if err := api.audit(ctx, tx, r, identity, auditlog.ActionContainerAssign, "plan_container", assignment.ID, map[string]any{
		"plan_id":            planID,
		"order_container_id": assignment.OrderContainerID,
	}); err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	if err := tx.Commit(); err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	api.writeJSON(w, http.StatusCreated, assignmentDoc{
		AssignmentID:     assignment.ID,
		OrderContainerID: assignment.OrderContainerID,
		Status:           string(assignment.Status),
		AssignedAt:       assignment.AssignedAt,
	})
}

func (api *receivingAPI) handleUnassignContainer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requestIdentity(r)
	planID := r.PathValue("plan_id")
	assignmentID := r.PathValue("assignment_id")

	tx, err := api.db.BeginTx(ctx, nil)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	defer tx.Rollback()

	svc := api.service(tx)
	if err := svc.UnassignContainer(ctx, planID, assignmentID); err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	// The service marked the removal pending. If the transaction does
	// not commit, the row comes back on rollback and reconciliation
	// would never clear the entry, so drop it here.
	if err := api.audit(ctx, tx, r, identity, auditlog.ActionContainerRemove, "plan_container", assignmentID, map[string]any{
		"plan_id": planID,
	}); err != nil {
		api.coord.Forget(assignmentID)
		api.writeDomainError(w, r, err)
		return
	}
	if err := tx.Commit(); err != nil {
		api.coord.Forget(assignmentID)
		api.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
