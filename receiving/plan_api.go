package main

import (
	"net/http"
	"time"

	"github.com/harborworks/receiving-go/internal/domain"
	"github.com/harborworks/receiving-go/internal/platform/auditlog"
	"github.com/harborworks/receiving-go/internal/repo"
	"github.com/harborworks/receiving-go/internal/service/plans"
)

type createPlanRequest struct {
	Bay             string    `json:"bay"`
	PlannedStart    time.Time `json:"planned_start"`
	PlannedEnd      time.Time `json:"planned_end"`
	EquipmentBooked bool      `json:"equipment_booked"`
	PortNotified    bool      `json:"port_notified"`
	ContainerIDs    []string  `json:"container_ids"`
}

type updatePlanRequest struct {
	PlannedStart    *time.Time `json:"planned_start"`
	PlannedEnd      *time.Time `json:"planned_end"`
	EquipmentBooked *bool      `json:"equipment_booked"`
	PortNotified    *bool      `json:"port_notified"`
}

type transitionPlanRequest struct {
	Status string `json:"status"`
}

func (api *receivingAPI) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requestIdentity(r)

	var req createPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}

	tx, err := api.db.BeginTx(ctx, nil)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	defer tx.Rollback()

	svc := api.service(tx)
	plan, err := svc.CreatePlan(ctx, plansCreateInput(req, identity.Actor()))
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	if err := api.audit(ctx, tx, r, identity, auditlog.ActionPlanCreate, "plan", plan.ID, map[string]any{
		"plan_code":  plan.Code,
		"bay":        plan.Bay,
		"containers": len(plan.Containers),
	}); err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	if err := tx.Commit(); err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	api.writeJSON(w, http.StatusCreated, planDocFromDomain(plan))
}

func (api *receivingAPI) handleListPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter := repo.PlanFilter{
		Bay:    r.URL.Query().Get("bay"),
		Status: domain.NormalizePlanStatus(r.URL.Query().Get("status")),
		Limit:  clampInt(parseIntQuery(r, "limit", 100), 1, 500),
	}
	if from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from")); err == nil {
		filter.From = from
	}
	if to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to")); err == nil {
		filter.To = to
	}

	plansList, err := api.service(api.db).ListPlans(ctx, filter)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	docs := make([]planDoc, 0, len(plansList))
	for _, plan := range plansList {
		docs = append(docs, planDocFromDomain(plan))
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"plans": docs})
}

func (api *receivingAPI) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := api.service(api.db).GetPlan(r.Context(), r.PathValue("plan_id"))
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	doc := planDocFromDomain(plan)
	summary := summaryDocFromService(plans.SummaryFor(plan))
	doc.Summary = &summary
	api.writeJSON(w, http.StatusOK, doc)
}

func (api *receivingAPI) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requestIdentity(r)
	planID := r.PathValue("plan_id")

	var req updatePlanRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}

	tx, err := api.db.BeginTx(ctx, nil)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	defer tx.Rollback()

	svc := api.service(tx)
	plan, err := svc.UpdatePlanHeader(ctx, planID, plansUpdateInput(req))
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	if err := api.audit(ctx, tx, r, identity, auditlog.ActionPlanUpdate, "plan", plan.ID, map[string]any{
		"plan_code": plan.Code,
	}); err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	if err := tx.Commit(); err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	api.writeJSON(w, http.StatusOK, planDocFromDomain(plan))
}

func (api *receivingAPI) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requestIdentity(r)
	planID := r.PathValue("plan_id")

	tx, err := api.db.BeginTx(ctx, nil)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	defer tx.Rollback()

	svc := api.service(tx)
	if err := svc.DeletePlan(ctx, planID); err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	if err := api.audit(ctx, tx, r, identity, auditlog.ActionPlanDelete, "plan", planID, nil); err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	if err := tx.Commit(); err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (api *receivingAPI) handleTransitionPlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requestIdentity(r)
	planID := r.PathValue("plan_id")

	var req transitionPlanRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, r, http.StatusBadRequest, "invalid_json")
		return
	}
	target := domain.NormalizePlanStatus(req.Status)
	if target == "" {
		api.writeError(w, r, http.StatusBadRequest, "invalid_status")
		return
	}

	tx, err := api.db.BeginTx(ctx, nil)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	defer tx.Rollback()

	svc := api.service(tx)
	plan, err := svc.TransitionPlan(ctx, planID, target)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	if err := api.audit(ctx, tx, r, identity, auditlog.ActionPlanTransition, "plan", plan.ID, map[string]any{
		"plan_code": plan.Code,
		"to":        string(plan.Status),
	}); err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	if err := tx.Commit(); err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	api.writeJSON(w, http.StatusOK, planDocFromDomain(plan))
}

func (api *receivingAPI) handlePlanSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := api.service(api.db).ExecutionSummary(r.Context(), r.PathValue("plan_id"))
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	api.writeJSON(w, http.StatusOK, summaryDocFromService(summary))
}

func plansCreateInput(req createPlanRequest, actor string) plans.CreatePlanInput {
	return plans.CreatePlanInput{
		Bay:             req.Bay,
		PlannedStart:    req.PlannedStart,
		PlannedEnd:      req.PlannedEnd,
		EquipmentBooked: req.EquipmentBooked,
		PortNotified:    req.PortNotified,
		ContainerIDs:    req.ContainerIDs,
		CreatedBy:       actor,
	}
}

func plansUpdateInput(req updatePlanRequest) plans.UpdateHeaderInput {
	return plans.UpdateHeaderInput{
		PlannedStart:    req.PlannedStart,
		PlannedEnd:      req.PlannedEnd,
		EquipmentBooked: req.EquipmentBooked,
		PortNotified:    req.PortNotified,
	}
}
