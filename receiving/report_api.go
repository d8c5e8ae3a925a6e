package main

import (
	"errors"
	"net/http"

	"github.com/harborworks/receiving-go/internal/platform/auditlog"
	"github.com/harborworks/receiving-go/internal/reports"
)

// handleExportReport renders the receiving report for a finished plan
// and uploads it to the reports bucket. The export is repeatable; a
// re-export overwrites the previous object.
func (api *receivingAPI) handleExportReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := requestIdentity(r)
	planID := r.PathValue("plan_id")

	if api.store == nil {
		api.writeError(w, r, http.StatusServiceUnavailable, "object_store_unavailable")
		return
	}

	plan, err := api.service(api.db).GetPlan(ctx, planID)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	exporter, err := newExporter(api.store, api.storeCfg.BucketReports)
	if err != nil {
		api.writeDomainError(w, r, err)
		return
	}
	key, err := exporter.Export(ctx, plan)
	if err != nil {
		if errors.Is(err, reports.ErrPlanNotDone) {
			api.writeError(w, r, http.StatusConflict, "plan_not_done")
			return
		}
		api.writeDomainError(w, r, err)
		return
	}

	if err := api.audit(ctx, api.db, r, identity, auditlog.ActionReportExport, "plan", plan.ID, map[string]any{
		"plan_code": plan.Code,
		"bucket":    api.storeCfg.BucketReports,
		"key":       key,
	}); err != nil {
		api.writeDomainError(w, r, err)
		return
	}

	api.writeJSON(w, http.StatusOK, map[string]any{
		"bucket": api.storeCfg.BucketReports,
		"key":    key,
	})
}
