package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/harborworks/receiving-go/internal/domain"
	"github.com/harborworks/receiving-go/internal/platform/auditlog"
	"github.com/harborworks/receiving-go/internal/platform/auth"
	"github.com/harborworks/receiving-go/internal/platform/objectstore"
	"github.com/harborworks/receiving-go/internal/repo"
	repopg "github.com/harborworks/receiving-go/internal/repo/postgres"
	"github.com/harborworks/receiving-go/internal/reports"
	"github.com/harborworks/receiving-go/internal/service/plans"
	"github.com/harborworks/receiving-go/internal/yardcfg"
)

type receivingAPI struct {
	logger   *slog.Logger
	db       *sql.DB
	store    *minio.Client
	storeCfg objectstore.Config
	coord    *plans.Coordinator
	bays     yardcfg.Spec
}

func newReceivingAPI(logger *slog.Logger, db *sql.DB, store *minio.Client, storeCfg objectstore.Config, coord *plans.Coordinator, bays yardcfg.Spec) *receivingAPI {
	return &receivingAPI{
		logger:   logger,
		db:       db,
		store:    store,
		storeCfg: storeCfg,
		coord:    coord,
		bays:     bays,
	}
}

func (api *receivingAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /plans", api.handleListPlans)
	mux.HandleFunc("POST /plans", api.handleCreatePlan)
	mux.HandleFunc("GET /plans/{plan_id}", api.handleGetPlan)
	mux.HandleFunc("PATCH /plans/{plan_id}", api.handleUpdatePlan)
	mux.HandleFunc("DELETE /plans/{plan_id}", api.handleDeletePlan)

	mux.HandleFunc("POST /plans/{plan_id}:transition", api.handleTransitionPlan)
	mux.HandleFunc("GET /plans/{plan_id}/summary", api.handlePlanSummary)
	mux.HandleFunc("POST /plans/{plan_id}:report", api.handleExportReport)

	mux.HandleFunc("POST /plans/{plan_id}/containers", api.handleAssignContainer)
	mux.HandleFunc("DELETE /plans/{plan_id}/containers/{assignment_id}", api.handleUnassignContainer)
	mux.HandleFunc("POST /assignments/{assignment_id}:outcome", api.handleRecordOutcome)

	mux.HandleFunc("GET /containers:unplanned", api.handleListUnplannedContainers)
}

// service builds a per-request plans service over the given queryer so
// writes run against a transaction and reads against the pool. The
// coordinator and bay spec are process-wide.
func (api *receivingAPI) service(q repopg.DB) *plans.Service {
	return plans.New(
		repopg.NewPlanStore(q),
		repopg.NewAssignmentStore(q),
		repopg.NewContainerStore(q),
		api.coord,
		api.bays,
	)
}

type assignmentDoc struct {
	AssignmentID     string     `json:"assignment_id"`
	OrderContainerID string     `json:"order_container_id"`
	Status           string     `json:"status"`
	AssignedAt       time.Time  `json:"assigned_at"`
	UnassignedAt     *time.Time `json:"unassigned_at,omitempty"`
	ReceivedAt       *time.Time `json:"received_at,omitempty"`
	RejectedAt       *time.Time `json:"rejected_at,omitempty"`
	Completed        bool       `json:"completed"`
}

type planDoc struct {
	PlanID          string          `json:"plan_id"`
	PlanCode        string          `json:"plan_code"`
	Bay             string          `json:"bay"`
	Status          string          `json:"status"`
	PlannedStart    time.Time       `json:"planned_start"`
	PlannedEnd      time.Time       `json:"planned_end"`
	ExecutionStart  *time.Time      `json:"execution_start,omitempty"`
	ExecutionEnd    *time.Time      `json:"execution_end,omitempty"`
	PendingDate     *time.Time      `json:"pending_date,omitempty"`
	EquipmentBooked bool            `json:"equipment_booked"`
	PortNotified    bool            `json:"port_notified"`
	Containers      []assignmentDoc `json:"containers"`
	Summary         *summaryDoc     `json:"summary,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	CreatedBy       string          `json:"created_by,omitempty"`
}

type summaryDoc struct {
	Total               int       `json:"total"`
	Received            int       `json:"received"`
	Rejected            int       `json:"rejected"`
	Waiting             int       `json:"waiting"`
	ShouldEnableDone    bool      `json:"should_enable_done"`
	ShouldEnablePending bool      `json:"should_enable_pending"`
	ExpectedEnd         time.Time `json:"expected_end"`
}

type containerDoc struct {
	OrderContainerID string     `json:"order_container_id"`
	Number           string     `json:"number,omitempty"`
	BookingCode      string     `json:"booking_code,omitempty"`
	HBLCode          string     `json:"hbl_code,omitempty"`
	FreeTimeDeadline *time.Time `json:"free_time_deadline,omitempty"`
}

func planDocFromDomain(plan domain.Plan) planDoc {
	containers := make([]assignmentDoc, 0, len(plan.Containers))
	for _, assignment := range plan.Containers {
		if !assignment.Active() {
			continue
		}
		containers = append(containers, assignmentDoc{
			AssignmentID:     assignment.ID,
			OrderContainerID: assignment.OrderContainerID,
			Status:           string(assignment.Status),
			AssignedAt:       assignment.AssignedAt,
			UnassignedAt:     assignment.UnassignedAt,
			ReceivedAt:       assignment.ReceivedAt,
			RejectedAt:       assignment.RejectedAt,
			Completed:        assignment.Completed,
		})
	}
	return planDoc{
		PlanID:          plan.ID,
		PlanCode:        plan.Code,
		Bay:             plan.Bay,
		Status:          string(plan.Status),
		PlannedStart:    plan.PlannedStart,
		PlannedEnd:      plan.PlannedEnd,
		ExecutionStart:  plan.ExecutionStart,
		ExecutionEnd:    plan.ExecutionEnd,
		PendingDate:     plan.PendingDate,
		EquipmentBooked: plan.EquipmentBooked,
		PortNotified:    plan.PortNotified,
		Containers:      containers,
		CreatedAt:       plan.CreatedAt,
		CreatedBy:       plan.CreatedBy,
	}
}

func summaryDocFromService(summary plans.Summary) summaryDoc {
	return summaryDoc{
		Total:               summary.Total,
		Received:            summary.Received,
		Rejected:            summary.Rejected,
		Waiting:             summary.Waiting,
		ShouldEnableDone:    domain.ShouldEnableDone(summary.ExecutionSummary),
		ShouldEnablePending: domain.ShouldEnablePending(summary.ExecutionSummary),
		ExpectedEnd:         summary.ExpectedEnd,
	}
}

func containerDocFromDomain(c domain.Container) containerDoc {
	return containerDoc{
		OrderContainerID: c.ID,
		Number:           c.Number,
		BookingCode:      c.BookingCode,
		HBLCode:          c.HBLCode,
		FreeTimeDeadline: c.FreeTimeDeadline,
	}
}

// writeDomainError translates engine errors into stable API codes:
// validation failures are 400, state and uniqueness conflicts 409,
// missing resources 404.
func (api *receivingAPI) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var overlapErr *domain.OverlapError
	var guardErr *domain.GuardError

	switch {
	case errors.Is(err, repo.ErrNotFound):
		api.writeError(w, r, http.StatusNotFound, "not_found")
	case errors.Is(err, domain.ErrInvalidRange):
		api.writeError(w, r, http.StatusBadRequest, "invalid_time_range")
	case errors.Is(err, domain.ErrEmptyContainers):
		api.writeError(w, r, http.StatusBadRequest, "containers_required")
	case errors.Is(err, domain.ErrUnknownBay):
		api.writeError(w, r, http.StatusBadRequest, "unknown_bay")
	case errors.As(err, &overlapErr):
		api.writeErrorWithDetails(w, r, http.StatusConflict, "window_conflict", map[string]any{
			"conflicting_plan_id":   overlapErr.PlanID,
			"conflicting_plan_code": overlapErr.PlanCode,
			"planned_start":         overlapErr.PlannedStart,
			"planned_end":           overlapErr.PlannedEnd,
		})
	case errors.As(err, &guardErr):
		api.writeErrorWithDetails(w, r, http.StatusConflict, "transition_not_allowed", map[string]any{
			"from":     string(guardErr.From),
			"to":       string(guardErr.To),
			"total":    guardErr.Summary.Total,
			"received": guardErr.Summary.Received,
			"rejected": guardErr.Summary.Rejected,
			"waiting":  guardErr.Summary.Waiting,
		})
	case errors.Is(err, domain.ErrAlreadyAssigned):
		api.writeError(w, r, http.StatusConflict, "container_already_planned")
	case errors.Is(err, domain.ErrLastContainer):
		api.writeError(w, r, http.StatusConflict, "last_container")
	case errors.Is(err, domain.ErrNotScheduled):
		api.writeError(w, r, http.StatusConflict, "plan_not_scheduled")
	case errors.Is(err, domain.ErrInsideCutoff):
		api.writeError(w, r, http.StatusConflict, "inside_cutoff")
	case errors.Is(err, domain.ErrPlanNotInProgress):
		api.writeError(w, r, http.StatusConflict, "plan_not_in_progress")
	case errors.Is(err, domain.ErrAlreadyTerminal):
		api.writeError(w, r, http.StatusConflict, "outcome_already_recorded")
	default:
		api.logger.Error("request failed", "request_id", r.Header.Get("X-Request-Id"), "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
	}
}

func (api *receivingAPI) audit(ctx context.Context, q auditlog.QueryRower, r *http.Request, identity auth.Identity, action, resourceType, resourceID string, payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["service"] = "receiving"
	_, err := auditlog.Insert(ctx, q, auditlog.Event{
		OccurredAt:   time.Now().UTC(),
		Actor:        identity.Actor(),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    r.Header.Get("X-Request-Id"),
		IP:           requestIP(r.RemoteAddr),
		UserAgent:    r.UserAgent(),
		Payload:      payload,
	})
	return err
}

func (api *receivingAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *receivingAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}

func (api *receivingAPI) writeErrorWithDetails(w http.ResponseWriter, r *http.Request, status int, code string, details any) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
		"details":    details,
	})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("multiple JSON values")
	}
	return nil
}

func requestIP(remoteAddr string) net.IP {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}

func requestIdentity(r *http.Request) auth.Identity {
	identity, _ := auth.IdentityFromContext(r.Context())
	return identity
}

func parseIntQuery(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func clampInt(v int, min int, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// exportReporter lets tests swap the object-store exporter.
var newExporter = func(store *minio.Client, bucket string) (*reports.Exporter, error) {
	return reports.NewExporter(store, bucket)
}
