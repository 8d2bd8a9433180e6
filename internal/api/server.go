// Package api provides a thin HTTP admin surface over the lane scheduler:
// submission endpoints for each lane, per-tenant stats, and the standard
// health/metrics endpoints. It is not part of the scheduler's contract —
// callers embedding the lane package directly never need it.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tutu-network/tasklane/internal/domain"
	"github.com/tutu-network/tasklane/internal/health"
	"github.com/tutu-network/tasklane/internal/lane"
)

// Server is the admin HTTP server fronting a lane.Manager.
type Server struct {
	manager        *lane.Manager
	checker        *health.Checker
	metricsEnabled bool
}

// NewServer creates a new admin API server over manager. checker may be nil
// if no health checker is wired.
func NewServer(manager *lane.Manager, checker *health.Checker) *Server {
	return &Server{manager: manager, checker: checker}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealthz)

	r.Route("/v1/tenants/{tenantID}", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Post("/tasks", s.handleSubmitTask)
		r.Post("/schedules", s.handleSchedule)
		r.Post("/subagents", s.handleSpawnSubagent)
		r.Post("/subagents/{executionID}/complete", s.handleCompleteSubagent)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil || s.checker.IsHealthy() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, map[string]any{
		"status":   "unhealthy",
		"statuses": s.checker.Statuses(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	writeJSON(w, http.StatusOK, s.manager.Stats(tenantID))
}

// submitTaskRequest is the wire shape for a Main Lane submission.
type submitTaskRequest struct {
	SubmitterID    string         `json:"submitter_id"`
	Priority       int            `json:"priority"`
	Goal           map[string]any `json:"goal"`
	IdempotencyKey string         `json:"idempotency_key"`
	DeadlineUnix   int64          `json:"deadline_unix,omitempty"`
	ResourceBudget map[string]any `json:"resource_budget,omitempty"`
	MCPTools       []string       `json:"mcp_tools,omitempty"`
	Context        map[string]any `json:"context,omitempty"`
	TraceID        string         `json:"trace_id,omitempty"`
}

func (s *Server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var req submitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task := domain.Task{
		Goal:           req.Goal,
		SubmitterID:    req.SubmitterID,
		TenantID:       tenantID,
		IdempotencyKey: req.IdempotencyKey,
		ResourceBudget: req.ResourceBudget,
		MCPTools:       req.MCPTools,
		Context:        req.Context,
		TraceID:        req.TraceID,
	}
	if req.DeadlineUnix != 0 {
		task.Deadline = time.Unix(req.DeadlineUnix, 0)
	}

	id, err := s.manager.EnqueueMainTask(lane.MainSubmission{Task: task, Priority: req.Priority})
	if err != nil {
		writeLaneError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id.String()})
}

// scheduleRequest is the wire shape for a Cron Lane submission.
type scheduleRequest struct {
	SubmitterID   string         `json:"submitter_id"`
	Goal          map[string]any `json:"goal"`
	ScheduledUnix int64          `json:"scheduled_unix"`
	Recurrence    string         `json:"recurrence,omitempty"`
	MaxRetries    int            `json:"max_retries,omitempty"`
	Priority      int            `json:"priority,omitempty"`
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st := domain.ScheduledTask{
		Task: domain.Task{
			Goal:        req.Goal,
			SubmitterID: req.SubmitterID,
			TenantID:    tenantID,
		},
		ScheduledTime: time.Unix(req.ScheduledUnix, 0),
		Recurrence:    req.Recurrence,
		MaxRetries:    req.MaxRetries,
		Priority:      req.Priority,
	}

	id, err := s.manager.ScheduleCronTask(lane.CronSubmission{ScheduledTask: st})
	if err != nil {
		writeLaneError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"schedule_id": id.String()})
}

// spawnSubagentRequest is the wire shape for a Subagent Lane spawn.
type spawnSubagentRequest struct {
	SubmitterID  string           `json:"submitter_id"`
	Priority     int              `json:"priority"`
	AgentBinding map[string]any   `json:"agent_binding"`
	Goals        []map[string]any `json:"goals"`
	DeadlineUnix int64            `json:"deadline_unix,omitempty"`
}

func (s *Server) handleSpawnSubagent(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var req spawnSubagentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task := domain.SubagentTask{
		AgentBinding: req.AgentBinding,
		Goals:        req.Goals,
		SubmitterID:  req.SubmitterID,
		TenantID:     tenantID,
	}
	if req.DeadlineUnix != 0 {
		task.Deadline = time.Unix(req.DeadlineUnix, 0)
	}

	id, err := s.manager.SpawnSubagent(lane.SubagentSubmission{SubagentTask: task, Priority: req.Priority})
	if err != nil {
		writeLaneError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"execution_id": id.String()})
}

func (s *Server) handleCompleteSubagent(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")
	executionIDStr := chi.URLParam(r, "executionID")

	executionID, err := uuid.Parse(executionIDStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid execution id")
		return
	}

	l, ok := s.manager.SubagentLaneFor(tenantID)
	if !ok {
		writeError(w, http.StatusNotFound, "no subagent lane for tenant")
		return
	}
	l.Complete(executionID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeLaneError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrCapacityExceeded, domain.ErrInvalidSchedule, domain.ErrDeadlineExpired:
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
