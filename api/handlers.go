/*
handlers.go - HTTP API handlers for the follow-up engine

PURPOSE:
  Exposes lead parsing and the follow-up service via REST API. Handles
  HTTP request/response, JSON serialization, and delegates to the domain.

ENDPOINTS:
  Leads:
    POST   /api/parse                    Parse a lead dump (no writes)
    POST   /api/import                   Parse/accept leads, create clients

  Clients:
    GET    /api/clients?sort=client|date Client table with progress
    POST   /api/clients                  Create client
    GET    /api/clients/{id}             Get client
    PUT    /api/clients/{id}             Edit fields/anchors
    DELETE /api/clients/{id}             Delete client and its tasks
    POST   /api/clients/{id}/status      Reached/unreached
    DELETE /api/clients/{id}/manual-tasks Clear open manual tasks

  Tasks:
    GET    /api/tasks                    Filtered list
    POST   /api/tasks                    Add manual/custom task
    POST   /api/tasks/{id}/done|reopen   Toggle status
    DELETE /api/tasks/{id}               Delete task

  Calendar:
    GET/PUT /api/settings                Working-day settings
    PUT    /api/settings/overrides       Force a date work/off
    DELETE /api/settings/overrides/{date}
    POST   /api/regenerate               Rebuild future auto tasks

REQUEST FLOW:
  1. Decode JSON body
  2. Validate with go-playground/validator
  3. Call followup.Service
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON {error, details, fields}:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Duplicate task
  - 429: Parse rate limit
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo lead dumps
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/warp/followup-engine/factory"
	"github.com/warp/followup-engine/followup"
	"github.com/warp/followup-engine/generic"
	"github.com/warp/followup-engine/leads"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service  *followup.Service
	validate *validator.Validate
}

// NewHandler creates a handler over the given service.
func NewHandler(svc *followup.Service) *Handler {
	return &Handler{Service: svc, validate: newValidator()}
}

// =============================================================================
// LEAD HANDLERS
// =============================================================================

// ParseLeads runs the lead parser without touching the store.
func (h *Handler) ParseLeads(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !h.decode(w, r, &req) {
		return
	}
	found := leads.ParseText(req.Text)
	if found == nil {
		found = []generic.Lead{}
	}
	writeJSON(w, http.StatusOK, ParseResponse{
		Leads:      found,
		MultiLead:  leads.IsMultiLead(leads.Normalize(req.Text)),
		Identified: len(found),
	})
}

// ImportLeads creates one client per lead. Text is parsed first; explicit
// leads are taken as-is.
func (h *Handler) ImportLeads(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !h.decode(w, r, &req) {
		return
	}
	toImport := req.Leads
	if len(toImport) == 0 {
		toImport = leads.ParseText(req.Text)
	}
	clients, err := h.Service.ImportLeads(r.Context(), toImport)
	if err != nil {
		writeServiceError(w, "Failed to import leads", err)
		return
	}
	writeJSON(w, http.StatusCreated, clients)
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

// ListClients returns the client table.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	mode := followup.SortMode(r.URL.Query().Get("sort"))
	if !mode.Valid() {
		writeError(w, http.StatusBadRequest, "Invalid sort (use client or date)", nil)
		return
	}
	rows, err := h.Service.ClientSummaries(r.Context(), mode)
	if err != nil {
		writeServiceError(w, "Failed to list clients", err)
		return
	}
	if rows == nil {
		rows = []followup.ClientSummary{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// GetClient returns a single client.
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetClient(r.Context(), generic.ClientID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, "Failed to get client", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// CreateClient creates a client and schedules its cadence.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.Service.CreateClient(r.Context(), req.toClient(""))
	if err != nil {
		writeServiceError(w, "Failed to create client", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// UpdateClient edits lead fields and anchors. Status changes go through
// SetClientStatus.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var req ClientRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.Service.UpdateClient(r.Context(), req.toClient(generic.ClientID(chi.URLParam(r, "id"))))
	if err != nil {
		writeServiceError(w, "Failed to update client", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DeleteClient removes a client and every task it owns.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteClient(r.Context(), generic.ClientID(chi.URLParam(r, "id"))); err != nil {
		writeServiceError(w, "Failed to delete client", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetClientStatus marks a client reached or unreached.
func (h *Handler) SetClientStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.Service.SetStatus(r.Context(), generic.ClientID(chi.URLParam(r, "id")), generic.ClientStatus(req.Status))
	if err != nil {
		writeServiceError(w, "Failed to set status", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ClearManualTasks deletes the client's open manual tasks.
func (h *Handler) ClearManualTasks(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.ClearManualTasks(r.Context(), generic.ClientID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, "Failed to clear manual tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// =============================================================================
// TASK HANDLERS
// =============================================================================

// ListTasks filters by client_id, status, source, from, to and sorts by
// sort=client|date.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := generic.TaskFilter{
		Status: generic.TaskStatus(q.Get("status")),
		Source: generic.TaskSource(q.Get("source")),
	}
	if id := q.Get("client_id"); id != "" {
		filter.ClientIDs = []generic.ClientID{generic.ClientID(id)}
	}
	fields := map[string]string{}
	if filter.Status != "" && !filter.Status.Valid() {
		fields["status"] = "oneof"
	}
	if filter.Source != "" && !filter.Source.Valid() {
		fields["source"] = "oneof"
	}
	var err error
	if filter.From, err = generic.ParseDate(q.Get("from")); err != nil {
		fields["from"] = "date"
	}
	if filter.To, err = generic.ParseDate(q.Get("to")); err != nil {
		fields["to"] = "date"
	}
	mode := followup.SortMode(q.Get("sort"))
	if !mode.Valid() {
		fields["sort"] = "oneof"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid query", Fields: fields})
		return
	}

	tasks, err := h.Service.ListTasks(r.Context(), filter, mode)
	if err != nil {
		writeServiceError(w, "Failed to list tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(tasks))
}

// CreateTask adds a manual or custom task.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if !h.decode(w, r, &req) {
		return
	}
	t, err := h.Service.AddTask(r.Context(), req.toTask())
	if err != nil {
		writeServiceError(w, "Failed to create task", err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// CompleteTask marks a task done.
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	h.setTaskStatus(w, r, generic.TaskDone)
}

// ReopenTask marks a task open again.
func (h *Handler) ReopenTask(w http.ResponseWriter, r *http.Request) {
	h.setTaskStatus(w, r, generic.TaskOpen)
}

func (h *Handler) setTaskStatus(w http.ResponseWriter, r *http.Request, status generic.TaskStatus) {
	t, err := h.Service.SetTaskStatus(r.Context(), generic.TaskID(chi.URLParam(r, "id")), status)
	if err != nil {
		writeServiceError(w, "Failed to update task", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// DeleteTask removes one task.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteTask(r.Context(), generic.TaskID(chi.URLParam(r, "id"))); err != nil {
		writeServiceError(w, "Failed to delete task", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// GetSettings returns the working-day calendar.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	cal, err := h.Service.Settings(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// UpdateSettings replaces the calendar and regenerates every cadence.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var cal generic.CalendarSettings
	if !h.decode(w, r, &cal) {
		return
	}
	n, err := h.Service.UpdateSettings(r.Context(), cal)
	if err != nil {
		writeServiceError(w, "Failed to update settings", err)
		return
	}
	h.writeRegenerated(w, r, n)
}

// SetOverride forces one date to be working or off.
func (h *Handler) SetOverride(w http.ResponseWriter, r *http.Request) {
	var req OverrideRequest
	if !h.decode(w, r, &req) {
		return
	}
	n, err := h.Service.SetOverride(r.Context(), mustDate(req.Date), generic.Override(req.Kind))
	if err != nil {
		writeServiceError(w, "Failed to set override", err)
		return
	}
	h.writeRegenerated(w, r, n)
}

// ClearOverride drops the override on {date}.
func (h *Handler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	date, err := generic.ParseDate(chi.URLParam(r, "date"))
	if err != nil || date.IsZero() {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	n, err := h.Service.ClearOverride(r.Context(), date)
	if err != nil {
		writeServiceError(w, "Failed to clear override", err)
		return
	}
	h.writeRegenerated(w, r, n)
}

// Regenerate rebuilds every future open auto task.
func (h *Handler) Regenerate(w http.ResponseWriter, r *http.Request) {
	n, err := h.Service.Regenerate(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to regenerate", err)
		return
	}
	writeJSON(w, http.StatusOK, RegenerateResponse{Created: n})
}

func (h *Handler) writeRegenerated(w http.ResponseWriter, r *http.Request, n int) {
	cal, err := h.Service.Settings(r.Context())
	if err != nil {
		writeServiceError(w, "Failed to get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, RegenerateResponse{Created: n, Settings: &cal})
}

// =============================================================================
// VIEW HANDLERS
// =============================================================================

// Agenda lists open tasks from today (or ?from=) onwards.
func (h *Handler) Agenda(w http.ResponseWriter, r *http.Request) {
	from, err := generic.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from (use YYYY-MM-DD)", err)
		return
	}
	tasks, err := h.Service.Agenda(r.Context(), from)
	if err != nil {
		writeServiceError(w, "Failed to build agenda", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(tasks))
}

// Calendar returns ?days= days (default 30) from today.
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid days", err)
			return
		}
		days = n
	}
	view, err := h.Service.CalendarView(r.Context(), days)
	if err != nil {
		writeServiceError(w, "Failed to build calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// =============================================================================
// STATE HANDLERS
// =============================================================================

// ExportState dumps the whole store as the persisted document.
func (h *Handler) ExportState(w http.ResponseWriter, r *http.Request) {
	st, err := factory.Dump(r.Context(), h.Service.Store)
	if err != nil {
		writeServiceError(w, "Failed to export state", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	factory.Encode(w, *st)
}

// ImportState replaces the whole store with the posted document.
func (h *Handler) ImportState(w http.ResponseWriter, r *http.Request) {
	st, err := factory.Decode(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid state document", err)
		return
	}
	if err := factory.Load(r.Context(), h.Service.Store, st); err != nil {
		writeServiceError(w, "Failed to import state", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"clients": len(st.Clients), "tasks": len(st.Tasks)})
}

// =============================================================================
// HELPERS
// =============================================================================

// decode reads a single JSON object and validates it. On failure the
// response is already written.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, http.StatusBadRequest, "Invalid request body", errors.New("body must contain a single JSON object"))
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:  "Validation failed",
				Fields: validationDetails(ve),
			})
			return false
		}
		var inv *validator.InvalidValidationError
		if !errors.As(err, &inv) {
			writeError(w, http.StatusBadRequest, "Validation failed", err)
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps domain errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case generic.IsNotFound(err):
		status = http.StatusNotFound
	case generic.IsConflict(err):
		status = http.StatusConflict
	case generic.IsClientError(err):
		status = http.StatusBadRequest
	}
	writeError(w, status, message, err)
}

func nonNil(tasks []generic.Task) []generic.Task {
	if tasks == nil {
		return []generic.Task{}
	}
	return tasks
}
