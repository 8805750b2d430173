package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"strmsync/internal/logging"
	"strmsync/internal/runner"
	"strmsync/internal/services"
	"strmsync/internal/task"
)

// Submitter is the runner surface the API needs: enqueue a task and report
// runner state.
type Submitter interface {
	Submit(ctx context.Context, t task.Task) (*task.Run, error)
	Stat() runner.Status
}

// API serves task management and run inspection over HTTP.
type API struct {
	store  *task.Store
	runner Submitter
	logger *slog.Logger
}

// NewAPI builds the HTTP API around a store and a runner.
func NewAPI(store *task.Store, submitter Submitter, logger *slog.Logger) *API {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &API{store: store, runner: submitter, logger: logger}
}

// Router wires all API routes.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/health", a.health).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks", a.listTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks", a.createTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{id}", a.getTask).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{id}", a.updateTask).Methods(http.MethodPut)
	r.HandleFunc("/api/tasks/{id}", a.deleteTask).Methods(http.MethodDelete)
	r.HandleFunc("/api/tasks/{id}/run", a.triggerRun).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{id}/runs", a.listRuns).Methods(http.MethodGet)
	r.HandleFunc("/api/runs/{id}", a.getRun).Methods(http.MethodGet)
	return r
}

// healthResponse is the health endpoint payload.
type healthResponse struct {
	Status  string        `json:"status"`
	Runner  runner.Status `json:"runner"`
	LastRun *task.Run     `json:"last_run,omitempty"`
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	last, err := a.store.LatestRun(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Runner:  a.runner.Stat(),
		LastRun: last,
	})
}

func (a *API) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := a.store.ListTasks(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, tasks)
}

func (a *API) createTask(w http.ResponseWriter, r *http.Request) {
	var t task.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		http.Error(w, "invalid task payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	created, err := a.store.CreateTask(r.Context(), t)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusCreated, created)
}

func (a *API) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := a.taskID(w, r)
	if !ok {
		return
	}
	t, err := a.store.GetTask(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, t)
}

func (a *API) updateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := a.taskID(w, r)
	if !ok {
		return
	}
	var t task.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		http.Error(w, "invalid task payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	t.ID = id
	updated, err := a.store.UpdateTask(r.Context(), t)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, updated)
}

func (a *API) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := a.taskID(w, r)
	if !ok {
		return
	}
	if err := a.store.DeleteTask(r.Context(), id); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) triggerRun(w http.ResponseWriter, r *http.Request) {
	id, ok := a.taskID(w, r)
	if !ok {
		return
	}
	t, err := a.store.GetTask(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	run, err := a.runner.Submit(r.Context(), *t)
	if err != nil {
		// Duplicate submission and a full queue are conflicts, not caller
		// mistakes.
		if errors.Is(err, services.ErrValidation) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusAccepted, run)
}

func (a *API) listRuns(w http.ResponseWriter, r *http.Request) {
	id, ok := a.taskID(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	runs, err := a.store.ListRuns(r.Context(), id, limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, runs)
}

func (a *API) getRun(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimSpace(mux.Vars(r)["id"])
	if runID == "" {
		http.Error(w, "run id is required", http.StatusBadRequest)
		return
	}
	run, err := a.store.GetRun(r.Context(), runID)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, run)
}

func (a *API) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		http.Error(w, "task id must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Warn("encode response", logging.Error(err))
	}
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}
