package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "scadapulse/internal/errors"
	"scadapulse/internal/middleware"
	"scadapulse/internal/operations"
	api "scadapulse/pkg/contracts/api/v1"
	"scadapulse/pkg/contracts/domain"
	"scadapulse/pkg/contracts/events"
)

const defaultRunListLimit = 20

var runStatuses = []string{
	events.StatusPending,
	events.StatusRunning,
	events.StatusCompleted,
	events.StatusFailed,
	events.StatusCancelled,
}

// RunsHandler handles run-related HTTP requests
type RunsHandler struct {
	service      RunService
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(service RunService, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *RunsHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = middleware.NewValidator()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &RunsHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "runs")),
	}
}

// Routes returns the run routes
func (h *RunsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.With(middleware.ContentTypeValidator("application/json")).Post("/", h.StartRun)
	r.Get("/", h.ListRuns)
	r.Get("/{id}", h.GetRun)
	r.Delete("/{id}", h.CancelRun)
	return r
}

// StartRun accepts a run request and starts it in the background.
func (h *RunsHandler) StartRun(w http.ResponseWriter, r *http.Request) {
	var req api.RunRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	runReq := operations.RunRequest{
		Units:     req.Units,
		Mode:      req.Mode,
		Documents: req.Documents,
		Trigger:   operations.TriggerAPI,
	}
	if req.Day != "" {
		day, err := time.ParseInLocation(domain.DayLayout, req.Day, h.service.Location())
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("day", "must be yyyy-mm-dd"))
			return
		}
		runReq.Day = day
	}

	snap, err := h.service.Submit(r.Context(), runReq)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "run accepted",
		slog.String("request_id", chimw.GetReqID(r.Context())),
		slog.String("run_id", snap.RunID),
		slog.String("day", snap.Day))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, api.RunResponse{Run: snap})
}

// ListRuns lists runs newest first, optionally filtered by status.
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := middleware.QueryInt(r, "limit", 1, 100, defaultRunListLimit)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	status, err := middleware.QueryEnum(r, "status", runStatuses, "")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	// Filtering happens after the store lookup, so fetch everything when
	// a status is requested and cut to limit afterwards.
	fetch := limit
	if status != "" {
		fetch = 0
	}
	runs, err := h.service.List(r.Context(), fetch)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	out := make([]events.RunSnapshot, 0, len(runs))
	for _, run := range runs {
		if status != "" && run.Status != status {
			continue
		}
		out = append(out, run)
		if len(out) == limit {
			break
		}
	}
	render.JSON(w, r, api.RunListResponse{Runs: out, Count: len(out)})
}

// GetRun returns one run snapshot.
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.RunResponse{Run: snap})
}

// CancelRun cancels an active run. The run finishes as cancelled once the
// current stage observes the cancellation.
func (h *RunsHandler) CancelRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if err := h.service.Cancel(runID); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "run cancellation requested",
		slog.String("request_id", chimw.GetReqID(r.Context())),
		slog.String("run_id", runID))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]interface{}{
		"run_id": runID,
		"status": "cancelling",
	})
}
