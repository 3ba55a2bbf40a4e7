package http

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "scadapulse/internal/errors"
	api "scadapulse/pkg/contracts/api/v1"
	"scadapulse/pkg/contracts/domain"
)

type contextKey string

const dayContextKey contextKey = "report_day"

// ReportsHandler serves the outputs of finished runs.
type ReportsHandler struct {
	service      ReportService
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewReportsHandler creates a new reports handler
func NewReportsHandler(service ReportService, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ReportsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}
	return &ReportsHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "reports")),
	}
}

// Routes returns the report routes
func (h *ReportsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/days", h.ListDays)
	r.Route("/{day}", func(r chi.Router) {
		r.Use(h.DayCtx)
		r.Group(func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Get("/summary", h.GetSummary)
			r.Get("/units/{unit}", h.GetUnit)
			r.Get("/forecast", h.GetForecast)
			r.Get("/alerts", h.GetAlerts)
			r.Get("/narrative", h.GetNarrative)
		})
		r.Get("/files/{format}", h.DownloadFile)
	})
	return r
}

// DayCtx parses the {day} parameter into the request context.
func (h *ReportsHandler) DayCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		day, err := h.service.ParseDay(chi.URLParam(r, "day"))
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("day", "must be yyyy-mm-dd"))
			return
		}
		ctx := context.WithValue(r.Context(), dayContextKey, day)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func dayFromContext(ctx context.Context) time.Time {
	day, _ := ctx.Value(dayContextKey).(time.Time)
	return day
}

// ListDays returns the days that have a report, newest first.
func (h *ReportsHandler) ListDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.service.Days(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"days":  days,
		"count": len(days),
	})
}

// GetSummary returns the per-unit summary of a day.
func (h *ReportsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	day := dayFromContext(r.Context())
	summary, err := h.service.Summary(r.Context(), day)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.SummaryResponse{
		Day:   day.Format(domain.DayLayout),
		Units: summary.Len(),
		Data:  summary,
	})
}

// GetUnit returns the summary of one unit on a day.
func (h *ReportsHandler) GetUnit(w http.ResponseWriter, r *http.Request) {
	day := dayFromContext(r.Context())
	unit := chi.URLParam(r, "unit")
	summary, err := h.service.Summary(r.Context(), day)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	s, ok := summary.Get(unit)
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.NotFoundError("unit "+unit))
		return
	}
	render.JSON(w, r, s)
}

// GetForecast returns the next-day forecast built from a day.
func (h *ReportsHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	day := dayFromContext(r.Context())
	result, err := h.service.Forecast(r.Context(), day)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.ForecastResponse{
		Day:    day.Format(domain.DayLayout),
		Points: len(result.Forecast),
		Data:   result.Forecast,
	})
}

// GetAlerts returns the ramp alerts of a day's forecast.
func (h *ReportsHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	day := dayFromContext(r.Context())
	result, err := h.service.Forecast(r.Context(), day)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.AlertsResponse{
		Day:    day.Format(domain.DayLayout),
		Alerts: len(result.Alerts),
		Data:   result.Alerts,
	})
}

// GetNarrative returns the operator status text of a day.
func (h *ReportsHandler) GetNarrative(w http.ResponseWriter, r *http.Request) {
	day := dayFromContext(r.Context())
	text, err := h.service.Narrative(r.Context(), day)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.NarrativeResponse{
		Day:  day.Format(domain.DayLayout),
		Text: text,
	})
}

// DownloadFile streams one of the stored documents of a day.
func (h *ReportsHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	day := dayFromContext(r.Context())
	path, err := h.service.DocumentPath(day, chi.URLParam(r, "format"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}
