package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"crimecast/internal/chart"
	"crimecast/internal/config"
	apierrors "crimecast/internal/errors"
	mw "crimecast/internal/middleware"
	api "crimecast/pkg/contracts/api/v1"
	"crimecast/pkg/contracts/domain"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePNG  = "image/png"

	minChartSide = 200
	maxChartSide = 4096
)

var chartKinds = []string{string(chart.KindForecast), string(chart.KindYoY), string(chart.KindDistribution)}

// ForecastHandler serves the selection and presentation endpoints
type ForecastHandler struct {
	service        ForecastServiceInterface
	validator      *mw.QueryParamValidator
	errorHandler   *apierrors.ErrorHandler
	defaultHorizon int
	logger         *slog.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(service ForecastServiceInterface, defaultHorizon int, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ForecastHandler {
	if defaultHorizon < config.MinHorizon || defaultHorizon > config.MaxHorizon {
		defaultHorizon = config.DefaultHorizon
	}
	return &ForecastHandler{
		service:        service,
		validator:      mw.NewQueryParamValidator(logger, errorHandler),
		errorHandler:   errorHandler,
		defaultHorizon: defaultHorizon,
		logger:         logger.With(slog.String("component", "forecast_handler")),
	}
}

// StateRoutes returns the routes mounted at /api/states
func (h *ForecastHandler) StateRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/", h.ListStates)
	r.Get("/{state}/categories", h.ListCategories)
	return r
}

// ForecastRoutes returns the routes mounted at /api/forecast
func (h *ForecastHandler) ForecastRoutes() chi.Router {
	r := chi.NewRouter()
	r.With(render.SetContentType(render.ContentTypeJSON)).Get("/", h.GetForecast)
	r.Get("/chart.png", h.GetChart)
	r.Get("/export.csv", h.ExportCSV)
	r.Get("/export.xlsx", h.ExportXLSX)
	return r
}

// ListStates handles GET /api/states
func (h *ForecastHandler) ListStates(w http.ResponseWriter, r *http.Request) {
	states := h.service.States(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"states": states,
		"count":  len(states),
	})
}

// ListCategories handles GET /api/states/{state}/categories
func (h *ForecastHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	state := strings.TrimSpace(chi.URLParam(r, "state"))
	if state == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("state", "state is required"))
		return
	}

	categories, err := h.service.Categories(r.Context(), state)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"state":      state,
		"categories": categories,
		"count":      len(categories),
	})
}

// GetForecast handles GET /api/forecast?state=&category=&horizon=
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.parseSelection(w, r)
	if !ok {
		return
	}

	report, err := h.service.Forecast(r.Context(), sel)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "forecast served",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("state", sel.State),
		slog.String("category", sel.Category),
		slog.Int("horizon", sel.Horizon),
		slog.Int("warnings", len(report.Warnings)),
	)
	render.JSON(w, r, report)
}

// GetChart handles GET /api/forecast/chart.png?kind=forecast|yoy|distribution
func (h *ForecastHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.parseSelection(w, r)
	if !ok {
		return
	}
	kind, ok := h.validator.ValidateEnum(w, r, "kind", chartKinds, string(chart.KindForecast))
	if !ok {
		return
	}

	opts := chart.DefaultOptions()
	if opts.Width, ok = h.validator.ValidateInt(w, r, "width", minChartSide, maxChartSide, opts.Width); !ok {
		return
	}
	if opts.Height, ok = h.validator.ValidateInt(w, r, "height", minChartSide, maxChartSide, opts.Height); !ok {
		return
	}

	h.writeBuffered(w, r, contentTypePNG, "", func(ctx context.Context, out io.Writer) error {
		return h.service.Chart(ctx, sel, chart.Kind(kind), opts, out)
	})
}

// ExportCSV handles GET /api/forecast/export.csv
func (h *ForecastHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.parseSelection(w, r)
	if !ok {
		return
	}
	h.writeBuffered(w, r, contentTypeCSV, exportFilename(sel, "csv"), func(ctx context.Context, out io.Writer) error {
		return h.service.ExportCSV(ctx, sel, out)
	})
}

// ExportXLSX handles GET /api/forecast/export.xlsx
func (h *ForecastHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.parseSelection(w, r)
	if !ok {
		return
	}
	h.writeBuffered(w, r, contentTypeXLSX, exportFilename(sel, "xlsx"), func(ctx context.Context, out io.Writer) error {
		return h.service.ExportXLSX(ctx, sel, out)
	})
}

// parseSelection reads and validates the selection query parameters
func (h *ForecastHandler) parseSelection(w http.ResponseWriter, r *http.Request) (domain.Selection, bool) {
	horizon, ok := h.validator.ValidateInt(w, r, "horizon", config.MinHorizon, config.MaxHorizon, h.defaultHorizon)
	if !ok {
		return domain.Selection{}, false
	}

	q := api.ForecastQuery{
		State:    strings.TrimSpace(r.URL.Query().Get("state")),
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Horizon:  horizon,
	}
	if !h.validator.ValidateStruct(w, r, q) {
		return domain.Selection{}, false
	}
	return q.Selection(), true
}

// writeBuffered renders into memory first so a failure still produces a
// problem response instead of a truncated body
func (h *ForecastHandler) writeBuffered(w http.ResponseWriter, r *http.Request, contentType, filename string, fn func(context.Context, io.Writer) error) {
	var buf bytes.Buffer
	if err := fn(r.Context(), &buf); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write response body",
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
	}
}

// exportFilename builds e.g. forecast_alpha_murder_h3.csv, matching the
// names the CLI writes
func exportFilename(sel domain.Selection, ext string) string {
	name := "forecast_" + config.Slug(sel.State)
	if sel.Category != "" {
		name += "_" + config.Slug(sel.Category)
	}
	return fmt.Sprintf("%s_h%d.%s", name, sel.Horizon, ext)
}
