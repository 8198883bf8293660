package dashboard

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	apphttp "scamdash/internal/http"
	"scamdash/internal/models"
	"scamdash/internal/services/aggregate"
	"scamdash/internal/services/metrics"
	"scamdash/internal/services/session"
	"scamdash/internal/templates"
)

var (
	service  *aggregate.Service
	sessions *session.Store
	renderer *templates.Renderer
)

// ChartPanel is one chart slot on the page
type ChartPanel struct {
	ID    string
	Title string
}

// Initialize sets up the dashboard package with required dependencies
func Initialize(s *aggregate.Service, st *session.Store, r *templates.Renderer) {
	service = s
	sessions = st
	renderer = r
}

// RegisterRoutes registers all dashboard routes
func RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", handleDashboard)
	r.Get("/dashboard/kpis", handleKPIsPartial)
	r.Get("/dashboard/charts/data/{chart}", handleChartData)
	r.Get("/dashboard/charts/png/{chart}", handleChartPNG)
	r.Get("/dashboard/export/{chart}", handleExport)
	r.Post("/dashboard/drilldown", handleDrilldownToggle)
}

// buildView runs one render pass for the request's selection and session
func buildView(r *http.Request, view string) *models.DashboardView {
	defer metrics.ObserveRender(view)()

	sel := apphttp.ParseSelection(r.URL.Query())
	return service.Build(sel, sessions.Lookup(r))
}

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	view := buildView(r, "dashboard")
	threshold := service.Options().Threshold

	panels := lo.Map([]string{ChartStates, ChartAgeGender, ChartCategories, ChartStateAge, ChartScamTypes},
		func(id string, _ int) ChartPanel {
			return ChartPanel{ID: id, Title: ChartTitle(id, threshold)}
		})
	drilldownPanels := lo.Map([]string{ChartScamTypesHigh, ChartScamTypesLow},
		func(id string, _ int) ChartPanel {
			return ChartPanel{ID: id, Title: ChartTitle(id, threshold)}
		})

	pageData := map[string]interface{}{
		"Title":           "Australia Scam Cases Dashboard",
		"View":            view,
		"Query":           template.URL(apphttp.EncodeSelection(view.Selection).Encode()),
		"Charts":          panels,
		"DrilldownCharts": drilldownPanels,
		"ThresholdLabel":  ThresholdLabel(threshold),
	}

	apphttp.RenderTemplate(w, renderer, "dashboard.html", pageData)
}

func handleKPIsPartial(w http.ResponseWriter, r *http.Request) {
	view := buildView(r, "kpis")

	if renderer == nil {
		apphttp.JSONResponse(w, view.KPIs, http.StatusOK)
		return
	}
	apphttp.RenderPartial(w, renderer, "kpis", map[string]interface{}{"KPIs": view.KPIs})
}

func handleChartData(w http.ResponseWriter, r *http.Request) {
	chartID := chi.URLParam(r, "chart")
	if !lo.Contains(ChartIDs, chartID) {
		apphttp.ErrorResponse(w, "Unknown chart type", http.StatusBadRequest)
		return
	}

	view := buildView(r, "chart")
	resp, _ := buildChart(view, chartID, service.Options().Threshold)
	apphttp.JSONResponse(w, resp, http.StatusOK)
}

func handleChartPNG(w http.ResponseWriter, r *http.Request) {
	chartID := chi.URLParam(r, "chart")
	if !lo.Contains(ChartIDs, chartID) {
		apphttp.ErrorResponse(w, "Unknown chart type", http.StatusBadRequest)
		return
	}

	view := buildView(r, "png")
	threshold := service.Options().Threshold
	bars, _ := chartBars(view, chartID, threshold)

	var buf bytes.Buffer
	if err := renderPNG(&buf, ChartTitle(chartID, threshold), bars); err != nil {
		if errors.Is(err, errNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		apphttp.ErrorResponse(w, "Error rendering chart: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func handleExport(w http.ResponseWriter, r *http.Request) {
	chartID := chi.URLParam(r, "chart")
	if !lo.Contains(ChartIDs, chartID) {
		apphttp.ErrorResponse(w, "Unknown chart type", http.StatusBadRequest)
		return
	}

	view := buildView(r, "export")
	header, rows, _ := chartTable(view, chartID, service.Options().Threshold)

	body, err := writeCSV(header, rows)
	if err != nil {
		apphttp.ErrorResponse(w, "Error writing CSV: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(chartID)))
	w.Write(body)
}

// handleDrilldownToggle flips the session's drill-down panel and sends the
// browser back to the dashboard with the same filters
func handleDrilldownToggle(w http.ResponseWriter, r *http.Request) {
	id := sessions.ID(w, r)
	state := sessions.Toggle(id)
	metrics.DrilldownTogglesTotal.Inc()
	slog.Debug("drill-down toggled", "visible", state.Drilldown)

	target := "/dashboard"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target+"#scam-types", http.StatusSeeOther)
}
