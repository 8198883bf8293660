package aggregate

import (
	"github.com/shopspring/decimal"

	"scamdash/internal/config"
	"scamdash/internal/models"
)

// Options are the dashboard constants a render pass depends on
type Options struct {
	Population   int64
	Threshold    decimal.Decimal
	StateMeasure config.StateMeasure
}

// OptionsFromConfig copies the dashboard constants out of the configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Population:   cfg.Population,
		Threshold:    decimal.NewFromInt(cfg.DrilldownThreshold),
		StateMeasure: cfg.StateMeasure,
	}
}

// Service provides the render pass over an immutable record set
type Service struct {
	records *models.RecordSet
	opts    Options
}

// New creates a new aggregation service
func New(records *models.RecordSet, opts Options) *Service {
	if records == nil {
		records = models.NewRecordSet(nil)
	}
	return &Service{records: records, opts: opts}
}

// Records returns the full, unfiltered record set
func (s *Service) Records() *models.RecordSet {
	return s.records
}

// Options returns the service's dashboard constants
func (s *Service) Options() Options {
	return s.opts
}

// Build recomputes the whole dashboard for one selection
func (s *Service) Build(sel models.Selection, ui models.UIState) *models.DashboardView {
	return Build(s.records, sel, ui, s.opts)
}

// ResolveSelection fills unset dimensions with their defaults and returns the
// option lists the filter widgets offer. Category and age options come from
// the state-filtered set.
func ResolveSelection(records *models.RecordSet, sel models.Selection) (models.Selection, models.FilterOptions, *models.RecordSet) {
	opts := models.FilterOptions{States: records.States()}
	if sel.States == nil {
		sel.States = opts.States
	}

	filtered := ApplyStateFilter(records, models.NewStringSet(sel.States...))
	opts.Categories = filtered.Categories()
	opts.AgeGroups = filtered.AgeGroups()

	if sel.Categories == nil {
		if sel.AllCategories {
			sel.Categories = opts.Categories
		} else {
			sel.Categories = []string{}
		}
	}
	if sel.AgeGroups == nil {
		sel.AgeGroups = opts.AgeGroups
	}

	return sel, opts, filtered
}

// Build runs every aggregate top-to-bottom: state filter, defaults, KPIs,
// the five charts, and the drill-down split when it is visible
func Build(records *models.RecordSet, sel models.Selection, ui models.UIState, opts Options) *models.DashboardView {
	sel, options, filtered := ResolveSelection(records, sel)

	categories := models.NewStringSet(sel.Categories...)
	ageGroups := models.NewStringSet(sel.AgeGroups...)

	view := &models.DashboardView{
		Selection:     sel,
		Options:       options,
		UI:            ui,
		KPIs:          ComputeKPIs(filtered, opts.Population),
		StateReports:  StateReports(filtered, opts.StateMeasure),
		AgeGender:     AgeGenderReports(filtered, ageGroups),
		CategoryTypes: CategoryTypeReports(filtered, categories),
		StateAgeLoss:  StateAgeLoss(filtered, ageGroups, sel.Bucket()),
		ScamTypeLoss:  ScamTypeLoss(filtered),
	}

	if ui.Drilldown {
		high, low := SplitAtThreshold(view.ScamTypeLoss, opts.Threshold)
		view.Drilldown = &models.Drilldown{Threshold: opts.Threshold, High: high, Low: low}
	}

	return view
}
