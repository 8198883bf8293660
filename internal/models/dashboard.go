package models

import "github.com/shopspring/decimal"

// KPIs contains the three summary counters shown above the charts
type KPIs struct {
	TotalReports int64           `json:"total_reports"`
	TotalLoss    decimal.Decimal `json:"total_loss"`
	Population   int64           `json:"population"` // configured constant, not derived from data
}

// CountRow is one bar of a report-count aggregate
type CountRow struct {
	Label   string `json:"label"`
	Reports int64  `json:"reports"`
}

// AgeGenderRow is one (age group, gender) bar
type AgeGenderRow struct {
	AgeGroup string `json:"age_group"`
	Gender   string `json:"gender"`
	Reports  int64  `json:"reports"`
}

// StateAgeLossRow is one (state, age group) bar of amount lost
type StateAgeLossRow struct {
	State      string          `json:"state"`
	AgeGroup   string          `json:"age_group"`
	AmountLost decimal.Decimal `json:"amount_lost"`
}

// LossRow is one bar of an amount-lost aggregate
type LossRow struct {
	Label      string          `json:"label"`
	AmountLost decimal.Decimal `json:"amount_lost"`
}

// StateTotal is a state's total loss and its 1-based rank
type StateTotal struct {
	State      string          `json:"state"`
	AmountLost decimal.Decimal `json:"amount_lost"`
	Rank       int             `json:"rank"`
}

// Drilldown holds the scam-type loss table split at a fixed threshold
type Drilldown struct {
	Threshold decimal.Decimal `json:"threshold"`
	High      []LossRow       `json:"high"` // >= threshold
	Low       []LossRow       `json:"low"`  // < threshold
}

// FilterOptions lists the values the filter widgets may offer
type FilterOptions struct {
	States     []string `json:"states"`
	Categories []string `json:"categories"`
	AgeGroups  []string `json:"age_groups"`
}

// DashboardView is everything one render pass needs
type DashboardView struct {
	Selection Selection     `json:"selection"` // resolved, defaults applied
	Options   FilterOptions `json:"options"`
	UI        UIState       `json:"ui"`
	KPIs      KPIs          `json:"kpis"`

	StateReports  []CountRow        `json:"state_reports"`
	AgeGender     []AgeGenderRow    `json:"age_gender"`
	CategoryTypes []CountRow        `json:"category_types"`
	StateAgeLoss  []StateAgeLossRow `json:"state_age_loss"`
	ScamTypeLoss  []LossRow         `json:"scam_type_loss"`
	Drilldown     *Drilldown        `json:"drilldown,omitempty"` // nil unless UI.Drilldown
}

// ChartData represents one Plotly trace
type ChartData struct {
	Type        string      `json:"type"` // bar, treemap
	X           interface{} `json:"x,omitempty"`
	Y           interface{} `json:"y,omitempty"`
	Labels      []string    `json:"labels,omitempty"`  // treemap
	Parents     []string    `json:"parents,omitempty"` // treemap
	Values      []float64   `json:"values,omitempty"`  // treemap
	Name        string      `json:"name,omitempty"`
	Orientation string      `json:"orientation,omitempty"` // "h" for horizontal bars
	Marker      *Marker     `json:"marker,omitempty"`
}

// Marker sets trace colors
type Marker struct {
	Color      interface{} `json:"color,omitempty"`
	Colors     []float64   `json:"colors,omitempty"` // treemap tiles
	Colorscale string      `json:"colorscale,omitempty"`
}

// ChartResponse wraps chart data with layout options
type ChartResponse struct {
	Data   []ChartData `json:"data"`
	Layout ChartLayout `json:"layout"`
}

// ChartLayout defines Plotly layout options
type ChartLayout struct {
	Title      string `json:"title,omitempty"`
	XAxisTitle string `json:"xaxis_title,omitempty"`
	YAxisTitle string `json:"yaxis_title,omitempty"`
	BarMode    string `json:"barmode,omitempty"` // group, stack
	ShowLegend bool   `json:"showlegend"`
	LeftMargin int    `json:"left_margin,omitempty"`
}
