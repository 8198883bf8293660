package dashboard

import (
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"scamdash/internal/models"
	"scamdash/internal/services/aggregate"
)

// Chart ids accepted by the chart, PNG and export routes
const (
	ChartStates        = "states"
	ChartAgeGender     = "age-gender"
	ChartCategories    = "categories"
	ChartStateAge      = "state-age"
	ChartScamTypes     = "scam-types"
	ChartScamTypesHigh = "scam-types-high"
	ChartScamTypesLow  = "scam-types-low"
)

// ChartIDs lists every chart in page order
var ChartIDs = []string{
	ChartStates, ChartAgeGender, ChartCategories, ChartStateAge,
	ChartScamTypes, ChartScamTypesHigh, ChartScamTypesLow,
}

// Trace colors
const (
	colorMale       = "#87CEFA"
	colorFemale     = "#e377c2"
	colorLoss       = "#EF553B"
	colorLossHigh   = "#FFD700"
	colorLossLow    = "#FFDAB9"
	stateColorscale = "Oranges"
)

var genderColors = map[string]string{"Male": colorMale, "Female": colorFemale}

// ThresholdLabel renders the drill-down threshold compactly, e.g. "$1M"
func ThresholdLabel(threshold decimal.Decimal) string {
	value, unit := humanize.ComputeSI(threshold.InexactFloat64())
	return "$" + humanize.FtoaWithDigits(value, 2) + unit
}

// ChartTitle returns the panel heading for a chart id
func ChartTitle(id string, threshold decimal.Decimal) string {
	switch id {
	case ChartStates:
		return "Scam Reports by State"
	case ChartAgeGender:
		return "Scam Reports by Age Group and Gender"
	case ChartCategories:
		return "Number of Reports by Scam Category and Scam Type"
	case ChartStateAge:
		return "Total Amount Lost by State and Age Group"
	case ChartScamTypes:
		return "Total Amount Lost by Scam Type"
	case ChartScamTypesHigh:
		return "Scam Types with Losses ≥ " + ThresholdLabel(threshold)
	case ChartScamTypesLow:
		return "Scam Types with Losses < " + ThresholdLabel(threshold)
	}
	return ""
}

// lossRows returns the scam-type rows a loss chart plots
func lossRows(view *models.DashboardView, id string, threshold decimal.Decimal) []models.LossRow {
	if id == ChartScamTypes {
		return view.ScamTypeLoss
	}
	high, low := aggregate.SplitAtThreshold(view.ScamTypeLoss, threshold)
	if id == ChartScamTypesHigh {
		return high
	}
	return low
}

// buildChart converts one aggregate of the view into a Plotly figure.
// ok is false for an unknown chart id.
func buildChart(view *models.DashboardView, id string, threshold decimal.Decimal) (resp models.ChartResponse, ok bool) {
	resp.Layout.Title = ChartTitle(id, threshold)

	switch id {
	case ChartStates:
		resp.Data = []models.ChartData{buildStatesTreemap(view.StateReports)}

	case ChartAgeGender:
		resp.Data = buildAgeGenderTraces(view.AgeGender)
		resp.Layout.BarMode = "group"
		resp.Layout.ShowLegend = true
		resp.Layout.XAxisTitle = "Age Group"
		resp.Layout.YAxisTitle = "Number of Reports"

	case ChartCategories:
		resp.Data = []models.ChartData{{
			Type:        "bar",
			Orientation: "h",
			X:           lo.Map(view.CategoryTypes, func(r models.CountRow, _ int) int64 { return r.Reports }),
			Y:           lo.Map(view.CategoryTypes, func(r models.CountRow, _ int) string { return r.Label }),
			Marker:      &models.Marker{Color: colorLoss},
		}}
		resp.Layout.XAxisTitle = "Number of Reports"
		resp.Layout.LeftMargin = 40

	case ChartStateAge:
		resp.Data = buildStateAgeTraces(view.StateAgeLoss)
		resp.Layout.BarMode = "group"
		resp.Layout.ShowLegend = true
		resp.Layout.XAxisTitle = "State"
		resp.Layout.YAxisTitle = "Total Amount Lost"

	case ChartScamTypes, ChartScamTypesHigh, ChartScamTypesLow:
		color := map[string]string{
			ChartScamTypes:     colorLoss,
			ChartScamTypesHigh: colorLossHigh,
			ChartScamTypesLow:  colorLossLow,
		}[id]
		resp.Data = []models.ChartData{buildLossBars(lossRows(view, id, threshold), color)}
		resp.Layout.XAxisTitle = "Total Amount Lost ($)"
		resp.Layout.YAxisTitle = "Scam Type"
		resp.Layout.LeftMargin = 200

	default:
		return resp, false
	}

	return resp, true
}

func buildStatesTreemap(rows []models.CountRow) models.ChartData {
	values := lo.Map(rows, func(r models.CountRow, _ int) float64 { return float64(r.Reports) })
	return models.ChartData{
		Type:    "treemap",
		Labels:  lo.Map(rows, func(r models.CountRow, _ int) string { return r.Label }),
		Parents: make([]string, len(rows)),
		Values:  values,
		Marker:  &models.Marker{Colors: values, Colorscale: stateColorscale},
	}
}

// buildAgeGenderTraces emits one trace per gender: Male, Female, then the rest alphabetically
func buildAgeGenderTraces(rows []models.AgeGenderRow) []models.ChartData {
	seen := lo.Uniq(lo.Map(rows, func(r models.AgeGenderRow, _ int) string { return r.Gender }))
	others := lo.Without(seen, "Male", "Female")
	sort.Strings(others)
	genders := append(lo.Filter([]string{"Male", "Female"}, func(g string, _ int) bool {
		return lo.Contains(seen, g)
	}), others...)

	traces := make([]models.ChartData, 0, len(genders))
	for _, gender := range genders {
		matching := lo.Filter(rows, func(r models.AgeGenderRow, _ int) bool { return r.Gender == gender })
		trace := models.ChartData{
			Type: "bar",
			Name: gender,
			X:    lo.Map(matching, func(r models.AgeGenderRow, _ int) string { return r.AgeGroup }),
			Y:    lo.Map(matching, func(r models.AgeGenderRow, _ int) int64 { return r.Reports }),
		}
		if color, ok := genderColors[gender]; ok {
			trace.Marker = &models.Marker{Color: color}
		}
		traces = append(traces, trace)
	}
	return traces
}

// buildStateAgeTraces emits one trace per age group
func buildStateAgeTraces(rows []models.StateAgeLossRow) []models.ChartData {
	ages := lo.Uniq(lo.Map(rows, func(r models.StateAgeLossRow, _ int) string { return r.AgeGroup }))
	sort.Strings(ages)

	traces := make([]models.ChartData, 0, len(ages))
	for _, age := range ages {
		matching := lo.Filter(rows, func(r models.StateAgeLossRow, _ int) bool { return r.AgeGroup == age })
		traces = append(traces, models.ChartData{
			Type: "bar",
			Name: age,
			X:    lo.Map(matching, func(r models.StateAgeLossRow, _ int) string { return r.State }),
			Y:    lo.Map(matching, func(r models.StateAgeLossRow, _ int) float64 { return r.AmountLost.InexactFloat64() }),
		})
	}
	return traces
}

func buildLossBars(rows []models.LossRow, color string) models.ChartData {
	return models.ChartData{
		Type:        "bar",
		Orientation: "h",
		X:           lo.Map(rows, func(r models.LossRow, _ int) float64 { return r.AmountLost.InexactFloat64() }),
		Y:           lo.Map(rows, func(r models.LossRow, _ int) string { return r.Label }),
		Marker:      &models.Marker{Color: color},
	}
}
