package dashboard

import (
	"errors"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"scamdash/internal/models"
)

const (
	pngHeight     = 512
	pngMinWidth   = 1024
	pngBarWidth   = 40
	pngBarSpacing = 12
)

// errNoData means the selection left nothing to plot
var errNoData = errors.New("no data for the current selection")

// chartBars flattens a chart into go-chart bars. Grouped charts get one bar
// per (group, series) pair labelled "group series".
func chartBars(view *models.DashboardView, id string, threshold decimal.Decimal) ([]chart.Value, bool) {
	var bars []chart.Value
	add := func(label string, value float64, color string) {
		v := chart.Value{Label: label, Value: value}
		if color != "" {
			v.Style = chart.Style{FillColor: hexColor(color), StrokeColor: hexColor(color)}
		}
		bars = append(bars, v)
	}

	switch id {
	case ChartStates:
		for _, r := range view.StateReports {
			add(r.Label, float64(r.Reports), "#F28E2B")
		}
	case ChartAgeGender:
		for _, r := range view.AgeGender {
			add(r.AgeGroup+" "+r.Gender, float64(r.Reports), genderColors[r.Gender])
		}
	case ChartCategories:
		for _, r := range view.CategoryTypes {
			add(r.Label, float64(r.Reports), colorLoss)
		}
	case ChartStateAge:
		for _, r := range view.StateAgeLoss {
			add(r.State+" "+r.AgeGroup, r.AmountLost.InexactFloat64(), "")
		}
	case ChartScamTypes, ChartScamTypesHigh, ChartScamTypesLow:
		color := colorLoss
		switch id {
		case ChartScamTypesHigh:
			color = colorLossHigh
		case ChartScamTypesLow:
			color = colorLossLow
		}
		for _, r := range lossRows(view, id, threshold) {
			add(r.Label, r.AmountLost.InexactFloat64(), color)
		}
	default:
		return nil, false
	}
	return bars, true
}

// renderPNG draws bars as a PNG bar chart
func renderPNG(w io.Writer, title string, bars []chart.Value) error {
	top := maxValue(bars)
	if top <= 0 {
		return errNoData
	}

	width := len(bars)*(pngBarWidth+pngBarSpacing) + 160
	if width < pngMinWidth {
		width = pngMinWidth
	}

	graph := chart.BarChart{
		Title:      title,
		Width:      width,
		Height:     pngHeight,
		BarWidth:   pngBarWidth,
		BarSpacing: pngBarSpacing,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return humanize.Comma(int64(f))
				}
				return ""
			},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, w)
}

func maxValue(bars []chart.Value) float64 {
	top := 0.0
	for _, b := range bars {
		if b.Value > top {
			top = b.Value
		}
	}
	return top
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
