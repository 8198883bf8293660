package dashboard

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"scamdash/internal/models"
)

// chartTable flattens a chart's aggregate into CSV header and rows.
// Money keeps its exact decimal value with two places.
func chartTable(view *models.DashboardView, id string, threshold decimal.Decimal) (header []string, rows [][]string, ok bool) {
	count := func(n int64) string { return strconv.FormatInt(n, 10) }
	money := func(d decimal.Decimal) string { return d.StringFixed(2) }

	switch id {
	case ChartStates:
		header = []string{"State", "Number of Reports"}
		for _, r := range view.StateReports {
			rows = append(rows, []string{r.Label, count(r.Reports)})
		}
	case ChartAgeGender:
		header = []string{"Age Group", "Gender", "Number of Reports"}
		for _, r := range view.AgeGender {
			rows = append(rows, []string{r.AgeGroup, r.Gender, count(r.Reports)})
		}
	case ChartCategories:
		header = []string{"Scam Category / Scam Type", "Number of Reports"}
		for _, r := range view.CategoryTypes {
			rows = append(rows, []string{r.Label, count(r.Reports)})
		}
	case ChartStateAge:
		header = []string{"State", "Age Group", "Amount Lost"}
		for _, r := range view.StateAgeLoss {
			rows = append(rows, []string{r.State, r.AgeGroup, money(r.AmountLost)})
		}
	case ChartScamTypes, ChartScamTypesHigh, ChartScamTypesLow:
		header = []string{"Scam Type", "Amount Lost"}
		for _, r := range lossRows(view, id, threshold) {
			rows = append(rows, []string{r.Label, money(r.AmountLost)})
		}
	default:
		return nil, nil, false
	}
	return header, rows, true
}

// writeCSV encodes a table into a CSV document
func writeCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(header); err != nil {
		return nil, err
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportFilename(id string) string {
	return fmt.Sprintf("scamdash_%s.csv", id)
}
