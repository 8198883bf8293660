// Package aggregate computes the dashboard's grouped-and-summed projections.
// Every function is pure: it reads a RecordSet and returns new slices.
package aggregate

import (
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"scamdash/internal/config"
	"scamdash/internal/models"
)

// Bucket rank bounds (1-based, inclusive)
const (
	top3Last     = 3
	bottom5First = 4
	bottom5Last  = 8
)

// genderOrder fixes the display order of known genders; others follow alphabetically
var genderOrder = map[string]int{"Male": 0, "Female": 1}

// ApplyStateFilter returns the records whose state is selected.
// This is the global filter every other aggregate starts from.
func ApplyStateFilter(rs *models.RecordSet, states models.StringSet) *models.RecordSet {
	return rs.FilterByStates(states)
}

// ComputeKPIs sums reports and losses over the given (state-filtered) set
func ComputeKPIs(rs *models.RecordSet, population int64) models.KPIs {
	return models.KPIs{
		TotalReports: rs.SumReports(),
		TotalLoss:    rs.SumAmountLost(),
		Population:   population,
	}
}

// StateReports groups by state and sorts descending by measure.
// With StateMeasureRows each record counts once instead of contributing
// its number_of_reports.
func StateReports(rs *models.RecordSet, measure config.StateMeasure) []models.CountRow {
	totals := make(map[string]int64)
	for _, r := range rs.Records {
		if measure == config.StateMeasureRows {
			totals[r.State]++
		} else {
			totals[r.State] += r.NumberOfReports
		}
	}

	rows := make([]models.CountRow, 0, len(totals))
	for _, state := range sortedKeys(totals) {
		rows = append(rows, models.CountRow{Label: state, Reports: totals[state]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Reports > rows[j].Reports
	})
	return rows
}

// AgeGenderReports sums reports per (age group, gender) over the selected age groups
func AgeGenderReports(rs *models.RecordSet, ageGroups models.StringSet) []models.AgeGenderRow {
	type key struct{ age, gender string }
	totals := make(map[key]int64)
	for _, r := range rs.FilterByAgeGroups(ageGroups).Records {
		totals[key{r.AgeGroup, r.Gender}] += r.NumberOfReports
	}

	rows := make([]models.AgeGenderRow, 0, len(totals))
	for k, v := range totals {
		rows = append(rows, models.AgeGenderRow{AgeGroup: k.age, Gender: k.gender, Reports: v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AgeGroup != rows[j].AgeGroup {
			return rows[i].AgeGroup < rows[j].AgeGroup
		}
		return genderLess(rows[i].Gender, rows[j].Gender)
	})
	return rows
}

// genderLess orders Male, then Female, then any other value alphabetically
func genderLess(a, b string) bool {
	ra, okA := genderOrder[a]
	rb, okB := genderOrder[b]
	switch {
	case okA && okB:
		return ra < rb
	case okA:
		return true
	case okB:
		return false
	default:
		return a < b
	}
}

// CategoryTypeReports sums reports per "category / type" label over the
// selected categories, sorted ascending
func CategoryTypeReports(rs *models.RecordSet, categories models.StringSet) []models.CountRow {
	totals := make(map[string]int64)
	for _, r := range rs.FilterByCategories(categories).Records {
		totals[r.Label()] += r.NumberOfReports
	}

	rows := make([]models.CountRow, 0, len(totals))
	for _, label := range sortedKeys(totals) {
		rows = append(rows, models.CountRow{Label: label, Reports: totals[label]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Reports < rows[j].Reports
	})
	return rows
}

// RankStatesByLoss totals amount lost per state, highest first.
// Equal totals keep alphabetical state order.
func RankStatesByLoss(rs *models.RecordSet) []models.StateTotal {
	totals := make(map[string]decimal.Decimal)
	for _, r := range rs.Records {
		totals[r.State] = totals[r.State].Add(r.AmountLost)
	}

	ranked := make([]models.StateTotal, 0, len(totals))
	for _, state := range sortedKeys(totals) {
		ranked = append(ranked, models.StateTotal{State: state, AmountLost: totals[state]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AmountLost.GreaterThan(ranked[j].AmountLost)
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// BucketStates returns the states kept by a bucket, or ok=false when the
// bucket does not restrict anything
func BucketStates(ranked []models.StateTotal, bucket models.StateBucket) (states models.StringSet, ok bool) {
	var first, last int
	switch bucket {
	case models.BucketTop3:
		first, last = 1, top3Last
	case models.BucketBottom5:
		first, last = bottom5First, bottom5Last
	default:
		return models.StringSet{}, false
	}

	kept := lo.FilterMap(ranked, func(st models.StateTotal, _ int) (string, bool) {
		return st.State, st.Rank >= first && st.Rank <= last
	})
	return models.NewStringSet(kept...), true
}

// StateAgeLoss sums amount lost per (state, age group) over the selected age
// groups, then narrows to the bucket's states ranked on that same set
func StateAgeLoss(rs *models.RecordSet, ageGroups models.StringSet, bucket models.StateBucket) []models.StateAgeLossRow {
	aged := rs.FilterByAgeGroups(ageGroups)

	if states, ok := BucketStates(RankStatesByLoss(aged), bucket); ok {
		aged = aged.FilterByStates(states)
	}

	type key struct{ state, age string }
	totals := make(map[key]decimal.Decimal)
	for _, r := range aged.Records {
		k := key{r.State, r.AgeGroup}
		totals[k] = totals[k].Add(r.AmountLost)
	}

	rows := make([]models.StateAgeLossRow, 0, len(totals))
	for k, v := range totals {
		rows = append(rows, models.StateAgeLossRow{State: k.state, AgeGroup: k.age, AmountLost: v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].State != rows[j].State {
			return rows[i].State < rows[j].State
		}
		return rows[i].AgeGroup < rows[j].AgeGroup
	})
	return rows
}

// ScamTypeLoss sums amount lost per scam type, sorted ascending
func ScamTypeLoss(rs *models.RecordSet) []models.LossRow {
	totals := make(map[string]decimal.Decimal)
	for _, r := range rs.Records {
		scamType := strings.TrimSpace(r.ScamType)
		totals[scamType] = totals[scamType].Add(r.AmountLost)
	}

	rows := make([]models.LossRow, 0, len(totals))
	for _, scamType := range sortedKeys(totals) {
		rows = append(rows, models.LossRow{Label: scamType, AmountLost: totals[scamType]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AmountLost.LessThan(rows[j].AmountLost)
	})
	return rows
}

// SplitAtThreshold partitions rows into amount >= threshold and amount <
// threshold, preserving order within each part
func SplitAtThreshold(rows []models.LossRow, threshold decimal.Decimal) (high, low []models.LossRow) {
	high, low = lo.FilterReject(rows, func(row models.LossRow, _ int) bool {
		return row.AmountLost.GreaterThanOrEqual(threshold)
	})
	return high, low
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
