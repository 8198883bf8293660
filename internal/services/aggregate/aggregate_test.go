package aggregate

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamdash/internal/config"
	"scamdash/internal/models"
)

func rec(state, age, gender, category, scamType string, reports int64, amount string) models.Record {
	return models.Record{
		State:           state,
		AgeGroup:        age,
		Gender:          gender,
		ScamCategory:    category,
		ScamType:        scamType,
		NumberOfReports: reports,
		AmountLost:      decimal.RequireFromString(amount),
	}
}

func fixture() *models.RecordSet {
	return models.NewRecordSet([]models.Record{
		rec("NSW", "25 - 34", "Male", "Investment", "Crypto", 10, "2500000"),
		rec("NSW", "25 - 34", "Female", "Investment", "Shares", 4, "300"),
		rec("VIC", "35 - 44", "Female", "Phishing", "Email", 7, "1000000"),
		rec("VIC", "65 and over", "Male", "Phishing", "SMS", 3, "999999.99"),
		rec("QLD", "35 - 44", "Male", "Romance", "Dating", 7, "45000"),
		rec("WA", "18 - 24", "Other", "Investment", "Crypto", 1, "10"),
		rec("SA", "25 - 34", "Male", "Romance", "Dating", 2, "20"),
		rec("TAS", "35 - 44", "Female", "Phishing", "Phone", 1, "30"),
		rec("ACT", "18 - 24", "Male", "Romance", "Dating", 1, "40"),
		rec("NT", "18 - 24", "Female", "Phishing", "Phone", 1, "5"),
	})
}

func allOf(values []string) models.StringSet {
	return models.NewStringSet(values...)
}

func TestStateReportsSumsReports(t *testing.T) {
	rs := fixture()
	rows := StateReports(rs, config.StateMeasureReports)

	require.Len(t, rows, 8)
	assert.Equal(t, models.CountRow{Label: "NSW", Reports: 14}, rows[0])
	assert.Equal(t, models.CountRow{Label: "VIC", Reports: 10}, rows[1])
	assert.Equal(t, models.CountRow{Label: "QLD", Reports: 7}, rows[2])
	// ties keep alphabetical order
	assert.Equal(t, []string{"ACT", "NT", "TAS", "WA"}, labels(rows[4:]))

	var total int64
	for _, r := range rows {
		total += r.Reports
	}
	assert.Equal(t, rs.SumReports(), total)
}

func TestStateReportsCountsRows(t *testing.T) {
	rs := fixture()
	rows := StateReports(rs, config.StateMeasureRows)

	var total int64
	for _, r := range rows {
		total += r.Reports
	}
	assert.Equal(t, int64(rs.Len()), total)
	assert.Equal(t, []string{"NSW", "VIC"}, labels(rows[:2]))
}

func TestAgeGenderReports(t *testing.T) {
	rs := fixture()
	rows := AgeGenderReports(rs, models.NewStringSet("18 - 24", "25 - 34"))

	assert.Equal(t, []models.AgeGenderRow{
		{AgeGroup: "18 - 24", Gender: "Male", Reports: 1},
		{AgeGroup: "18 - 24", Gender: "Female", Reports: 1},
		{AgeGroup: "18 - 24", Gender: "Other", Reports: 1},
		{AgeGroup: "25 - 34", Gender: "Male", Reports: 12},
		{AgeGroup: "25 - 34", Gender: "Female", Reports: 4},
	}, rows)

	assert.Empty(t, AgeGenderReports(rs, models.NewStringSet()))
}

func TestCategoryTypeReports(t *testing.T) {
	rs := fixture()
	rows := CategoryTypeReports(rs, models.NewStringSet("Investment", "Romance"))

	assert.Equal(t, []models.CountRow{
		{Label: "Investment / Crypto", Reports: 11},
		{Label: "Investment / Shares", Reports: 4},
		{Label: "Romance / Dating", Reports: 10},
	}, sortedCopy(rows))
	for i := 1; i < len(rows); i++ {
		assert.LessOrEqual(t, rows[i-1].Reports, rows[i].Reports, "ascending by reports")
	}
	assert.Equal(t, "Investment / Shares", rows[0].Label)

	assert.Empty(t, CategoryTypeReports(rs, models.NewStringSet()), "empty selection is not select-all")
}

func TestRankStatesByLoss(t *testing.T) {
	ranked := RankStatesByLoss(fixture())

	require.Len(t, ranked, 8)
	assert.Equal(t, "NSW", ranked[0].State)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.True(t, ranked[0].AmountLost.Equal(decimal.RequireFromString("2500300")))
	assert.Equal(t, []string{"NSW", "VIC", "QLD", "ACT", "TAS", "SA", "WA", "NT"}, states(ranked))
}

func TestStateAgeLossBuckets(t *testing.T) {
	rs := fixture()
	ages := allOf(rs.AgeGroups())

	all := StateAgeLoss(rs, ages, models.BucketNone)
	assert.Len(t, distinctStates(all), 8)

	top := StateAgeLoss(rs, ages, models.BucketTop3)
	assert.ElementsMatch(t, []string{"NSW", "VIC", "QLD"}, distinctStates(top))

	bottom := StateAgeLoss(rs, ages, models.BucketBottom5)
	assert.ElementsMatch(t, []string{"ACT", "TAS", "SA", "WA", "NT"}, distinctStates(bottom))

	// rows are ordered by state then age group
	assert.Equal(t, "ACT", all[0].State)
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		assert.True(t, prev.State < cur.State || (prev.State == cur.State && prev.AgeGroup < cur.AgeGroup))
	}
}

func TestStateAgeLossRanksWithinAgeFilter(t *testing.T) {
	rs := fixture()
	// Only 18 - 24: ACT $40, WA $10, NT $5
	young := models.NewStringSet("18 - 24")

	top := StateAgeLoss(rs, young, models.BucketTop3)
	assert.ElementsMatch(t, []string{"ACT", "WA", "NT"}, distinctStates(top))

	assert.Empty(t, StateAgeLoss(rs, young, models.BucketBottom5), "fewer than 4 states leaves bottom5 empty")
}

func TestStateAgeLossBottom5WithSixStates(t *testing.T) {
	var records []models.Record
	for i := 1; i <= 6; i++ {
		records = append(records, rec(fmt.Sprintf("S%d", i), "25 - 34", "Male", "C", "T", 1, fmt.Sprint(i*100)))
	}
	rows := StateAgeLoss(models.NewRecordSet(records), models.NewStringSet("25 - 34"), models.BucketBottom5)

	assert.ElementsMatch(t, []string{"S3", "S2", "S1"}, distinctStates(rows))
}

func TestScamTypeLossAndSplit(t *testing.T) {
	rows := ScamTypeLoss(fixture())

	assert.Equal(t, []string{"Phone", "Shares", "Dating", "SMS", "Email", "Crypto"}, labels2(rows))
	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i-1].AmountLost.LessThanOrEqual(rows[i].AmountLost))
	}

	threshold := decimal.NewFromInt(1000000)
	high, low := SplitAtThreshold(rows, threshold)

	assert.Equal(t, []string{"Email", "Crypto"}, labels2(high), "boundary value belongs to the high side")
	assert.Equal(t, []string{"Phone", "Shares", "Dating", "SMS"}, labels2(low))
	for _, r := range high {
		assert.True(t, r.AmountLost.GreaterThanOrEqual(threshold))
	}
	for _, r := range low {
		assert.True(t, r.AmountLost.LessThan(threshold))
	}
	assert.ElementsMatch(t, rows, append(append([]models.LossRow{}, high...), low...))
}

func TestKPIsUseStateFilteredSet(t *testing.T) {
	rs := models.NewRecordSet([]models.Record{
		rec("NSW", "25 - 34", "Male", "C", "T", 10, "500"),
		rec("VIC", "25 - 34", "Female", "C", "T", 5, "2000"),
	})
	filtered := ApplyStateFilter(rs, models.NewStringSet("NSW"))

	kpis := ComputeKPIs(filtered, 26800000)
	assert.Equal(t, int64(10), kpis.TotalReports)
	assert.True(t, kpis.TotalLoss.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, int64(26800000), kpis.Population)

	assert.Equal(t, []models.CountRow{{Label: "NSW", Reports: 10}}, StateReports(filtered, config.StateMeasureReports))
	assert.Equal(t, []models.CountRow{{Label: "NSW", Reports: 1}}, StateReports(filtered, config.StateMeasureRows))
}

func labels(rows []models.CountRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Label
	}
	return out
}

func labels2(rows []models.LossRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Label
	}
	return out
}

func states(ranked []models.StateTotal) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.State
	}
	return out
}

func distinctStates(rows []models.StateAgeLossRow) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range rows {
		if !seen[r.State] {
			seen[r.State] = true
			out = append(out, r.State)
		}
	}
	return out
}

func sortedCopy(rows []models.CountRow) []models.CountRow {
	out := append([]models.CountRow{}, rows...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Label < out[j-1].Label; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
