package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() *RecordSet {
	return NewRecordSet([]Record{
		{State: "NSW", AgeGroup: "25 - 34", Gender: "Male", ScamCategory: "Investment", ScamType: "Crypto", NumberOfReports: 10, AmountLost: decimal.NewFromInt(500)},
		{State: "VIC", AgeGroup: "35 - 44", Gender: "Female", ScamCategory: "Phishing", ScamType: "Email", NumberOfReports: 5, AmountLost: decimal.NewFromInt(2000)},
		{State: "NSW", AgeGroup: "35 - 44", Gender: "Female", ScamCategory: "Investment", ScamType: "Shares", NumberOfReports: 3, AmountLost: decimal.RequireFromString("12.50")},
		{State: "", AgeGroup: "", Gender: "Male", ScamCategory: "", ScamType: "Other", NumberOfReports: 1, AmountLost: decimal.Zero},
	})
}

func TestRecordLabel(t *testing.T) {
	r := Record{ScamCategory: " Investment ", ScamType: "Crypto  "}
	assert.Equal(t, "Investment / Crypto", r.Label())
}

func TestDistinctValues(t *testing.T) {
	rs := sampleRecords()

	assert.Equal(t, []string{"NSW", "VIC"}, rs.States())
	assert.Equal(t, []string{"Investment", "Phishing"}, rs.Categories())
	assert.Equal(t, []string{"25 - 34", "35 - 44"}, rs.AgeGroups())
}

func TestFilters(t *testing.T) {
	rs := sampleRecords()

	nsw := rs.FilterByStates(NewStringSet("NSW"))
	require.Equal(t, 2, nsw.Len())
	assert.Equal(t, "Crypto", nsw.Records[0].ScamType, "filters keep input order")

	assert.Equal(t, 0, rs.FilterByStates(NewStringSet()).Len())
	assert.Equal(t, 1, rs.FilterByCategories(NewStringSet("Phishing")).Len())
	assert.Equal(t, 2, rs.FilterByAgeGroups(NewStringSet("35 - 44")).Len())
}

func TestSums(t *testing.T) {
	rs := sampleRecords()

	assert.Equal(t, int64(19), rs.SumReports())
	assert.True(t, rs.SumAmountLost().Equal(decimal.RequireFromString("2512.50")))

	var empty *RecordSet
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, int64(0), empty.SumReports())
	assert.True(t, empty.SumAmountLost().IsZero())
}

func TestStringSet(t *testing.T) {
	s := NewStringSet("b", "a", "b")
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"b", "a"}, s.Values())
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("c"))
}

func TestSelectionBucket(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want StateBucket
	}{
		{"none", Selection{}, BucketNone},
		{"top3", Selection{Top3: true}, BucketTop3},
		{"bottom5", Selection{Bottom5: true}, BucketBottom5},
		{"both checked, top3 wins", Selection{Top3: true, Bottom5: true}, BucketTop3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sel.Bucket())
		})
	}
}

func TestUIStateToggleTwice(t *testing.T) {
	ui := UIState{}
	assert.True(t, ui.Toggle())
	assert.False(t, ui.Toggle())
	assert.Equal(t, UIState{}, ui)
}
