package models

import (
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Record represents a single scam report row from the dataset
type Record struct {
	State           string          `json:"state"`
	AgeGroup        string          `json:"age_group"`
	Gender          string          `json:"gender"`
	ScamCategory    string          `json:"scam_category"`
	ScamType        string          `json:"scam_type"`
	NumberOfReports int64           `json:"number_of_reports"`
	AmountLost      decimal.Decimal `json:"amount_lost"`
}

// Label returns the composite "category / type" display label
func (r *Record) Label() string {
	return strings.TrimSpace(r.ScamCategory) + " / " + strings.TrimSpace(r.ScamType)
}

// RecordSet wraps a slice with filtering/aggregation methods.
// A loaded RecordSet is never mutated; filters return new sets.
type RecordSet struct {
	Records []Record
}

// NewRecordSet creates a new RecordSet from a slice
func NewRecordSet(records []Record) *RecordSet {
	return &RecordSet{Records: records}
}

// Len returns the number of records
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Records)
}

// filter returns the records for which keep is true, in input order
func (rs *RecordSet) filter(keep func(r Record) bool) *RecordSet {
	if rs == nil {
		return &RecordSet{}
	}
	return &RecordSet{Records: lo.Filter(rs.Records, func(r Record, _ int) bool {
		return keep(r)
	})}
}

// FilterByStates returns records whose state is in the set
func (rs *RecordSet) FilterByStates(states StringSet) *RecordSet {
	return rs.filter(func(r Record) bool { return states.Has(r.State) })
}

// FilterByCategories returns records whose scam category is in the set
func (rs *RecordSet) FilterByCategories(categories StringSet) *RecordSet {
	return rs.filter(func(r Record) bool { return categories.Has(r.ScamCategory) })
}

// FilterByAgeGroups returns records whose age group is in the set
func (rs *RecordSet) FilterByAgeGroups(ageGroups StringSet) *RecordSet {
	return rs.filter(func(r Record) bool { return ageGroups.Has(r.AgeGroup) })
}

// distinct returns the sorted unique non-empty values produced by key
func (rs *RecordSet) distinct(key func(r Record) string) []string {
	if rs == nil {
		return []string{}
	}
	values := lo.Uniq(lo.FilterMap(rs.Records, func(r Record, _ int) (string, bool) {
		v := key(r)
		return v, v != ""
	}))
	sort.Strings(values)
	return values
}

// States returns a sorted list of unique states
func (rs *RecordSet) States() []string {
	return rs.distinct(func(r Record) string { return r.State })
}

// Categories returns a sorted list of unique scam categories
func (rs *RecordSet) Categories() []string {
	return rs.distinct(func(r Record) string { return r.ScamCategory })
}

// AgeGroups returns a sorted list of unique age groups
func (rs *RecordSet) AgeGroups() []string {
	return rs.distinct(func(r Record) string { return r.AgeGroup })
}

// SumReports returns the total number of reports
func (rs *RecordSet) SumReports() int64 {
	if rs == nil {
		return 0
	}
	return lo.SumBy(rs.Records, func(r Record) int64 { return r.NumberOfReports })
}

// SumAmountLost returns the exact total amount lost
func (rs *RecordSet) SumAmountLost() decimal.Decimal {
	sum := decimal.Zero
	if rs == nil {
		return sum
	}
	for _, r := range rs.Records {
		sum = sum.Add(r.AmountLost)
	}
	return sum
}
