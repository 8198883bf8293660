package models

import "github.com/samber/lo"

// StateBucket narrows the state × age loss chart to a ranked slice of states
type StateBucket string

const (
	BucketNone    StateBucket = ""
	BucketTop3    StateBucket = "top3"
	BucketBottom5 StateBucket = "bottom5"
)

// StringSet is an ordered set of selected categorical values
type StringSet struct {
	values []string
	index  map[string]struct{}
}

// NewStringSet creates a set from values, keeping first-seen order
func NewStringSet(values ...string) StringSet {
	uniq := lo.Uniq(values)
	return StringSet{
		values: uniq,
		index: lo.SliceToMap(uniq, func(v string) (string, struct{}) {
			return v, struct{}{}
		}),
	}
}

// Has reports whether v is in the set
func (s StringSet) Has(v string) bool {
	_, ok := s.index[v]
	return ok
}

// Len returns the number of values
func (s StringSet) Len() int {
	return len(s.values)
}

// Values returns the values in insertion order
func (s StringSet) Values() []string {
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}

// Selection is the user-controlled subset of values included in computation.
// A nil list means "not provided" and gets defaults; an empty non-nil list
// means the user deselected everything.
type Selection struct {
	States        []string `json:"states"`
	Categories    []string `json:"categories"`
	AgeGroups     []string `json:"age_groups"`
	AllCategories bool     `json:"all_categories"`
	Top3          bool     `json:"top3"`
	Bottom5       bool     `json:"bottom5"`
}

// DefaultSelection returns a selection where every dimension takes its default
func DefaultSelection() Selection {
	return Selection{AllCategories: true}
}

// Bucket resolves the two state-bucket checkboxes; top3 is checked first
func (s Selection) Bucket() StateBucket {
	switch {
	case s.Top3:
		return BucketTop3
	case s.Bottom5:
		return BucketBottom5
	default:
		return BucketNone
	}
}

// UIState holds per-session presentation state that is not part of the filter
type UIState struct {
	Drilldown bool `json:"drilldown"`
}

// Toggle flips drill-down visibility and returns the new value
func (u *UIState) Toggle() bool {
	u.Drilldown = !u.Drilldown
	return u.Drilldown
}
