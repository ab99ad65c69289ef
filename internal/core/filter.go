package core

import (
	"sort"
	"strings"
)

const (
	FilterAll     StatusFilter = "all"
	FilterPending StatusFilter = StatusFilter(StatusPending)
	FilterPartial StatusFilter = StatusFilter(StatusPartial)
	FilterSettled StatusFilter = StatusFilter(StatusSettled)
)

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

type (
	// StatusFilter narrows the expense list to one settlement status,
	// or all of them.
	StatusFilter string

	SortOrder string

	// FilterState is the ephemeral, per-view filter configuration.
	FilterState struct {
		Status StatusFilter
		Query  string
		Sort   SortOrder
	}
)

// ParseStatusFilter maps a query parameter to a StatusFilter, defaulting
// to FilterAll for empty or unknown values.
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterPending:
		return FilterPending
	case FilterPartial:
		return FilterPartial
	case FilterSettled:
		return FilterSettled
	default:
		return FilterAll
	}
}

// ParseSortOrder maps a query parameter to a SortOrder, defaulting to
// descending (newest first, matching the dashboard default).
func ParseSortOrder(s string) SortOrder {
	if SortOrder(strings.ToLower(strings.TrimSpace(s))) == SortAscending {
		return SortAscending
	}
	return SortDescending
}

// Matches reports whether the expense passes both filter predicates:
// status equality (unless FilterAll) AND case-insensitive title contains.
// An empty query matches every title.
func (f FilterState) Matches(e Expense) bool {
	if f.Status != "" && f.Status != FilterAll && Status(f.Status) != e.Status {
		return false
	}
	if f.Query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.Query))
}

// ApplyFilter produces the display sequence for the given filter state:
// filter, then a stable sort by date so expenses sharing a date keep their
// original collection order in either direction. The input slice is never
// mutated; applying the same state twice yields identical output.
func ApplyFilter(expenses []Expense, f FilterState) []Expense {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.Sort == SortAscending {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}
