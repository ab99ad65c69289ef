package core

import (
	"reflect"
	"sort"
	"testing"
)

// fixtureExpenses is the standard four-expense dashboard fixture.
func fixtureExpenses(t *testing.T) []Expense {
	t.Helper()
	alex, jamie, taylor, jordan := testParticipants[0], testParticipants[1], testParticipants[2], testParticipants[3]

	build := func(id, title string, date Date, amountCents int64, status Status, participants ...Participant) Expense {
		e := expenseBetween(t, id, title, date, amountCents, participants...)
		e.Status = status
		return e
	}

	return []Expense{
		build("exp-1", "Dinner at Italian Restaurant", NewDate(2023, 5, 15), 7850, StatusPending, alex, jamie, taylor),
		build("exp-2", "Movie Night", NewDate(2023, 5, 10), 4275, StatusSettled, alex, jordan),
		build("exp-3", "Grocery Shopping", NewDate(2023, 5, 5), 12530, StatusPartial, alex, jamie, taylor, jordan),
		build("exp-4", "Concert Tickets", NewDate(2023, 4, 28), 21000, StatusPending, jamie, taylor),
	}
}

func idsOf(expenses []Expense) []string {
	ids := make([]string, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ID
	}
	return ids
}

func TestApplyFilterIdentityIsPermutation(t *testing.T) {
	expenses := fixtureExpenses(t)
	got := ApplyFilter(expenses, FilterState{Status: FilterAll, Sort: SortDescending})

	if len(got) != len(expenses) {
		t.Fatalf("got %d expenses, want %d", len(got), len(expenses))
	}
	gotIDs := idsOf(got)
	wantIDs := idsOf(expenses)
	sort.Strings(gotIDs)
	sort.Strings(wantIDs)
	if !reflect.DeepEqual(gotIDs, wantIDs) {
		t.Fatalf("identity filter is not a permutation: got %v, want %v", gotIDs, wantIDs)
	}
}

func TestApplyFilterStatus(t *testing.T) {
	expenses := fixtureExpenses(t)

	got := ApplyFilter(expenses, FilterState{Status: FilterPending, Sort: SortDescending})
	if want := []string{"exp-1", "exp-4"}; !reflect.DeepEqual(idsOf(got), want) {
		t.Errorf("pending filter = %v, want %v", idsOf(got), want)
	}

	got = ApplyFilter(expenses, FilterState{Status: FilterSettled, Sort: SortDescending})
	if want := []string{"exp-2"}; !reflect.DeepEqual(idsOf(got), want) {
		t.Errorf("settled filter = %v, want %v", idsOf(got), want)
	}

	got = ApplyFilter(expenses, FilterState{Status: FilterPartial, Sort: SortDescending})
	if want := []string{"exp-3"}; !reflect.DeepEqual(idsOf(got), want) {
		t.Errorf("partial filter = %v, want %v", idsOf(got), want)
	}
}

func TestApplyFilterQuery(t *testing.T) {
	expenses := fixtureExpenses(t)

	got := ApplyFilter(expenses, FilterState{Status: FilterAll, Query: "movie", Sort: SortDescending})
	if len(got) != 1 || got[0].Title != "Movie Night" {
		t.Fatalf(`query "movie" = %v, want exactly [Movie Night]`, idsOf(got))
	}

	// Both predicates apply conjunctively.
	got = ApplyFilter(expenses, FilterState{Status: FilterSettled, Query: "movie", Sort: SortDescending})
	if len(got) != 1 {
		t.Fatalf("settled+movie = %v, want one match", idsOf(got))
	}
	got = ApplyFilter(expenses, FilterState{Status: FilterPending, Query: "movie", Sort: SortDescending})
	if len(got) != 0 {
		t.Fatalf("pending+movie = %v, want no matches", idsOf(got))
	}

	got = ApplyFilter(expenses, FilterState{Status: FilterAll, Query: "ZZZ", Sort: SortDescending})
	if len(got) != 0 {
		t.Fatalf("unmatched query returned %v", idsOf(got))
	}
}

func TestApplyFilterSort(t *testing.T) {
	expenses := fixtureExpenses(t)

	got := ApplyFilter(expenses, FilterState{Status: FilterAll, Sort: SortAscending})
	if want := []string{"exp-4", "exp-3", "exp-2", "exp-1"}; !reflect.DeepEqual(idsOf(got), want) {
		t.Errorf("ascending sort = %v, want %v", idsOf(got), want)
	}

	got = ApplyFilter(expenses, FilterState{Status: FilterAll, Sort: SortDescending})
	if want := []string{"exp-1", "exp-2", "exp-3", "exp-4"}; !reflect.DeepEqual(idsOf(got), want) {
		t.Errorf("descending sort = %v, want %v", idsOf(got), want)
	}
}

func TestApplyFilterStableTieBreak(t *testing.T) {
	alex, jamie := testParticipants[0], testParticipants[1]
	sameDay := NewDate(2023, 5, 10)
	expenses := []Expense{
		expenseBetween(t, "first", "Breakfast", sameDay, 1200, alex, jamie),
		expenseBetween(t, "second", "Lunch", sameDay, 1500, alex, jamie),
	}

	for _, order := range []SortOrder{SortAscending, SortDescending} {
		got := ApplyFilter(expenses, FilterState{Status: FilterAll, Sort: order})
		if want := []string{"first", "second"}; !reflect.DeepEqual(idsOf(got), want) {
			t.Errorf("sort %v broke the tie order: got %v, want %v", order, idsOf(got), want)
		}
	}
}

func TestApplyFilterIdempotent(t *testing.T) {
	expenses := fixtureExpenses(t)
	state := FilterState{Status: FilterPending, Query: "c", Sort: SortAscending}

	first := ApplyFilter(expenses, state)
	second := ApplyFilter(expenses, state)
	if !reflect.DeepEqual(idsOf(first), idsOf(second)) {
		t.Fatalf("same state twice diverged: %v vs %v", idsOf(first), idsOf(second))
	}
}

func TestApplyFilterDoesNotMutateInput(t *testing.T) {
	expenses := fixtureExpenses(t)
	before := idsOf(expenses)
	ApplyFilter(expenses, FilterState{Status: FilterAll, Sort: SortAscending})
	if !reflect.DeepEqual(idsOf(expenses), before) {
		t.Fatal("ApplyFilter reordered its input slice")
	}
}

func TestParseStatusFilter(t *testing.T) {
	cases := map[string]StatusFilter{
		"":        FilterAll,
		"all":     FilterAll,
		"pending": FilterPending,
		"Partial": FilterPartial,
		"SETTLED": FilterSettled,
		"bogus":   FilterAll,
	}
	for in, want := range cases {
		if got := ParseStatusFilter(in); got != want {
			t.Errorf("ParseStatusFilter(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseSortOrder(t *testing.T) {
	if got := ParseSortOrder("asc"); got != SortAscending {
		t.Errorf("ParseSortOrder(asc) = %v", got)
	}
	for _, in := range []string{"", "desc", "newest"} {
		if got := ParseSortOrder(in); got != SortDescending {
			t.Errorf("ParseSortOrder(%q) = %v, want desc", in, got)
		}
	}
}
