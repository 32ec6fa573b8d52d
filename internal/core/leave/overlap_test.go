package leave

import (
	"errors"
	"testing"
	"time"
)

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBounds_Overlaps(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		existing  [2]string
		candidate [2]string
		inclusive bool
		strict    bool
	}{
		{name: "disjoint before", existing: [2]string{"2024-01-01", "2024-01-05"}, candidate: [2]string{"2024-01-10", "2024-01-12"}},
		{name: "touching end to start", existing: [2]string{"2024-01-01", "2024-01-10"}, candidate: [2]string{"2024-01-10", "2024-01-15"}, inclusive: true},
		{name: "touching start to end", existing: [2]string{"2024-01-10", "2024-01-15"}, candidate: [2]string{"2024-01-01", "2024-01-10"}, inclusive: true},
		{name: "contained", existing: [2]string{"2024-01-01", "2024-01-31"}, candidate: [2]string{"2024-01-10", "2024-01-12"}, inclusive: true, strict: true},
		{name: "partial", existing: [2]string{"2024-01-01", "2024-01-10"}, candidate: [2]string{"2024-01-05", "2024-01-15"}, inclusive: true, strict: true},
		{name: "same single day", existing: [2]string{"2024-01-05", "2024-01-05"}, candidate: [2]string{"2024-01-05", "2024-01-05"}, inclusive: true},
		{name: "adjacent days", existing: [2]string{"2024-01-01", "2024-01-04"}, candidate: [2]string{"2024-01-05", "2024-01-07"}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			es, ee := day(tc.existing[0]), day(tc.existing[1])
			cs, ce := day(tc.candidate[0]), day(tc.candidate[1])
			if got := BoundsInclusive.Overlaps(es, ee, cs, ce); got != tc.inclusive {
				t.Errorf("inclusive: want %t, got %t", tc.inclusive, got)
			}
			if got := BoundsStrict.Overlaps(es, ee, cs, ce); got != tc.strict {
				t.Errorf("strict: want %t, got %t", tc.strict, got)
			}
		})
	}
}

func TestOverlapQuery_Matches(t *testing.T) {
	t.Parallel()

	existing := &Interval{ID: 7, EmployeeID: 1, StartDate: day("2024-01-01"), EndDate: day("2024-01-10")}
	start, end := day("2024-01-05"), day("2024-01-06")

	byEmployee := CreateRule.query(1, nil, start, end)
	if !byEmployee.Matches(existing) {
		t.Fatalf("expected same-employee overlap to match")
	}
	otherEmployee := CreateRule.query(2, nil, start, end)
	if otherEmployee.Matches(existing) {
		t.Fatalf("employee-scoped rule must ignore other employees")
	}

	self := int64(7)
	storeWide := UpdateRule.query(2, &self, start, end)
	if storeWide.EmployeeID != nil {
		t.Fatalf("store-scoped rule must not filter by employee")
	}
	if storeWide.Matches(existing) {
		t.Fatalf("excluded interval must not match")
	}

	other := int64(8)
	if !UpdateRule.query(2, &other, start, end).Matches(existing) {
		t.Fatalf("store-scoped rule must see other employees' intervals")
	}
}

func TestParseOverlapRule(t *testing.T) {
	t.Parallel()

	rule, err := ParseOverlapRule("", "", UpdateRule)
	if err != nil || rule != UpdateRule {
		t.Fatalf("expected fallback, got %v (%v)", rule, err)
	}

	rule, err = ParseOverlapRule(" Employee ", "STRICT", CreateRule)
	if err != nil {
		t.Fatalf("ParseOverlapRule returned error: %v", err)
	}
	if rule.Scope != ScopeEmployee || rule.Bounds != BoundsStrict {
		t.Fatalf("unexpected rule: %v", rule)
	}

	if _, err := ParseOverlapRule("team", "", CreateRule); !errors.Is(err, ErrInvalidOverlapRule) {
		t.Fatalf("expected ErrInvalidOverlapRule, got %v", err)
	}
	if _, err := ParseOverlapRule("", "open", CreateRule); !errors.Is(err, ErrInvalidOverlapRule) {
		t.Fatalf("expected ErrInvalidOverlapRule, got %v", err)
	}
}
