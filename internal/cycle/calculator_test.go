package cycle

import (
	"errors"
	"testing"

	"paisa/internal/core"
)

func rule(name string, start, end, due, offset int) core.InstrumentRule {
	return core.InstrumentRule{
		ID:              name,
		Name:            name,
		StartDay:        start,
		EndDay:          end,
		DueDay:          due,
		DueOffsetMonths: offset,
	}
}

func TestCompute(t *testing.T) {
	cases := []struct {
		name        string
		rule        core.InstrumentRule
		year, month int
		start, end  string
		due         string
	}{
		{
			name: "spanning cycle with offset due",
			rule: rule("Amex", 22, 21, 10, 1),
			year: 2023, month: 10,
			start: "2023-09-22", end: "2023-10-21", due: "2023-11-10",
		},
		{
			name: "same-month cycle",
			rule: rule("HSBC Cash", 8, 7, 27, 0),
			year: 2023, month: 10,
			start: "2023-09-08", end: "2023-10-07", due: "2023-10-27",
		},
		{
			name: "due year carry",
			rule: rule("SBI", 25, 24, 13, 1),
			year: 2023, month: 12,
			start: "2023-11-25", end: "2023-12-24", due: "2024-01-13",
		},
		{
			name: "end day clamps into short month",
			rule: rule("X", 31, 30, 5, 1),
			year: 2023, month: 2,
			// start clamps to Feb 28 before the back-shift, so it lands on Jan 28.
			start: "2023-01-28", end: "2023-02-28", due: "2023-03-05",
		},
		{
			name: "leap february",
			rule: rule("X", 31, 30, 5, 1),
			year: 2024, month: 2,
			start: "2024-01-29", end: "2024-02-29", due: "2024-03-05",
		},
		{
			name: "start shifts back across year boundary",
			rule: rule("One", 19, 18, 8, 1),
			year: 2024, month: 1,
			start: "2023-12-19", end: "2024-01-18", due: "2024-02-08",
		},
		{
			name: "start not after end when nominal days equal",
			rule: rule("X", 10, 10, 5, 1),
			year: 2023, month: 6,
			start: "2023-06-10", end: "2023-06-10", due: "2023-07-05",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Compute(tc.rule, tc.year, tc.month)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.Start.ISO() != tc.start {
				t.Errorf("start expected %s, got %s", tc.start, c.Start.ISO())
			}
			if c.End.ISO() != tc.end {
				t.Errorf("end expected %s, got %s", tc.end, c.End.ISO())
			}
			if c.Due.ISO() != tc.due {
				t.Errorf("due expected %s, got %s", tc.due, c.Due.ISO())
			}
			if !c.BillDate.Equal(c.End.Time) {
				t.Errorf("bill date should equal end, got %s vs %s", c.BillDate.ISO(), c.End.ISO())
			}
			if c.Start.After(c.End.Time) {
				t.Errorf("start %s after end %s", c.Start.ISO(), c.End.ISO())
			}
			if c.Source != RuleComputed {
				t.Errorf("source expected %s, got %s", RuleComputed, c.Source)
			}
			if c.Approximate {
				t.Errorf("computed cycle should not be approximate")
			}
		})
	}
}

func TestComputeInvalid(t *testing.T) {
	if _, err := Compute(rule("X", 0, 21, 10, 1), 2023, 10); !errors.Is(err, core.ErrInvalidRule) {
		t.Fatalf("expected ErrInvalidRule, got %v", err)
	}
	if _, err := Compute(rule("X", 22, 21, 10, 1), 2023, 13); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestEffectiveOverrideWins(t *testing.T) {
	r := rule("amex", 22, 21, 10, 1)
	set, skipped := NewOverrideSet([]core.CycleOverride{
		{
			ID:           "ov1",
			InstrumentID: "amex",
			Year:         2023,
			Month:        10,
			CycleStart:   core.NewDate(2023, 9, 25),
			CycleEnd:     core.NewDate(2023, 10, 24),
			DueDate:      core.NewDate(2023, 11, 12),
		},
	})
	if skipped != 0 {
		t.Fatalf("expected no skips, got %d", skipped)
	}

	c, err := Effective(r, 2023, 10, set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Source != Overridden {
		t.Fatalf("expected overridden source, got %s", c.Source)
	}
	if c.Start.ISO() != "2023-09-25" || c.End.ISO() != "2023-10-24" || c.Due.ISO() != "2023-11-12" {
		t.Fatalf("override dates not returned literally: %s..%s due %s", c.Start.ISO(), c.End.ISO(), c.Due.ISO())
	}

	// Neighboring months fall back to the rule.
	c, err = Effective(r, 2023, 11, set)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Source != RuleComputed {
		t.Fatalf("expected rule-computed source for other month, got %s", c.Source)
	}
}

func TestNewOverrideSetSkipsMalformed(t *testing.T) {
	set, skipped := NewOverrideSet([]core.CycleOverride{
		{ID: "bad", InstrumentID: "", Year: 2023, Month: 10},
		{
			ID:           "good",
			InstrumentID: "amex",
			Year:         2023,
			Month:        10,
			CycleStart:   core.NewDate(2023, 9, 25),
			CycleEnd:     core.NewDate(2023, 10, 24),
			DueDate:      core.NewDate(2023, 11, 12),
		},
	})
	if skipped != 1 {
		t.Fatalf("expected 1 skip, got %d", skipped)
	}
	if len(set) != 1 {
		t.Fatalf("expected 1 indexed override, got %d", len(set))
	}
}
