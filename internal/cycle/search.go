package cycle

import (
	"paisa/internal/core"
)

// searchRadius is how many generation months either side of the target are
// tried when searching for the cycle due in a given month.
const searchRadius = 2

// FindDueIn finds the cycle whose due date falls in the target calendar
// month. Cycles are indexed by generation month, so the generation month
// that pays out in the target month depends on the rule's offset and any
// overrides; candidates centered on the target are tried in order and the
// first exact due-month match wins.
//
// When no candidate matches exactly (misconfigured offsets, overrides that
// contradict the rule), the candidate whose due date is closest to the 15th
// of the target month is returned with Approximate set. Callers must treat
// an approximate result as non-authoritative.
func FindDueIn(rule core.InstrumentRule, targetYear, targetMonth int, overrides OverrideSet) (Cycle, error) {
	anchor := core.NewDate(targetYear, targetMonth, 15)

	candidates := make([]Cycle, 0, 2*searchRadius+1)
	for k := -searchRadius; k <= searchRadius; k++ {
		gen := core.ShiftMonth(anchor, k)
		c, err := Effective(rule, gen.Year(), gen.Month(), overrides)
		if err != nil {
			return Cycle{}, err
		}
		candidates = append(candidates, c)
	}

	for _, c := range candidates {
		if c.Due.Year() == targetYear && c.Due.Month() == targetMonth {
			return c, nil
		}
	}

	closest := candidates[0]
	best := absDays(closest.Due, anchor)
	for _, c := range candidates[1:] {
		if d := absDays(c.Due, anchor); d < best {
			closest, best = c, d
		}
	}
	closest.Approximate = true
	return closest, nil
}

func absDays(a, b core.Date) int {
	d := core.DaysBetween(b, a)
	if d < 0 {
		return -d
	}
	return d
}
