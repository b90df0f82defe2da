package cycle

import (
	"log/slog"

	"paisa/internal/core"
)

// OverrideKey identifies an override by its generation month. A structured
// key avoids the parsing ambiguity of concatenated string keys.
type OverrideKey struct {
	InstrumentID string
	Year         int
	Month        int
}

// OverrideSet indexes overrides for O(1) lookup during cycle resolution.
type OverrideSet map[OverrideKey]core.CycleOverride

// NewOverrideSet builds the index, silently skipping malformed records so a
// single bad override never aborts resolution for the rest. Skips are
// logged and counted.
func NewOverrideSet(overrides []core.CycleOverride) (OverrideSet, int) {
	set := make(OverrideSet, len(overrides))
	skipped := 0
	for _, ov := range overrides {
		if err := ov.Validate(); err != nil {
			slog.Warn("Skipping malformed cycle override",
				"id", ov.ID,
				"instrument_id", ov.InstrumentID,
				"error", err)
			skipped++
			continue
		}
		set[OverrideKey{InstrumentID: ov.InstrumentID, Year: ov.Year, Month: ov.Month}] = ov
	}
	return set, skipped
}

// Effective resolves the cycle for the generation month (year, month): an
// override for the exact key wins and its stored dates are returned
// unchanged; otherwise the instrument's default rule is computed.
func Effective(rule core.InstrumentRule, year, month int, overrides OverrideSet) (Cycle, error) {
	key := OverrideKey{InstrumentID: rule.ID, Year: year, Month: month}
	if ov, ok := overrides[key]; ok {
		return Cycle{
			Start:    ov.CycleStart,
			End:      ov.CycleEnd,
			BillDate: ov.CycleEnd,
			Due:      ov.DueDate,
			Source:   Overridden,
		}, nil
	}
	return Compute(rule, year, month)
}
