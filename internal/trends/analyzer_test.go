package trends

import (
	"testing"

	"paisa/internal/core"
)

func tx(date string, cents int64, instrument string, kind core.TxKind) core.Transaction {
	d, _ := core.ParseDate(date)
	return core.Transaction{
		Date:       d,
		Amount:     core.Money{Cents: cents},
		Instrument: instrument,
		Kind:       kind,
	}
}

func ym(year, month int) core.YearMonth {
	return core.YearMonth{Year: year, Month: month}
}

func TestMonthlyTotals(t *testing.T) {
	txns := []core.Transaction{
		tx("2023-08-10", 100000, "Amex", core.Expense),
		tx("2023-08-20", 50000, "Amex", core.Expense),
		tx("2023-08-25", 30000, "SBI", core.Expense),
		tx("2023-09-05", 200000, "Amex", core.Expense),
		tx("2023-09-06", 99999, "Amex", core.Payment), // not an expense
		tx("2023-09-07", 12345, "", core.Expense),     // unresolved
	}

	table := MonthlyTotals(txns)
	if len(table.Months) != 2 {
		t.Fatalf("expected 2 months, got %d", len(table.Months))
	}
	if table.Months[0] != ym(2023, 8) || table.Months[1] != ym(2023, 9) {
		t.Fatalf("months not sorted: %v", table.Months)
	}
	if len(table.Instruments) != 2 || table.Instruments[0] != "Amex" || table.Instruments[1] != "SBI" {
		t.Fatalf("instruments expected [Amex SBI], got %v", table.Instruments)
	}
	if got := table.Value(ym(2023, 8), "Amex"); got.Cents != 150000 {
		t.Fatalf("Amex August expected 150000, got %d", got.Cents)
	}
	if got := table.Value(ym(2023, 9), "SBI"); got.Cents != 0 {
		t.Fatalf("missing cell should read zero, got %d", got.Cents)
	}
}

func TestTail(t *testing.T) {
	table := MonthlyTotals([]core.Transaction{
		tx("2023-06-01", 100, "Amex", core.Expense),
		tx("2023-07-01", 200, "Amex", core.Expense),
		tx("2023-08-01", 300, "Amex", core.Expense),
		tx("2023-09-01", 400, "Amex", core.Expense),
	})

	tail := table.Tail(2)
	if len(tail.Months) != 2 || tail.Months[0] != ym(2023, 8) {
		t.Fatalf("expected last two months, got %v", tail.Months)
	}
	if _, ok := tail.Totals[ym(2023, 6)]; ok {
		t.Fatalf("dropped month still present in totals")
	}
	if got := table.Tail(10); len(got.Months) != 4 {
		t.Fatalf("oversize tail should return everything, got %d months", len(got.Months))
	}
	if got := table.Tail(0); len(got.Months) != 4 {
		t.Fatalf("non-positive tail should return everything, got %d months", len(got.Months))
	}
}

func TestMoMChange(t *testing.T) {
	table := MonthlyTotals([]core.Transaction{
		tx("2023-07-01", 100000, "Amex", core.Expense),
		tx("2023-08-01", 150000, "Amex", core.Expense),
		tx("2023-08-02", 5000, "SBI", core.Expense),
		tx("2023-09-01", 75000, "Amex", core.Expense),
	})

	mom := table.MoMChange("Amex")
	if mom[ym(2023, 7)] != nil {
		t.Fatalf("first month should be undefined")
	}
	if got := mom[ym(2023, 8)]; got == nil || *got != 50.0 {
		t.Fatalf("August expected +50%%, got %v", got)
	}
	if got := mom[ym(2023, 9)]; got == nil || *got != -50.0 {
		t.Fatalf("September expected -50%%, got %v", got)
	}

	// SBI has no July spend, so August's change over a zero month is
	// undefined rather than infinite.
	sbi := table.MoMChange("SBI")
	if sbi[ym(2023, 8)] != nil {
		t.Fatalf("change over a zero month should be undefined")
	}
}

func TestAnnotateAnomaly(t *testing.T) {
	// Median of the five positive months is 1100; the 5000 month is far
	// above 1.5x that.
	table := MonthlyTotals([]core.Transaction{
		tx("2023-05-01", 100000, "Amex", core.Expense),
		tx("2023-06-01", 110000, "Amex", core.Expense),
		tx("2023-07-01", 120000, "Amex", core.Expense),
		tx("2023-08-01", 90000, "Amex", core.Expense),
		tx("2023-09-01", 500000, "Amex", core.Expense),
	})

	flags := table.Annotate(nil, false)
	if !flags.Anomaly[ym(2023, 9)]["Amex"] {
		t.Fatalf("September spike should be flagged")
	}
	if flags.Anomaly[ym(2023, 6)]["Amex"] {
		t.Fatalf("ordinary month should not be flagged")
	}
}

func TestAnnotateExcludeLast(t *testing.T) {
	// Including the final month the median is 1200 (threshold 1800, 1700
	// passes); excluding it the median drops to 1100 (threshold 1650,
	// 1700 flags).
	table := MonthlyTotals([]core.Transaction{
		tx("2023-07-01", 100000, "Amex", core.Expense),
		tx("2023-08-01", 120000, "Amex", core.Expense),
		tx("2023-09-01", 170000, "Amex", core.Expense),
	})

	withLast := table.Annotate(nil, false)
	if withLast.Anomaly[ym(2023, 9)]["Amex"] {
		t.Fatalf("final month should pass when it is part of the median")
	}

	excluded := table.Annotate(nil, true)
	if !excluded.Anomaly[ym(2023, 9)]["Amex"] {
		t.Fatalf("final month should flag when excluded from the median")
	}
}

func TestAnnotateOverCap(t *testing.T) {
	table := MonthlyTotals([]core.Transaction{
		tx("2023-08-01", 240000, "Amex", core.Expense),
		tx("2023-09-01", 260000, "Amex", core.Expense),
	})

	caps := map[string]core.Money{"Amex": {Cents: 250000}}
	flags := table.Annotate(caps, false)
	if flags.OverCap[ym(2023, 8)]["Amex"] {
		t.Fatalf("under-cap month flagged")
	}
	if !flags.OverCap[ym(2023, 9)]["Amex"] {
		t.Fatalf("over-cap month not flagged")
	}
}

func TestMedian(t *testing.T) {
	cases := []struct {
		in   []int64
		want float64
	}{
		{nil, 0},
		{[]int64{5}, 5},
		{[]int64{1, 3, 2}, 2},
		{[]int64{4, 1, 3, 2}, 2.5},
	}
	for _, tc := range cases {
		if got := median(tc.in); got != tc.want {
			t.Fatalf("median(%v) expected %v, got %v", tc.in, tc.want, got)
		}
	}
}
