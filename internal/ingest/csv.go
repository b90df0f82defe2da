// Package ingest reads a transactions CSV feed into normalized core
// transactions. The whole feed is rejected when required columns are
// missing; individual rows with unparseable dates or amounts are dropped
// and counted, leaving the rest of the feed usable.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"paisa/internal/core"
	"paisa/internal/identity"
)

// ErrMissingColumns is returned when the feed lacks any required column.
var ErrMissingColumns = errors.New("feed missing required columns")

// Optional columns (Category, Note, Tags) default to empty when absent.
var requiredColumns = []string{"Date", "Amount", "Payment mode", "type"}

// Accepted date layouts, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02-01-2006",
	"2 Jan 2006",
}

// Report summarizes what happened to a feed during normalization.
type Report struct {
	Rows          int            `json:"rows"`
	Dropped       int            `json:"dropped"`
	UnknownKinds  int            `json:"unknownKinds"`
	PreEpochDates int            `json:"preEpochDates"`
	Unresolved    map[string]int `json:"unresolved"`
}

// ParseFeed reads and normalizes the CSV feed, resolving each row's
// descriptor through the resolver. Unresolved rows are retained (they are
// excluded from aggregation downstream) and counted in the report.
func ParseFeed(r io.Reader, resolver *identity.Resolver) ([]core.Transaction, Report, error) {
	report := Report{Unresolved: make(map[string]int)}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, report, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, report, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	diag := identity.NewDiagnostics()
	var txns []core.Transaction
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A structurally broken row drops like an unparseable one.
			report.Dropped++
			continue
		}

		field := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		date, err := parseDate(field("Date"))
		if err != nil {
			report.Dropped++
			continue
		}
		cents, err := core.ParseDecimalToCents(field("Amount"))
		if err != nil {
			report.Dropped++
			continue
		}

		kind := core.ParseTxKind(field("type"))
		if kind == core.Unknown {
			report.UnknownKinds++
		}
		if date.Year() < 2000 {
			report.PreEpochDates++
		}

		descriptor := field("Payment mode")
		instrument, ok := resolver.Resolve(descriptor)
		if !ok {
			diag.Observe(descriptor)
		}

		txns = append(txns, core.Transaction{
			Date:          date,
			Amount:        core.Money{Cents: cents},
			RawDescriptor: descriptor,
			Instrument:    instrument,
			Kind:          kind,
			Category:      field("Category"),
			Note:          field("Note"),
			Tags:          field("Tags"),
		})
		report.Rows++
	}

	report.Unresolved = diag.Unresolved
	return txns, report, nil
}

func parseDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return core.Date{}, fmt.Errorf("unparseable date %q", s)
}
