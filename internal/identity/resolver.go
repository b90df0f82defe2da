// Package identity maps raw payment descriptors to canonical instrument
// names. Resolution is pure: the resolver owns no mutable state beyond what
// the caller hands it, and unresolved descriptors are counted separately by
// a Diagnostics collector.
package identity

import (
	"regexp"
	"strings"
)

// PatternRule matches a descriptor to an instrument. Rules are evaluated
// top-to-bottom, first match wins, so more specific patterns (a cashback
// variant of an instrument) must precede the general pattern for the same
// family. SuppressMarkers turns a match into unresolved when the descriptor
// also carries a closed/inactive marker.
type PatternRule struct {
	Pattern         *regexp.Regexp
	Instrument      string
	SuppressMarkers []string
}

// Resolver resolves descriptors through three layers, first match wins:
// caller-supplied exact overrides, session-accumulated auto-mappings, then
// the ordered pattern rules.
type Resolver struct {
	Overrides map[string]string // exact descriptor -> instrument
	AutoMap   map[string]string // accumulated from unmapped-descriptor review
	Patterns  []PatternRule
}

// DefaultPatterns is the built-in detection table. Ordering matters:
// "HSBC Cash" (which also matches plain "cashback" text) sits above the
// general "HSBC" rule so cashback-variant descriptors never resolve to the
// generic sibling.
func DefaultPatterns() []PatternRule {
	return []PatternRule{
		{Pattern: regexp.MustCompile(`\b(amex|american\s*express|plat(?:inum)?)\b`), Instrument: "Amex"},
		{Pattern: regexp.MustCompile(`\b(icici|ici)\b`), Instrument: "ICICI"},
		{Pattern: regexp.MustCompile(`\bsbi\b`), Instrument: "SBI"},
		{Pattern: regexp.MustCompile(`\b(onecard|oncecard)\b`), Instrument: "One", SuppressMarkers: []string{"closed"}},
		{Pattern: regexp.MustCompile(`\b(hsbc\s*cash|hsbcl|cashback)\b`), Instrument: "HSBC Cash"},
		{Pattern: regexp.MustCompile(`\bhsbc\b`), Instrument: "HSBC"},
	}
}

// NewResolver builds a resolver over the default pattern table. Overrides
// and auto-mappings may be nil.
func NewResolver(overrides, autoMap map[string]string) *Resolver {
	return &Resolver{
		Overrides: overrides,
		AutoMap:   autoMap,
		Patterns:  DefaultPatterns(),
	}
}

// Resolve maps a raw descriptor to an instrument name. The second return is
// false when the descriptor is unresolved, including suppressed matches.
func (r *Resolver) Resolve(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	if name, ok := r.Overrides[raw]; ok && name != "" {
		return name, true
	}
	if name, ok := r.AutoMap[raw]; ok && name != "" {
		return name, true
	}
	text := strings.ToLower(raw)
	for _, rule := range r.Patterns {
		if !rule.Pattern.MatchString(text) {
			continue
		}
		for _, marker := range rule.SuppressMarkers {
			if strings.Contains(text, marker) {
				return "", false
			}
		}
		return rule.Instrument, true
	}
	return "", false
}

// Diagnostics counts descriptors that failed to resolve. The resolver never
// writes here itself; callers observe as they go.
type Diagnostics struct {
	Unresolved map[string]int
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{Unresolved: make(map[string]int)}
}

// Observe records one unresolved descriptor occurrence.
func (d *Diagnostics) Observe(raw string) {
	d.Unresolved[raw]++
}

// Total is the number of unresolved occurrences across all descriptors.
func (d *Diagnostics) Total() int {
	n := 0
	for _, c := range d.Unresolved {
		n += c
	}
	return n
}
