package identity

import "testing"

func TestResolvePatterns(t *testing.T) {
	r := NewResolver(nil, nil)

	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"AMEX Platinum Travel", "Amex", true},
		{"american express", "Amex", true},
		{"Plat charge", "Amex", true},
		{"ICICI Coral", "ICICI", true},
		{"ici bank card", "ICICI", true},
		{"SBI Prime", "SBI", true},
		{"OneCard", "One", true},
		{"oncecard", "One", true}, // feed typo variant
		{"OneCard (closed)", "", false},
		{"HSBC Cash", "HSBC Cash", true},
		{"hsbcl", "HSBC Cash", true},
		{"HSBC Premier", "HSBC", true},
		{"Cashback card", "HSBC Cash", true},
		{"Paytm wallet", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := r.Resolve(tc.raw)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("Resolve(%q) expected (%q, %v), got (%q, %v)", tc.raw, tc.want, tc.ok, got, ok)
		}
	}
}

// Ordering invariants: cashback-family text resolves ahead of the generic
// HSBC rule, and the first matching rule wins when a descriptor names two
// instruments.
func TestResolveOrdering(t *testing.T) {
	r := NewResolver(nil, nil)

	got, ok := r.Resolve("hsbc cashback statement")
	if !ok || got != "HSBC Cash" {
		t.Fatalf("cashback descriptor expected HSBC Cash, got %q (ok=%v)", got, ok)
	}

	// SBI sits above the cashback rule, so a descriptor naming both
	// resolves to SBI.
	got, ok = r.Resolve("SBI Cashback")
	if !ok || got != "SBI" {
		t.Fatalf("expected SBI to win by order, got %q (ok=%v)", got, ok)
	}
}

func TestResolveOverridesAndAutoMap(t *testing.T) {
	r := NewResolver(
		map[string]string{"My Weird Card 123": "Amex"},
		map[string]string{"mystery descriptor": "SBI"},
	)

	if got, ok := r.Resolve("My Weird Card 123"); !ok || got != "Amex" {
		t.Fatalf("override expected Amex, got %q (ok=%v)", got, ok)
	}
	if got, ok := r.Resolve("mystery descriptor"); !ok || got != "SBI" {
		t.Fatalf("auto-map expected SBI, got %q (ok=%v)", got, ok)
	}
	// Overrides are exact-match: a near miss falls through to patterns.
	if _, ok := r.Resolve("My Weird Card 124"); ok {
		t.Fatalf("near-miss override should not resolve")
	}
}

func TestDiagnostics(t *testing.T) {
	d := NewDiagnostics()
	d.Observe("unknown upi")
	d.Observe("unknown upi")
	d.Observe("other")
	if d.Unresolved["unknown upi"] != 2 {
		t.Fatalf("expected count 2, got %d", d.Unresolved["unknown upi"])
	}
	if d.Total() != 3 {
		t.Fatalf("expected total 3, got %d", d.Total())
	}
}
