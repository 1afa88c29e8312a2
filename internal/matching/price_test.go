package matching

import (
	"math"
	"testing"
)

func TestParsePriceRange(t *testing.T) {
	tests := []struct {
		in     string
		want   PriceRange
		wantOK bool
	}{
		{"$475,000", PriceRange{475000, 475000}, true},
		{"475k", PriceRange{475000, 475000}, true},
		{"$1.2M", PriceRange{1200000, 1200000}, true},
		{"$450k-$500k", PriceRange{450000, 500000}, true},
		{"$500k - $650k", PriceRange{500000, 650000}, true},
		{"450,000 – 500,000", PriceRange{450000, 500000}, true},
		{"$450k to $500k", PriceRange{450000, 500000}, true},
		{"$650k-$500k", PriceRange{500000, 650000}, true},
		{"$1.5m+", PriceRange{1500000, math.Inf(1)}, true},
		{"3-bed from $500k", PriceRange{500000, 500000}, true},
		{"3-4 beds, $450k-$500k", PriceRange{450000, 500000}, true},
		{"Offers over $1.2m - 2 car garage", PriceRange{1200000, 1200000}, true},
		{"450000-500000", PriceRange{450000, 500000}, true},
		{"$450,000-500,000", PriceRange{450000, 500000}, true},
		{"Contact Agent", PriceRange{}, false},
		{"", PriceRange{}, false},
		{"   ", PriceRange{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePriceRange(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParsePriceRange(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestListingPriceRange_FallsBackToNumericPrice(t *testing.T) {
	price := 300000.0
	got, ok := ListingPriceRange("Contact Agent", &price)
	if !ok || got != (PriceRange{300000, 300000}) {
		t.Errorf("got %+v, %v", got, ok)
	}

	zero := 0.0
	if _, ok := ListingPriceRange("", &zero); ok {
		t.Error("zero numeric price should be unusable")
	}
	if _, ok := ListingPriceRange("", nil); ok {
		t.Error("nil price should be unusable")
	}

	got, ok = ListingPriceRange("$200k", &price)
	if !ok || got.Min != 200000 {
		t.Errorf("display text should win over numeric price, got %+v", got)
	}
}

func TestParseBudget(t *testing.T) {
	def := PriceRange{DefaultBudgetMin, DefaultBudgetMax}
	tests := map[string]PriceRange{
		"400000-550000":     {400000, 550000},
		" 100000 - 200000 ": {100000, 200000},
		"":                  def,
		"lots":              def,
		"500000":            def,
		"abc-def":           def,
		"900000-100000":     def,
	}
	for in, want := range tests {
		if got := ParseBudget(in); got != want {
			t.Errorf("ParseBudget(%q) = %+v, want %+v", in, got, want)
		}
	}
}

func TestPriceRange_OverlapsIsSymmetric(t *testing.T) {
	ranges := []PriceRange{
		{0, 100},
		{50, 150},
		{100, 100},
		{101, 200},
		{300, math.Inf(1)},
		{0, 10_000_000},
	}
	for _, a := range ranges {
		for _, b := range ranges {
			if a.Overlaps(b) != b.Overlaps(a) {
				t.Errorf("Overlaps not symmetric for %+v and %+v", a, b)
			}
		}
	}

	if !(PriceRange{0, 100}).Overlaps(PriceRange{100, 100}) {
		t.Error("touching endpoints must overlap")
	}
	if (PriceRange{0, 100}).Overlaps(PriceRange{101, 200}) {
		t.Error("disjoint intervals must not overlap")
	}
}
