package matching

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Budget bounds used when a buyer has no usable budget_range.
const (
	DefaultBudgetMin = 0
	DefaultBudgetMax = 10_000_000
)

// PriceRange is a closed interval of dollar amounts. Max may be +Inf for
// open-ended display prices such as "$1.2m+".
type PriceRange struct {
	Min float64
	Max float64
}

// Overlaps reports whether the two closed intervals intersect.
func (r PriceRange) Overlaps(o PriceRange) bool {
	return r.Min <= o.Max && o.Min <= r.Max
}

// amountPattern matches one amount with an optional "$" marker and k/m
// multiplier, after "," has been stripped.
var amountPattern = regexp.MustCompile(`(\$)?\s*(\d+(?:\.\d+)?)\s*([km])?`)

type amount struct {
	value      float64
	marked     bool // carried "$" or a k/m suffix
	start, end int
}

// ParsePriceRange extracts a price interval from agent-entered display text.
// It accepts single values ("$475,000", "475k", "1.2m"), dash ranges
// ("$450k-$500k", "450,000 – 500,000") and a trailing "+" for an open upper
// bound. Two amounts form a range only when a dash is all that separates
// them. Bare numbers such as the 3 in "3-bed from $500k" lose to amounts
// written as money. ok is false when the text contains no usable number,
// e.g. "Contact Agent".
func ParsePriceRange(display string) (PriceRange, bool) {
	s := strings.ToLower(strings.TrimSpace(display))
	if s == "" {
		return PriceRange{}, false
	}
	s = strings.NewReplacer(",", "", "–", "-", "—", "-", " to ", "-").Replace(s)

	var amounts []amount
	anyMarked := false
	for _, m := range amountPattern.FindAllStringSubmatchIndex(s, -1) {
		v, err := strconv.ParseFloat(s[m[4]:m[5]], 64)
		if err != nil {
			continue
		}
		a := amount{value: v, start: m[0], end: m[1], marked: m[2] >= 0}
		if m[6] >= 0 {
			a.marked = true
			switch s[m[6]:m[7]] {
			case "k":
				a.value *= 1_000
			case "m":
				a.value *= 1_000_000
			}
		}
		anyMarked = anyMarked || a.marked
		amounts = append(amounts, a)
	}
	if len(amounts) == 0 {
		return PriceRange{}, false
	}

	for i := 0; i+1 < len(amounts); i++ {
		lo, hi := amounts[i], amounts[i+1]
		if strings.TrimSpace(s[lo.end:hi.start]) != "-" {
			continue
		}
		// With money in the text, the range must start at money and an
		// unmarked upper bound must not fall below it.
		if anyMarked && (!lo.marked || (!hi.marked && hi.value < lo.value)) {
			continue
		}
		r := PriceRange{Min: lo.value, Max: hi.value}
		if r.Min > r.Max {
			r.Min, r.Max = r.Max, r.Min
		}
		return r, true
	}

	single := amounts[0]
	for _, a := range amounts {
		if a.marked {
			single = a
			break
		}
	}
	r := PriceRange{Min: single.value, Max: single.value}
	if strings.HasSuffix(s, "+") {
		r.Max = math.Inf(1)
	}
	return r, true
}

// ListingPriceRange prefers the display text and falls back to the numeric
// price. ok is false for unpriced listings.
func ListingPriceRange(display string, price *float64) (PriceRange, bool) {
	if r, ok := ParsePriceRange(display); ok {
		return r, true
	}
	if price != nil && *price > 0 {
		return PriceRange{Min: *price, Max: *price}, true
	}
	return PriceRange{}, false
}

// ParseBudget reads a "min-max" budget string. Absent or malformed input
// yields the default budget.
func ParseBudget(budget string) PriceRange {
	def := PriceRange{Min: DefaultBudgetMin, Max: DefaultBudgetMax}
	lo, hi, found := strings.Cut(strings.TrimSpace(budget), "-")
	if !found {
		return def
	}
	minV, err1 := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	maxV, err2 := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err1 != nil || err2 != nil || minV < 0 || maxV < minV {
		return def
	}
	return PriceRange{Min: minV, Max: maxV}
}
