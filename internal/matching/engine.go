// Package matching scores a property listing against one buyer's stored
// preferences. Everything here is pure: no I/O and no clock, so the same
// inputs always produce the same MatchResult.
package matching

import (
	"slices"
	"strings"

	"propertyalerts/internal/types"
)

// MatchThreshold is the minimum score for a listing to count as a match.
const MatchThreshold = 0.4

// Criterion labels, reported in evaluation order.
const (
	LabelPrice        = "Price Range"
	LabelBedrooms     = "Bedrooms"
	LabelBathrooms    = "Bathrooms"
	LabelArea         = "Preferred Area"
	LabelPropertyType = "Property Type"
)

// Evaluate scores listing against prefs. Price is always evaluated; the other
// criteria count only when the buyer expressed a preference for them.
func Evaluate(listing types.PropertyListing, prefs types.BuyerPreferences) types.MatchResult {
	var (
		total   int
		matched []string
	)
	check := func(label string, ok bool) {
		total++
		if ok {
			matched = append(matched, label)
		}
	}

	check(LabelPrice, priceMatches(listing, prefs))

	if prefs.PreferredBedrooms != nil {
		check(LabelBedrooms, listing.Bedrooms >= *prefs.PreferredBedrooms)
	}
	if prefs.PreferredBathrooms != nil {
		check(LabelBathrooms, listing.Bathrooms >= *prefs.PreferredBathrooms)
	}
	if len(prefs.PreferredAreas) > 0 {
		check(LabelArea, areaMatches(listing, prefs.PreferredAreas))
	}
	if len(prefs.PropertyTypePreferences) > 0 {
		check(LabelPropertyType, slices.Contains(prefs.PropertyTypePreferences, listing.PropertyType))
	}

	score := 0.0
	if total > 0 {
		score = float64(len(matched)) / float64(total)
	}
	if matched == nil {
		matched = []string{}
	}
	return types.MatchResult{
		IsMatch:         score >= MatchThreshold,
		Score:           score,
		MatchedCriteria: matched,
	}
}

// priceMatches passes unpriced listings so "Contact Agent" never excludes.
func priceMatches(listing types.PropertyListing, prefs types.BuyerPreferences) bool {
	r, ok := ListingPriceRange(listing.PriceDisplay, listing.Price)
	if !ok {
		return true
	}
	return r.Overlaps(ParseBudget(prefs.BudgetRange))
}

func areaMatches(listing types.PropertyListing, areas []string) bool {
	full := strings.ToLower(listing.City + ", " + listing.State)
	city := strings.ToLower(listing.City)
	for _, a := range areas {
		needle := strings.ToLower(strings.TrimSpace(a))
		if needle == "" {
			continue
		}
		if strings.Contains(full, needle) || strings.Contains(city, needle) {
			return true
		}
	}
	return false
}
