package matching

import (
	"reflect"
	"testing"

	"propertyalerts/internal/types"
)

func austinHouse() types.PropertyListing {
	return types.PropertyListing{
		ID:           "prop-1",
		Title:        "Modern Bungalow",
		PriceDisplay: "$450k-$500k",
		City:         "Austin",
		State:        "TX",
		PropertyType: "House",
		Bedrooms:     3,
		Bathrooms:    2,
		Status:       types.ListingStatusApproved,
	}
}

func intPtr(n int) *int { return &n }

func TestEvaluate_AustinHouseFullMatch(t *testing.T) {
	prefs := types.BuyerPreferences{
		BudgetRange:             "400000-550000",
		PreferredAreas:          []string{"Austin"},
		PropertyTypePreferences: []string{"House"},
	}

	got := Evaluate(austinHouse(), prefs)

	want := []string{LabelPrice, LabelArea, LabelPropertyType}
	if !reflect.DeepEqual(got.MatchedCriteria, want) {
		t.Errorf("MatchedCriteria = %v, want %v", got.MatchedCriteria, want)
	}
	if got.Score != 1.0 {
		t.Errorf("Score = %v, want 1.0", got.Score)
	}
	if !got.IsMatch {
		t.Error("IsMatch = false, want true")
	}
}

func TestEvaluate_BudgetBelowListingPriceOnly(t *testing.T) {
	got := Evaluate(austinHouse(), types.BuyerPreferences{BudgetRange: "100000-200000"})

	if got.Score != 0 {
		t.Errorf("Score = %v, want 0", got.Score)
	}
	if got.IsMatch {
		t.Error("IsMatch = true, want false")
	}
	if len(got.MatchedCriteria) != 0 {
		t.Errorf("MatchedCriteria = %v, want empty", got.MatchedCriteria)
	}
}

func TestEvaluate_PriceOnlyPassScoresOne(t *testing.T) {
	got := Evaluate(austinHouse(), types.BuyerPreferences{})

	if got.Score != 1.0 || !got.IsMatch {
		t.Errorf("got %+v, want score 1.0 and a match", got)
	}
	if !reflect.DeepEqual(got.MatchedCriteria, []string{LabelPrice}) {
		t.Errorf("MatchedCriteria = %v", got.MatchedCriteria)
	}
}

func TestEvaluate_UnpricedListingAlwaysPassesPrice(t *testing.T) {
	listing := austinHouse()
	listing.PriceDisplay = "Contact Agent"
	listing.Price = nil

	got := Evaluate(listing, types.BuyerPreferences{BudgetRange: "1-2"})
	if !got.IsMatch || got.MatchedCriteria[0] != LabelPrice {
		t.Errorf("unpriced listing excluded on price: %+v", got)
	}
}

func TestEvaluate_CriteriaOrderAndThreshold(t *testing.T) {
	tests := []struct {
		name        string
		prefs       types.BuyerPreferences
		wantLabels  []string
		wantScore   float64
		wantIsMatch bool
	}{
		{
			name: "all five expressed, all pass",
			prefs: types.BuyerPreferences{
				BudgetRange:             "400000-550000",
				PreferredBedrooms:       intPtr(3),
				PreferredBathrooms:      intPtr(2),
				PreferredAreas:          []string{"austin, tx"},
				PropertyTypePreferences: []string{"Condo", "House"},
			},
			wantLabels:  []string{LabelPrice, LabelBedrooms, LabelBathrooms, LabelArea, LabelPropertyType},
			wantScore:   1.0,
			wantIsMatch: true,
		},
		{
			name: "two of five is exactly the threshold",
			prefs: types.BuyerPreferences{
				BudgetRange:             "400000-550000",
				PreferredBedrooms:       intPtr(3),
				PreferredBathrooms:      intPtr(4),
				PreferredAreas:          []string{"Denver"},
				PropertyTypePreferences: []string{"Condo"},
			},
			wantLabels:  []string{LabelPrice, LabelBedrooms},
			wantScore:   0.4,
			wantIsMatch: true,
		},
		{
			name: "one of four falls short",
			prefs: types.BuyerPreferences{
				BudgetRange:             "400000-550000",
				PreferredBedrooms:       intPtr(5),
				PreferredAreas:          []string{"Denver"},
				PropertyTypePreferences: []string{"Condo"},
			},
			wantLabels:  []string{LabelPrice},
			wantScore:   0.25,
			wantIsMatch: false,
		},
		{
			name: "bedroom minimum is inclusive",
			prefs: types.BuyerPreferences{
				BudgetRange:       "1-2",
				PreferredBedrooms: intPtr(3),
			},
			wantLabels:  []string{LabelBedrooms},
			wantScore:   0.5,
			wantIsMatch: true,
		},
		{
			name: "property type is exact",
			prefs: types.BuyerPreferences{
				BudgetRange:             "1-2",
				PropertyTypePreferences: []string{"house"},
			},
			wantLabels:  []string{},
			wantScore:   0,
			wantIsMatch: false,
		},
		{
			name: "area matches city alone case-insensitively",
			prefs: types.BuyerPreferences{
				BudgetRange:    "1-2",
				PreferredAreas: []string{"AUS"},
			},
			wantLabels:  []string{LabelArea},
			wantScore:   0.5,
			wantIsMatch: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(austinHouse(), tt.prefs)
			if !reflect.DeepEqual(got.MatchedCriteria, tt.wantLabels) {
				t.Errorf("MatchedCriteria = %v, want %v", got.MatchedCriteria, tt.wantLabels)
			}
			if got.Score != tt.wantScore {
				t.Errorf("Score = %v, want %v", got.Score, tt.wantScore)
			}
			if got.IsMatch != tt.wantIsMatch {
				t.Errorf("IsMatch = %v, want %v", got.IsMatch, tt.wantIsMatch)
			}
		})
	}
}

func TestEvaluate_IsDeterministic(t *testing.T) {
	listing := austinHouse()
	prefs := types.BuyerPreferences{
		BudgetRange:             "400000-550000",
		PreferredBedrooms:       intPtr(2),
		PreferredAreas:          []string{"Dallas", "Austin"},
		PropertyTypePreferences: []string{"House"},
	}

	first := Evaluate(listing, prefs)
	second := Evaluate(listing, prefs)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Evaluate not deterministic: %+v vs %+v", first, second)
	}
}
