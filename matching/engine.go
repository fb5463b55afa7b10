package matching

import (
	"math"

	"github.com/nestmatch/rental_marketplace/backend/models"
)

// Sub-score caps. The five factors sum to at most 100.
const (
	MaxBudgetScore   = 30
	MaxBedroomScore  = 25
	MaxAmenityScore  = 20
	MaxLocationScore = 15
	MaxFeatureScore  = 10
)

// Neutral defaults applied when the user has not expressed a preference for
// a factor.
const (
	neutralBedroomScore  = 10
	neutralAmenityScore  = 10
	neutralLocationScore = 8
)

const earthRadiusMiles = 3959

// Compute scores a property against a user's preferences and returns the
// clamped total plus the per-factor breakdown. It is pure: no I/O, no shared
// state, safe to call concurrently.
func Compute(prefs models.UserPreferences, p models.Property) (int, models.MatchFactors) {
	factors := models.MatchFactors{
		BudgetScore:   ScoreBudget(p.Price, prefs.BudgetMin, prefs.BudgetMax),
		BedroomScore:  ScoreBedrooms(p.Bedrooms, prefs.PreferredBedrooms),
		AmenityScore:  ScoreAmenities(p.Amenities, prefs.PreferredAmenities),
		LocationScore: ScoreLocation(p.Latitude, p.Longitude, prefs.LocationLat, prefs.LocationLng, prefs.SearchRadius),
		FeatureScore:  ScoreFeatures(p, prefs),
	}

	total := factors.BudgetScore + factors.BedroomScore + factors.AmenityScore +
		factors.LocationScore + factors.FeatureScore
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	factors.TotalScore = total

	return total, factors
}

// ScoreBudget returns 30 for a price inside [budgetMin, budgetMax], 20 for a
// price under budget, and a decaying score for a price over budget: one point
// lost per $100 past budgetMax, starting from 15, floored at 0. The drop from
// 30 at the boundary to 15 one dollar above it is intentional.
func ScoreBudget(price, budgetMin, budgetMax int) int {
	switch {
	case price >= budgetMin && price <= budgetMax:
		return MaxBudgetScore
	case price < budgetMin:
		return 20
	default:
		score := 15 - (price-budgetMax)/100
		if score < 0 {
			return 0
		}
		return score
	}
}

// ScoreBedrooms returns 25 when the property's bedroom count is one of the
// preferred counts. Otherwise the penalty is measured against the first
// preferred count only, 5 points per bedroom of difference from a base of 15.
// An empty preference list scores a neutral 10.
func ScoreBedrooms(propertyBedrooms int, preferred []int) int {
	for _, n := range preferred {
		if propertyBedrooms == n {
			return MaxBedroomScore
		}
	}
	if len(preferred) == 0 {
		return neutralBedroomScore
	}
	diff := propertyBedrooms - preferred[0]
	if diff < 0 {
		diff = -diff
	}
	score := 15 - diff*5
	if score < 0 {
		return 0
	}
	return score
}

// ScoreAmenities returns the share of preferred amenities the property
// covers, scaled to 20. Extra amenities beyond the preferred set neither help
// nor hurt. An empty preference list scores a neutral 10.
func ScoreAmenities(propertyAmenities, preferred []string) int {
	if len(preferred) == 0 {
		return neutralAmenityScore
	}
	wanted := make(map[string]struct{}, len(preferred))
	for _, a := range preferred {
		wanted[a] = struct{}{}
	}
	matchCount := 0
	for _, a := range propertyAmenities {
		if _, ok := wanted[a]; ok {
			matchCount++
			delete(wanted, a)
		}
	}
	return matchCount * MaxAmenityScore / len(preferred)
}

// ScoreLocation returns a linear falloff from 15 at zero distance to 0 at the
// search radius, using the great-circle distance between the property and the
// user's location. If either side has no coordinates the score is a neutral 8.
// A radius of zero or less counts as out of range rather than a division
// fault.
func ScoreLocation(propLat, propLng, userLat, userLng *float64, searchRadius float64) int {
	if propLat == nil || propLng == nil || userLat == nil || userLng == nil {
		return neutralLocationScore
	}
	if searchRadius <= 0 {
		return 0
	}
	distance := DistanceMiles(*propLat, *propLng, *userLat, *userLng)
	if distance > searchRadius {
		return 0
	}
	score := int(math.Round(15 - distance*15/searchRadius))
	if score < 0 {
		return 0
	}
	return score
}

// ScoreFeatures sums three independent boolean checks. Each rewards a
// property that has a feature the user asked for, gives a small credit when
// the user did not ask for it, and nothing when the user asked and the
// property lacks it.
func ScoreFeatures(p models.Property, prefs models.UserPreferences) int {
	score := 0

	switch {
	case prefs.PetFriendly && p.PetFriendly:
		score += 3
	case !prefs.PetFriendly:
		score++
	}

	switch {
	case prefs.FurnishedPreferred && p.Furnished:
		score += 3
	case !prefs.FurnishedPreferred:
		score++
	}

	switch {
	case prefs.ParkingRequired && p.ParkingIncluded:
		score += 4
	case !prefs.ParkingRequired:
		score += 2
	}

	return score
}

// DistanceMiles computes the great-circle distance between two points via the
// spherical law of cosines. The cosine term is clamped to [-1, 1] before acos
// so floating-point overshoot on near-identical points cannot produce NaN.
func DistanceMiles(lat1, lng1, lat2, lng2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlng := (lng2 - lng1) * math.Pi / 180

	cosine := math.Cos(rlat1)*math.Cos(rlat2)*math.Cos(dlng) +
		math.Sin(rlat1)*math.Sin(rlat2)
	if cosine > 1 {
		cosine = 1
	}
	if cosine < -1 {
		cosine = -1
	}
	return earthRadiusMiles * math.Acos(cosine)
}
