package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nestmatch/rental_marketplace/backend/models"
)

func ptr(f float64) *float64 { return &f }

func basePrefs() models.UserPreferences {
	return models.UserPreferences{
		UserID:             "user-1",
		BudgetMin:          1000,
		BudgetMax:          2000,
		PreferredBedrooms:  []int{2},
		PreferredAmenities: []string{"gym"},
	}
}

func baseProperty() models.Property {
	return models.Property{
		Title:     "Test Apartment",
		Price:     1500,
		Bedrooms:  2,
		Amenities: []string{"gym"},
		Status:    models.StatusAvailable,
	}
}

func TestScoreBudget(t *testing.T) {
	tests := []struct {
		name              string
		price, minB, maxB int
		expected          int
	}{
		{"inside budget", 1500, 1000, 2000, 30},
		{"at lower bound", 1000, 1000, 2000, 30},
		{"at upper bound", 2000, 1000, 2000, 30},
		{"under budget", 800, 1000, 2000, 20},
		{"one dollar over drops to fifteen", 2001, 1000, 2000, 15},
		{"decay one point per hundred", 2300, 1000, 2000, 12},
		{"decay at ninety nine over", 2099, 1000, 2000, 15},
		{"far over budget floors at zero", 5000, 1000, 2000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ScoreBudget(tt.price, tt.minB, tt.maxB))
		})
	}
}

func TestScoreBedrooms(t *testing.T) {
	tests := []struct {
		name      string
		bedrooms  int
		preferred []int
		expected  int
	}{
		{"exact membership", 2, []int{2}, 25},
		{"membership anywhere in list", 3, []int{1, 3}, 25},
		{"penalty uses first preference only", 2, []int{1, 3}, 10},
		{"one bedroom off", 3, []int{2}, 10},
		{"three bedrooms off floors at zero", 5, []int{2}, 0},
		{"empty preference is neutral", 4, nil, 10},
		{"studio preference", 0, []int{0}, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ScoreBedrooms(tt.bedrooms, tt.preferred))
		})
	}
}

func TestScoreAmenities(t *testing.T) {
	tests := []struct {
		name     string
		have     []string
		want     []string
		expected int
	}{
		{"no preference is neutral", []string{"gym", "pool"}, nil, 10},
		{"full coverage", []string{"gym"}, []string{"gym"}, 20},
		{"full coverage with extras", []string{"gym", "pool", "sauna"}, []string{"gym"}, 20},
		{"half coverage floors", []string{"gym"}, []string{"gym", "pool"}, 10},
		{"one of three", []string{"gym"}, []string{"gym", "pool", "sauna"}, 6},
		{"no overlap", []string{"parking"}, []string{"gym"}, 0},
		{"duplicate property amenities count once", []string{"gym", "gym"}, []string{"gym", "pool"}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ScoreAmenities(tt.have, tt.want))
		})
	}
}

func TestScoreLocation(t *testing.T) {
	t.Run("missing coordinates is neutral", func(t *testing.T) {
		assert.Equal(t, 8, ScoreLocation(nil, nil, ptr(40.7), ptr(-74.0), 10))
		assert.Equal(t, 8, ScoreLocation(ptr(40.7), ptr(-74.0), nil, nil, 10))
	})

	t.Run("same point scores full", func(t *testing.T) {
		assert.Equal(t, 15, ScoreLocation(ptr(40.7128), ptr(-74.0060), ptr(40.7128), ptr(-74.0060), 10))
	})

	t.Run("distance at radius boundary scores zero", func(t *testing.T) {
		// Pin the distance, then use it as the radius.
		d := DistanceMiles(40.7128, -74.0060, 40.7580, -73.9855)
		require.Greater(t, d, 0.0)
		assert.Equal(t, 0, ScoreLocation(ptr(40.7580), ptr(-73.9855), ptr(40.7128), ptr(-74.0060), d))
	})

	t.Run("beyond radius scores zero", func(t *testing.T) {
		// Manhattan to Newark is several miles; a one-mile radius misses it.
		assert.Equal(t, 0, ScoreLocation(ptr(40.7357), ptr(-74.1724), ptr(40.7128), ptr(-74.0060), 1))
	})

	t.Run("halfway falls off linearly", func(t *testing.T) {
		d := DistanceMiles(40.7128, -74.0060, 40.7580, -73.9855)
		got := ScoreLocation(ptr(40.7580), ptr(-73.9855), ptr(40.7128), ptr(-74.0060), 2*d)
		// 15 - 15/2 rounds to 8.
		assert.Equal(t, 8, got)
	})

	t.Run("zero radius counts as out of range", func(t *testing.T) {
		assert.Equal(t, 0, ScoreLocation(ptr(40.7128), ptr(-74.0060), ptr(40.7128), ptr(-74.0060), 0))
	})

	t.Run("negative radius counts as out of range", func(t *testing.T) {
		assert.Equal(t, 0, ScoreLocation(ptr(40.7128), ptr(-74.0060), ptr(40.7128), ptr(-74.0060), -5))
	})
}

func TestDistanceMiles(t *testing.T) {
	t.Run("identical points", func(t *testing.T) {
		assert.InDelta(t, 0, DistanceMiles(40.7128, -74.0060, 40.7128, -74.0060), 0.001)
	})

	t.Run("new york to los angeles", func(t *testing.T) {
		d := DistanceMiles(40.7128, -74.0060, 34.0522, -118.2437)
		assert.InDelta(t, 2445, d, 20)
	})

	t.Run("near identical points do not produce NaN", func(t *testing.T) {
		d := DistanceMiles(40.7128, -74.0060, 40.7128, -74.00600000001)
		assert.False(t, d != d, "distance must not be NaN")
		assert.GreaterOrEqual(t, d, 0.0)
	})
}

func TestScoreFeatures(t *testing.T) {
	tests := []struct {
		name     string
		prefs    models.UserPreferences
		prop     models.Property
		expected int
	}{
		{
			"no requirements earns flexibility credit",
			models.UserPreferences{},
			models.Property{},
			4,
		},
		{
			"all wanted and all present",
			models.UserPreferences{PetFriendly: true, FurnishedPreferred: true, ParkingRequired: true},
			models.Property{PetFriendly: true, Furnished: true, ParkingIncluded: true},
			10,
		},
		{
			"all wanted and none present",
			models.UserPreferences{PetFriendly: true, FurnishedPreferred: true, ParkingRequired: true},
			models.Property{},
			0,
		},
		{
			"pets wanted and present",
			models.UserPreferences{PetFriendly: true},
			models.Property{PetFriendly: true},
			3 + 1 + 2,
		},
		{
			"parking wanted but missing",
			models.UserPreferences{ParkingRequired: true},
			models.Property{},
			1 + 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ScoreFeatures(tt.prop, tt.prefs))
		})
	}
}

func TestCompute(t *testing.T) {
	t.Run("perfect match without geo totals 87", func(t *testing.T) {
		score, factors := Compute(basePrefs(), baseProperty())

		assert.Equal(t, 87, score)
		assert.Equal(t, 30, factors.BudgetScore)
		assert.Equal(t, 25, factors.BedroomScore)
		assert.Equal(t, 20, factors.AmenityScore)
		assert.Equal(t, 8, factors.LocationScore)
		assert.Equal(t, 4, factors.FeatureScore)
		assert.Equal(t, 87, factors.TotalScore)
	})

	t.Run("deterministic", func(t *testing.T) {
		s1, f1 := Compute(basePrefs(), baseProperty())
		s2, f2 := Compute(basePrefs(), baseProperty())
		assert.Equal(t, s1, s2)
		assert.Equal(t, f1, f2)
	})

	t.Run("bounded for hostile inputs", func(t *testing.T) {
		prefs := []models.UserPreferences{
			{},
			basePrefs(),
			{BudgetMin: 2000, BudgetMax: 1000},
			{PreferredBedrooms: []int{100}, SearchRadius: -1,
				LocationLat: ptr(40.7), LocationLng: ptr(-74.0)},
			{PreferredAmenities: []string{"a", "b", "c", "d", "e"}},
		}
		props := []models.Property{
			{},
			baseProperty(),
			{Price: 1 << 30, Bedrooms: 99},
			{Latitude: ptr(-90), Longitude: ptr(180), Amenities: []string{"a"}},
		}
		for _, pr := range prefs {
			for _, p := range props {
				score, factors := Compute(pr, p)
				assert.GreaterOrEqual(t, score, 0)
				assert.LessOrEqual(t, score, 100)
				assert.Equal(t, score, factors.TotalScore)
			}
		}
	})

	t.Run("geo bonus applies inside radius", func(t *testing.T) {
		prefs := basePrefs()
		prefs.LocationLat = ptr(40.7128)
		prefs.LocationLng = ptr(-74.0060)
		prefs.SearchRadius = 10

		prop := baseProperty()
		prop.Latitude = ptr(40.7128)
		prop.Longitude = ptr(-74.0060)

		score, factors := Compute(prefs, prop)
		assert.Equal(t, 15, factors.LocationScore)
		assert.Equal(t, 94, score)
	})
}
