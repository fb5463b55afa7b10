package controllers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nestmatch/rental_marketplace/backend/models"
)

func newListing(status string) models.Property {
	return models.Property{
		ID:       primitive.NewObjectID(),
		Title:    "Test Listing",
		Price:    1500,
		Bedrooms: 2,
		Status:   status,
	}
}

// upsertRecorder collects the property IDs handed to the upsert callback,
// which runs on multiple goroutines.
type upsertRecorder struct {
	mu     sync.Mutex
	ids    map[primitive.ObjectID]int
	scores []int
}

func (r *upsertRecorder) upsert(_ context.Context, propertyID primitive.ObjectID, score int, factors models.MatchFactors) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ids == nil {
		r.ids = make(map[primitive.ObjectID]int)
	}
	r.ids[propertyID]++
	r.scores = append(r.scores, score)
	return nil
}

func TestScoreAvailableProperties(t *testing.T) {
	prefs := models.UserPreferences{
		UserID:            "user-1",
		BudgetMin:         1000,
		BudgetMax:         2000,
		PreferredBedrooms: []int{2},
	}

	tests := []struct {
		name     string
		statuses []string
		expected int
	}{
		{"all available", []string{models.StatusAvailable, models.StatusAvailable, models.StatusAvailable}, 3},
		{"mixed statuses write one row per available listing", []string{
			models.StatusAvailable, models.StatusPending, models.StatusRented,
			models.StatusDraft, models.StatusAvailable,
		}, 2},
		{"nothing available writes nothing", []string{models.StatusPending, models.StatusRented, models.StatusDraft}, 0},
		{"empty catalog", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			properties := make([]models.Property, 0, len(tt.statuses))
			available := make(map[primitive.ObjectID]bool)
			for _, status := range tt.statuses {
				p := newListing(status)
				properties = append(properties, p)
				if status == models.StatusAvailable {
					available[p.ID] = true
				}
			}

			rec := &upsertRecorder{}
			scored, err := scoreAvailableProperties(context.Background(), prefs, properties, rec.upsert)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, scored)
			assert.Len(t, rec.ids, tt.expected)
			for id, writes := range rec.ids {
				assert.True(t, available[id], "wrote a score for a non-available listing")
				assert.Equal(t, 1, writes, "each pair must be written exactly once")
			}
			for _, score := range rec.scores {
				assert.GreaterOrEqual(t, score, 0)
				assert.LessOrEqual(t, score, 100)
			}
		})
	}

	t.Run("upsert failure surfaces", func(t *testing.T) {
		properties := []models.Property{newListing(models.StatusAvailable)}
		wantErr := errors.New("write rejected")
		_, err := scoreAvailableProperties(context.Background(), prefs, properties,
			func(context.Context, primitive.ObjectID, int, models.MatchFactors) error {
				return wantErr
			})
		assert.ErrorIs(t, err, wantErr)
	})
}
