package controllers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/nestmatch/rental_marketplace/backend/config"
	"github.com/nestmatch/rental_marketplace/backend/models"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func GetPreferences() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(UserIDKey).(string)
		if !ok {
			log.Println("User ID missing in context")
			http.Error(w, "User ID missing in context", http.StatusUnauthorized)
			return
		}

		var prefs models.UserPreferences
		err := config.PreferenceCollection.FindOne(r.Context(), bson.M{"userID": userID}).Decode(&prefs)
		if err != nil {
			if err == mongo.ErrNoDocuments {
				http.Error(w, "No preferences found", http.StatusNotFound)
				return
			}
			log.Printf("Error fetching preferences for user %s: %v", userID, err)
			http.Error(w, "Error fetching preferences", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.APIResponse{
			Success: true,
			Message: "Fetched preferences",
			Data:    prefs,
		})
	}
}

// SavePreferences creates or replaces the caller's preference record, then
// rescores that user against every available listing. The full rescan on
// every save is deliberate: preference edits are rare next to browsing reads.
func SavePreferences(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(UserIDKey).(string)
		if !ok {
			log.Println("User ID missing in context")
			http.Error(w, "User ID missing in context", http.StatusUnauthorized)
			return
		}

		var prefs models.UserPreferences
		if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
			log.Printf("Invalid preference payload: %v", err)
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := validateGeo(prefs.LocationLat, prefs.LocationLng); err != nil {
			log.Printf("Invalid coordinates in preferences: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if prefs.LocationLat != nil && prefs.SearchRadius <= 0 {
			log.Printf("Non-positive search radius %.2f for user %s", prefs.SearchRadius, userID)
			http.Error(w, "searchRadius must be positive when a location is set", http.StatusBadRequest)
			return
		}

		prefs.UserID = userID
		now := time.Now()

		update := bson.M{
			"$set": bson.M{
				"budgetMin":          prefs.BudgetMin,
				"budgetMax":          prefs.BudgetMax,
				"preferredBedrooms":  prefs.PreferredBedrooms,
				"preferredAmenities": prefs.PreferredAmenities,
				"petFriendly":        prefs.PetFriendly,
				"furnishedPreferred": prefs.FurnishedPreferred,
				"parkingRequired":    prefs.ParkingRequired,
				"locationLat":        prefs.LocationLat,
				"locationLng":        prefs.LocationLng,
				"searchRadius":       prefs.SearchRadius,
				"updatedAt":          now,
			},
			"$setOnInsert": bson.M{"createdAt": now},
		}

		_, err := config.PreferenceCollection.UpdateOne(
			r.Context(),
			bson.M{"userID": userID},
			update,
			options.Update().SetUpsert(true),
		)
		if err != nil {
			log.Printf("Failed to save preferences for user %s: %v", userID, err)
			http.Error(w, "Failed to save preferences", http.StatusInternalServerError)
			return
		}

		// Re-read so the response carries the stored record, createdAt
		// included.
		var saved models.UserPreferences
		if err := config.PreferenceCollection.FindOne(r.Context(), bson.M{"userID": userID}).Decode(&saved); err != nil {
			log.Printf("Failed to reload preferences for user %s: %v", userID, err)
			http.Error(w, "Failed to reload preferences", http.StatusInternalServerError)
			return
		}

		// Edge-triggered rescore against the current catalog.
		scored, err := RecomputeAllForUser(r.Context(), userID)
		if err != nil {
			log.Printf("Recompute after preference save failed for user %s: %v", userID, err)
			http.Error(w, "Preferences saved but rescoring failed", http.StatusInternalServerError)
			return
		}

		go func() {
			deleteCacheByPattern(redisClient, matchCachePattern)
		}()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.APIResponse{
			Success: true,
			Message: "Preferences saved",
			Data: map[string]interface{}{
				"preferences":      saved,
				"propertiesScored": scored,
			},
		})
	}
}
