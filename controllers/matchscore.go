package controllers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/nestmatch/rental_marketplace/backend/config"
	"github.com/nestmatch/rental_marketplace/backend/matching"
	"github.com/nestmatch/rental_marketplace/backend/models"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// Upserts during a batch recompute run on at most this many goroutines. The
// per-pair upsert is idempotent, so overlapping batch runs stay safe.
const recomputeConcurrency = 8

// matchResult is the wire shape for a single computed score. Factors is nil
// when either the preferences or the property were missing, which is how
// callers tell "no data" apart from "poorly matched".
type matchResult struct {
	UserID     string               `json:"userId"`
	PropertyID string               `json:"propertyId"`
	Score      int                  `json:"score"`
	Factors    *models.MatchFactors `json:"factors,omitempty"`
}

// rankedMatch is a match score merged with its property details for the
// ranked listing.
type rankedMatch struct {
	models.Property `bson:",inline"`
	Score           int                 `bson:"score" json:"score"`
	Factors         models.MatchFactors `bson:"factors" json:"factors"`
}

// ComputeMatchScore scores the calling user against one property and persists
// the result. A missing preference record or property degrades to score 0
// with no factors rather than an error.
func ComputeMatchScore() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(UserIDKey).(string)
		if !ok {
			log.Println("User ID missing in context")
			http.Error(w, "User ID missing in context", http.StatusUnauthorized)
			return
		}

		propertyID := mux.Vars(r)["propertyID"]
		objID, err := primitive.ObjectIDFromHex(propertyID)
		if err != nil {
			log.Printf("Invalid property ID %s: %v", propertyID, err)
			http.Error(w, "Invalid property ID", http.StatusBadRequest)
			return
		}

		result := matchResult{UserID: userID, PropertyID: propertyID}

		var prefs models.UserPreferences
		err = config.PreferenceCollection.FindOne(r.Context(), bson.M{"userID": userID}).Decode(&prefs)
		if err != nil {
			if err != mongo.ErrNoDocuments {
				log.Printf("Error fetching preferences for user %s: %v", userID, err)
				http.Error(w, "Error fetching preferences", http.StatusInternalServerError)
				return
			}
			writeMatchResult(w, result)
			return
		}

		var property models.Property
		err = config.PropertyCollection.FindOne(r.Context(), bson.M{"_id": objID}).Decode(&property)
		if err != nil {
			if err != mongo.ErrNoDocuments {
				log.Printf("Error fetching property %s: %v", propertyID, err)
				http.Error(w, "Error fetching property", http.StatusInternalServerError)
				return
			}
			writeMatchResult(w, result)
			return
		}

		score, factors := matching.Compute(prefs, property)
		if err := upsertMatchScore(r.Context(), userID, objID, score, factors); err != nil {
			log.Printf("Failed to persist match score for user %s property %s: %v", userID, propertyID, err)
			http.Error(w, "Failed to persist match score", http.StatusInternalServerError)
			return
		}

		result.Score = score
		result.Factors = &factors
		writeMatchResult(w, result)
	}
}

func writeMatchResult(w http.ResponseWriter, result matchResult) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.APIResponse{
		Success: true,
		Message: "Match score computed",
		Data:    result,
	})
}

// GetMatches returns the user's scored properties ranked best-first, each
// score row joined to its listing.
func GetMatches(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(UserIDKey).(string)
		if !ok {
			log.Println("User ID missing in context")
			http.Error(w, "User ID missing in context", http.StatusUnauthorized)
			return
		}

		cacheKey := generateCacheKey("matches", userID, r.URL.Query())

		cachedData, err := redisClient.Get(r.Context(), cacheKey).Result()
		if err == nil {
			log.Printf("Cache Hit for key: %s", cacheKey)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(cachedData))
			return
		}
		if err != redis.Nil {
			log.Printf("Redis GET error for key %s: %v", cacheKey, err)
		}

		pipeline := mongo.Pipeline{
			{
				{Key: "$match", Value: bson.M{"userID": userID}},
			},
			{
				{Key: "$sort", Value: bson.M{"score": -1}},
			},
			{
				{Key: "$limit", Value: 50},
			},
			{
				{Key: "$lookup", Value: bson.M{
					"from":         "properties",
					"localField":   "propertyID",
					"foreignField": "_id",
					"as":           "propertyDetails",
				}},
			},
			{
				{Key: "$unwind", Value: "$propertyDetails"},
			},
			{
				{Key: "$replaceWith", Value: bson.M{
					"$mergeObjects": bson.A{
						"$propertyDetails",
						bson.M{"score": "$score", "factors": "$factors"},
					},
				}},
			},
		}

		cursor, err := config.MatchScoreCollection.Aggregate(r.Context(), pipeline)
		if err != nil {
			log.Printf("Error aggregating matches for user %s: %v", userID, err)
			http.Error(w, "Failed to retrieve matches", http.StatusInternalServerError)
			return
		}
		defer cursor.Close(r.Context())

		var matches []rankedMatch
		if err := cursor.All(r.Context(), &matches); err != nil {
			log.Printf("Error decoding matches for user %s: %v", userID, err)
			http.Error(w, "Failed to decode matches", http.StatusInternalServerError)
			return
		}

		resultBytes, err := json.Marshal(models.APIResponse{
			Success: true,
			Message: "Fetched ranked matches",
			Data:    matches,
		})
		if err != nil {
			log.Printf("Failed to serialize matches: %v", err)
			http.Error(w, "Failed to encode response", http.StatusInternalServerError)
			return
		}

		err = redisClient.Set(r.Context(), cacheKey, resultBytes, 10*time.Minute).Err()
		if err != nil {
			log.Printf("Failed to cache response for key %s: %v", cacheKey, err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(resultBytes)
	}
}

// RecomputeMatches is the explicit administrative recompute for the calling
// user; preference saves run the same batch automatically.
func RecomputeMatches(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(UserIDKey).(string)
		if !ok {
			log.Println("User ID missing in context")
			http.Error(w, "User ID missing in context", http.StatusUnauthorized)
			return
		}

		scored, err := RecomputeAllForUser(r.Context(), userID)
		if err != nil {
			log.Printf("Recompute failed for user %s: %v", userID, err)
			http.Error(w, "Recompute failed", http.StatusInternalServerError)
			return
		}

		go func() {
			deleteCacheByPattern(redisClient, matchCachePattern)
		}()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.APIResponse{
			Success: true,
			Message: "Match scores recomputed",
			Data:    map[string]int{"propertiesScored": scored},
		})
	}
}

// RecomputeAllForUser rescores the user against every available property and
// upserts one row per pair. Returns the number of properties scored. A user
// with no preference record yields zero writes, not an error.
func RecomputeAllForUser(ctx context.Context, userID string) (int, error) {
	var prefs models.UserPreferences
	err := config.PreferenceCollection.FindOne(ctx, bson.M{"userID": userID}).Decode(&prefs)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			log.Printf("No preferences for user %s, skipping recompute", userID)
			return 0, nil
		}
		return 0, err
	}

	cursor, err := config.PropertyCollection.Find(ctx, bson.M{"status": models.StatusAvailable})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var properties []models.Property
	if err := cursor.All(ctx, &properties); err != nil {
		return 0, err
	}

	return scoreAvailableProperties(ctx, prefs, properties, func(upsertCtx context.Context, propertyID primitive.ObjectID, score int, factors models.MatchFactors) error {
		return upsertMatchScore(upsertCtx, userID, propertyID, score, factors)
	})
}

// scoreAvailableProperties scores the preferences against each available
// property and hands every result to upsert, skipping pending, rented and
// draft listings. Returns the number of properties scored. Upserts run on a
// bounded errgroup; the callback must be safe for concurrent use.
func scoreAvailableProperties(ctx context.Context, prefs models.UserPreferences, properties []models.Property, upsert func(ctx context.Context, propertyID primitive.ObjectID, score int, factors models.MatchFactors) error) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recomputeConcurrency)

	scored := 0
	for _, property := range properties {
		if property.Status != models.StatusAvailable {
			continue
		}
		scored++
		property := property
		g.Go(func() error {
			score, factors := matching.Compute(prefs, property)
			return upsert(gctx, property.ID, score, factors)
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return scored, nil
}

// upsertMatchScore writes the score for one (user, property) pair. The atomic
// insert-or-update against the unique compound index avoids duplicate-key
// races between overlapping batch runs; there is no read-then-write.
func upsertMatchScore(ctx context.Context, userID string, propertyID primitive.ObjectID, score int, factors models.MatchFactors) error {
	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"score":     score,
			"factors":   factors,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	_, err := config.MatchScoreCollection.UpdateOne(
		ctx,
		bson.M{"userID": userID, "propertyID": propertyID},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}
