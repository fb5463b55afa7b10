package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MatchFactors is the per-factor breakdown persisted alongside every score so
// the UI can explain why a property ranked where it did.
type MatchFactors struct {
	BudgetScore   int `bson:"budget_score" json:"budget_score"`
	BedroomScore  int `bson:"bedroom_score" json:"bedroom_score"`
	AmenityScore  int `bson:"amenity_score" json:"amenity_score"`
	LocationScore int `bson:"location_score" json:"location_score"`
	FeatureScore  int `bson:"feature_score" json:"feature_score"`
	TotalScore    int `bson:"total_score" json:"total_score"`
}

// MatchScore is one row per (userID, propertyID), upserted in place on every
// recompute. Score is always within [0, 100].
type MatchScore struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID     string             `bson:"userID" json:"userId"`
	PropertyID primitive.ObjectID `bson:"propertyID" json:"propertyId"`
	Score      int                `bson:"score" json:"score"`
	Factors    MatchFactors       `bson:"factors" json:"factors"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}
