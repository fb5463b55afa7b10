package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserPreferences holds one preference record per user. Lat/Lng are either
// both set or both nil; SearchRadius is in miles and only meaningful when a
// location is present. The engine does not enforce BudgetMin <= BudgetMax.
type UserPreferences struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	UserID             string             `bson:"userID" json:"userId"`
	BudgetMin          int                `bson:"budgetMin" json:"budgetMin"`
	BudgetMax          int                `bson:"budgetMax" json:"budgetMax"`
	PreferredBedrooms  []int              `bson:"preferredBedrooms" json:"preferredBedrooms"`
	PreferredAmenities []string           `bson:"preferredAmenities" json:"preferredAmenities"`
	PetFriendly        bool               `bson:"petFriendly" json:"petFriendly"`
	FurnishedPreferred bool               `bson:"furnishedPreferred" json:"furnishedPreferred"`
	ParkingRequired    bool               `bson:"parkingRequired" json:"parkingRequired"`
	LocationLat        *float64           `bson:"locationLat,omitempty" json:"locationLat,omitempty"`
	LocationLng        *float64           `bson:"locationLng,omitempty" json:"locationLng,omitempty"`
	SearchRadius       float64            `bson:"searchRadius" json:"searchRadius"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}
