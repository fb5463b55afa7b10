package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Listing lifecycle states. Only available properties take part in batch
// match scoring.
const (
	StatusAvailable = "available"
	StatusPending   = "pending"
	StatusRented    = "rented"
	StatusDraft     = "draft"
)

type Property struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	PropID          string             `bson:"id" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Type            string             `bson:"type" json:"type"`
	Price           int                `bson:"price" json:"price"`
	State           string             `bson:"state" json:"state"`
	City            string             `bson:"city" json:"city"`
	AreaSqFt        int                `bson:"areaSqFt" json:"areaSqFt"`
	Bedrooms        int                `bson:"bedrooms" json:"bedrooms"`
	Bathrooms       int                `bson:"bathrooms" json:"bathrooms"`
	Amenities       []string           `bson:"amenities" json:"amenities"`
	PetFriendly     bool               `bson:"petFriendly" json:"petFriendly"`
	Furnished       bool               `bson:"furnished" json:"furnished"`
	ParkingIncluded bool               `bson:"parkingIncluded" json:"parkingIncluded"`
	Latitude        *float64           `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude       *float64           `bson:"longitude,omitempty" json:"longitude,omitempty"`
	Status          string             `bson:"status" json:"status"`
	AvailableFrom   time.Time          `bson:"availableFrom" json:"availableFrom"`
	CreatedBy       string             `bson:"createdBy" json:"createdBy"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
	IsFavorite      bool               `bson:"-" json:"isFavorite,omitempty"`
}
