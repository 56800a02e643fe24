package models

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category classifies an activity record.
type Category string

const (
	CategoryTransport Category = "transport"
	CategoryEnergy    Category = "energy"
	CategoryFood      Category = "food"
	CategoryWaste     Category = "waste"
	CategoryOther     Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryTransport, CategoryEnergy, CategoryFood, CategoryWaste, CategoryOther}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Activity is a single logged activity with its impact quantity.
type Activity struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	OwnerID          string             `bson:"ownerId" json:"ownerId"`
	Category         Category           `bson:"category" json:"category"`
	Kind             string             `bson:"kind,omitempty" json:"kind,omitempty"`
	Label            string             `bson:"label" json:"label"`
	Note             string             `bson:"note" json:"note"`
	Quantity         float64            `bson:"quantity" json:"quantity"`
	Unit             string             `bson:"unit,omitempty" json:"unit,omitempty"`
	OriginalQuantity *float64           `bson:"originalQuantity,omitempty" json:"originalQuantity,omitempty"`
	OccurredOn       time.Time          `bson:"occurredOn" json:"occurredOn"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the fields the engagement engine relies on.
func (a *Activity) Validate() error {
	if a.OwnerID == "" {
		return errors.New("owner is required")
	}
	if !a.Category.Valid() {
		return fmt.Errorf("unknown category %q", a.Category)
	}
	if math.IsNaN(a.Quantity) || math.IsInf(a.Quantity, 0) {
		return errors.New("quantity must be a finite number")
	}
	if a.Quantity < 0 {
		return fmt.Errorf("quantity must not be negative, got %v", a.Quantity)
	}
	if a.OccurredOn.IsZero() {
		return errors.New("occurredOn is required")
	}
	return nil
}
