package models

import "time"

// Favorite is a country a user has starred. There is at most one entry per
// (user, country).
type Favorite struct {
	UserID      string    `bson:"userId" json:"userId"`
	CountryCode string    `bson:"countryCode" json:"countryCode"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}
