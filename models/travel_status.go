package models

import (
	"time"
)

type TravelStatus string

const (
	TravelStatusVisited TravelStatus = "visited"
	TravelStatusBucket  TravelStatus = "bucket"
	TravelStatusLiving  TravelStatus = "living"
)

// Valid reports whether s is one of the known statuses
func (s TravelStatus) Valid() bool {
	switch s {
	case TravelStatusVisited, TravelStatusBucket, TravelStatusLiving:
		return true
	}
	return false
}

// UserCountryStatus is a user's relationship to one country. There is at
// most one entry per (user, country).
type UserCountryStatus struct {
	UserID      string       `bson:"userId" json:"userId"`
	CountryCode string       `bson:"countryCode" json:"countryCode"`
	Status      TravelStatus `bson:"status" json:"status"`
	Note        string       `bson:"note" json:"note"`
	StartDate   *time.Time   `bson:"startDate,omitempty" json:"startDate"`
	EndDate     *time.Time   `bson:"endDate,omitempty" json:"endDate"`
	CreatedAt   time.Time    `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time    `bson:"updatedAt" json:"updatedAt"`
}
