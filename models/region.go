package models

import (
	"time"
)

// RegionRollup is the precomputed aggregate of all countries in a region
type RegionRollup struct {
	Name                     string    `bson:"name" json:"name"`
	TotalPopulation          int64     `bson:"totalPopulation" json:"totalPopulation"`
	TotalArea                float64   `bson:"totalArea" json:"totalArea"`
	AveragePopulationDensity float64   `bson:"averagePopulationDensity" json:"averagePopulationDensity"`
	CountryCount             int       `bson:"countryCount" json:"countryCount"`
	TerritoryCount           int       `bson:"territoryCount" json:"territoryCount"`
	LastAggregatedAt         time.Time `bson:"lastAggregatedAt" json:"lastAggregatedAt"`
}

// RegionTotals is one row of the group-by-region query over countries
type RegionTotals struct {
	Region          string   `bson:"_id"`
	TotalPopulation int64    `bson:"totalPopulation"`
	TotalArea       float64  `bson:"totalArea"`
	Codes           []string `bson:"codes"`
}

// RegionStats is the public view of a rollup
type RegionStats struct {
	CountryCount    int     `json:"countryCount"`
	TotalPopulation int64   `json:"totalPopulation"`
	TotalArea       float64 `json:"totalArea"`
}

// RegionExtremes holds the largest and the most populous country of a region
type RegionExtremes struct {
	MaxArea       *CountrySummary `json:"maxArea"`
	MaxPopulation *CountrySummary `json:"maxPopulation"`
}

// LanguageCount is one bucket of the language distribution
type LanguageCount struct {
	Language string `bson:"_id" json:"language"`
	Count    int    `bson:"count" json:"count"`
}

// GlobalStats summarizes the whole country collection
type GlobalStats struct {
	TotalCountries  int64 `json:"totalCountries"`
	TotalPopulation int64 `json:"totalPopulation"`
	TotalRegions    int   `json:"totalRegions"`
}
