package models

import (
	"time"
)

// CountryName holds the common and official display names
type CountryName struct {
	Common   string `bson:"common" json:"common"`
	Official string `bson:"official" json:"official"`
}

// Population is a population figure with its reference year
type Population struct {
	Value int64 `bson:"value" json:"value"`
	Year  int   `bson:"year" json:"year"`
}

// LatLng is the geographic centroid of a country, in degrees
type LatLng struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// GDPPoint is one year of a GDP series, in current USD
type GDPPoint struct {
	Year  int     `bson:"year" json:"year"`
	Value float64 `bson:"value" json:"value"`
}

type Flags struct {
	PNG string `bson:"png" json:"png"`
	SVG string `bson:"svg" json:"svg"`
}

type Maps struct {
	GoogleMaps     string `bson:"googleMaps" json:"googleMaps"`
	OpenStreetMaps string `bson:"openStreetMaps" json:"openStreetMaps"`
}

// Country represents the country document. CCA3 is the primary key and
// never changes once assigned.
type Country struct {
	CCA3              string            `bson:"cca3" json:"cca3"`
	CCA2              string            `bson:"cca2" json:"cca2"`
	Name              CountryName       `bson:"name" json:"name"`
	Capital           []string          `bson:"capital,omitempty" json:"capital"`
	Region            string            `bson:"region" json:"region"`
	Subregion         string            `bson:"subregion,omitempty" json:"subregion"`
	Independent       bool              `bson:"independent" json:"independent"`
	UNMember          bool              `bson:"unMember" json:"unMember"`
	Population        Population        `bson:"population" json:"population"`
	Area              float64           `bson:"area" json:"area"`
	LatLng            *LatLng           `bson:"latlng,omitempty" json:"latlng,omitempty"`
	Timezones         []string          `bson:"timezones,omitempty" json:"timezones,omitempty"`
	Borders           []string          `bson:"borders,omitempty" json:"borders"`
	Languages         map[string]string `bson:"languages,omitempty" json:"languages"`
	GDP               []GDPPoint        `bson:"gdp,omitempty" json:"gdp,omitempty"`
	Flags             Flags             `bson:"flags" json:"flags"`
	Maps              Maps              `bson:"maps" json:"maps"`
	PopulationDensity *float64          `bson:"populationDensity" json:"populationDensity"`
	CreatedAt         time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// CountrySummary is the list-page projection of a country
type CountrySummary struct {
	CCA2       string     `json:"cca2"`
	CCA3       string     `json:"cca3"`
	Name       string     `json:"name"`
	Population Population `json:"population"`
	Region     string     `json:"region"`
	Capital    []string   `json:"capital"`
	Flag       string     `json:"flag"`
}

// CountryNameEntry is used by the search dropdowns
type CountryNameEntry struct {
	CCA3 string `json:"cca3"`
	Name string `json:"name"`
}

// Summary returns the list-page projection
func (c *Country) Summary() CountrySummary {
	return CountrySummary{
		CCA2:       c.CCA2,
		CCA3:       c.CCA3,
		Name:       c.Name.Common,
		Population: c.Population,
		Region:     c.Region,
		Capital:    c.Capital,
		Flag:       c.FlagURL(),
	}
}

// FlagURL prefers the SVG flag
func (c *Country) FlagURL() string {
	if c.Flags.SVG != "" {
		return c.Flags.SVG
	}
	return c.Flags.PNG
}

// LanguageCodes returns the set of language codes spoken in the country
func (c *Country) LanguageCodes() map[string]struct{} {
	codes := make(map[string]struct{}, len(c.Languages))
	for code := range c.Languages {
		codes[code] = struct{}{}
	}
	return codes
}

// BordersWith reports whether code is listed as a direct neighbour
func (c *Country) BordersWith(code string) bool {
	for _, b := range c.Borders {
		if b == code {
			return true
		}
	}
	return false
}

// ValidGDP returns the GDP points that carry both a year and a value,
// in their stored order.
func (c *Country) ValidGDP() []GDPPoint {
	points := make([]GDPPoint, 0, len(c.GDP))
	for _, g := range c.GDP {
		if g.Year != 0 && g.Value != 0 {
			points = append(points, g)
		}
	}
	return points
}

// LatestGDP returns the point with the greatest year, or nil when the
// series is empty.
func (c *Country) LatestGDP() *GDPPoint {
	if len(c.GDP) == 0 {
		return nil
	}
	latest := c.GDP[0]
	for _, g := range c.GDP[1:] {
		if g.Year > latest.Year {
			latest = g
		}
	}
	return &latest
}

// Density divides population by area and yields 0 for a zero or
// negative area instead of Inf/NaN.
func Density(population, area float64) float64 {
	if area <= 0 {
		return 0
	}
	return population / area
}
