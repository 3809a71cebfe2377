package recommendation

import (
	"math"
	"sort"

	"worldatlas/models"
)

const earthRadiusKm = 6371.0

const (
	sameRegionScore     = 3
	sameSubregionScore  = 2
	sharedLanguageScore = 2
	neighbourScore      = 3
	nearScore           = 2 // within nearDistanceKm
	midScore            = 1 // within midDistanceKm

	nearDistanceKm = 1000.0
	midDistanceKm  = 3000.0
)

// Haversine returns the great-circle distance between a and b in kilometres
func Haversine(a, b models.LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DistanceScore buckets a distance: +2 up to 1000 km, +1 up to 3000 km
func DistanceScore(km float64) int {
	switch {
	case km <= nearDistanceKm:
		return nearScore
	case km <= midDistanceKm:
		return midScore
	default:
		return 0
	}
}

func sharesLanguage(a, b *models.Country) bool {
	for code := range a.Languages {
		if _, ok := b.Languages[code]; ok {
			return true
		}
	}
	return false
}

// Score rates how similar target is to src. The neighbour bonus applies
// when either country lists the other in its borders; two countries that
// merely share a third neighbour get nothing for it.
func Score(src, target *models.Country) int {
	score := 0
	if src.Region != "" && src.Region == target.Region {
		score += sameRegionScore
	}
	if src.Subregion != "" && src.Subregion == target.Subregion {
		score += sameSubregionScore
	}
	if sharesLanguage(src, target) {
		score += sharedLanguageScore
	}
	if src.BordersWith(target.CCA3) || target.BordersWith(src.CCA3) {
		score += neighbourScore
	}
	if src.LatLng != nil && target.LatLng != nil {
		score += DistanceScore(Haversine(*src.LatLng, *target.LatLng))
	}
	return score
}

type scored struct {
	code  string
	score int
}

// Rank accumulates Score over every source for each candidate and returns
// the candidates with a positive total, best first. Ties keep the order in
// which candidates first scored.
func Rank(sources, candidates []*models.Country) []string {
	totals := make(map[string]int)
	var order []string

	for _, src := range sources {
		for _, target := range candidates {
			if target.CCA3 == "" || target.CCA3 == src.CCA3 {
				continue
			}
			s := Score(src, target)
			if s <= 0 {
				continue
			}
			if _, seen := totals[target.CCA3]; !seen {
				order = append(order, target.CCA3)
			}
			totals[target.CCA3] += s
		}
	}

	ranked := make([]scored, len(order))
	for i, code := range order {
		ranked[i] = scored{code: code, score: totals[code]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	codes := make([]string, len(ranked))
	for i, r := range ranked {
		codes[i] = r.code
	}
	return codes
}
