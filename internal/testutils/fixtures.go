package testutils

import (
	"context"
	"testing"

	"worldatlas/db"
	"worldatlas/models"

	"github.com/stretchr/testify/require"
)

// CreateTestCountry returns a minimal country with the given code and region
func CreateTestCountry(cca3, region string) *models.Country {
	return &models.Country{
		CCA3:        cca3,
		CCA2:        cca3[:2],
		Name:        models.CountryName{Common: "Country " + cca3, Official: "Republic of " + cca3},
		Region:      region,
		Independent: true,
		Population:  models.Population{Value: 1000000, Year: 2023},
		Area:        1000,
		Languages:   map[string]string{"eng": "English"},
		Flags:       models.Flags{PNG: "https://flagcdn.com/w320/" + cca3 + ".png"},
	}
}

// SampleCountries is a small, hand-checked slice of Southeast Asia and Europe
func SampleCountries() []*models.Country {
	return []*models.Country{
		{
			CCA3: "VNM", CCA2: "VN",
			Name:        models.CountryName{Common: "Vietnam", Official: "Socialist Republic of Vietnam"},
			Capital:     []string{"Hanoi"},
			Region:      "Asia", Subregion: "South-Eastern Asia",
			Independent: true, UNMember: true,
			Population:  models.Population{Value: 98000000, Year: 2023},
			Area:        331212,
			LatLng:      &models.LatLng{Lat: 16.17, Lng: 107.83},
			Borders:     []string{"KHM", "CHN", "LAO"},
			Languages:   map[string]string{"vie": "Vietnamese"},
			GDP: []models.GDPPoint{
				{Year: 2019, Value: 331e9}, {Year: 2020, Value: 346e9},
				{Year: 2021, Value: 366e9}, {Year: 2022, Value: 408e9},
			},
			Flags: models.Flags{SVG: "https://flagcdn.com/vn.svg", PNG: "https://flagcdn.com/w320/vn.png"},
		},
		{
			CCA3: "LAO", CCA2: "LA",
			Name:        models.CountryName{Common: "Laos", Official: "Lao People's Democratic Republic"},
			Capital:     []string{"Vientiane"},
			Region:      "Asia", Subregion: "South-Eastern Asia",
			Independent: true, UNMember: true,
			Population:  models.Population{Value: 7500000, Year: 2023},
			Area:        236800,
			LatLng:      &models.LatLng{Lat: 18, Lng: 105},
			Borders:     []string{"MMR", "KHM", "CHN", "THA", "VNM"},
			Languages:   map[string]string{"lao": "Lao"},
			GDP:         []models.GDPPoint{{Year: 2021, Value: 18e9}, {Year: 2022, Value: 15e9}},
			Flags:       models.Flags{SVG: "https://flagcdn.com/la.svg"},
		},
		{
			CCA3: "THA", CCA2: "TH",
			Name:        models.CountryName{Common: "Thailand", Official: "Kingdom of Thailand"},
			Capital:     []string{"Bangkok"},
			Region:      "Asia", Subregion: "South-Eastern Asia",
			Independent: true, UNMember: true,
			Population:  models.Population{Value: 70000000, Year: 2023},
			Area:        513120,
			LatLng:      &models.LatLng{Lat: 15, Lng: 100},
			Borders:     []string{"MMR", "KHM", "LAO", "MYS"},
			Languages:   map[string]string{"tha": "Thai"},
			Flags:       models.Flags{SVG: "https://flagcdn.com/th.svg"},
		},
		{
			CCA3: "HKG", CCA2: "HK",
			Name:        models.CountryName{Common: "Hong Kong", Official: "Hong Kong Special Administrative Region of the People's Republic of China"},
			Region:      "Asia", Subregion: "Eastern Asia",
			Population:  models.Population{Value: 7500000, Year: 2023},
			Area:        1104,
			LatLng:      &models.LatLng{Lat: 22.25, Lng: 114.17},
			Borders:     []string{"CHN"},
			Languages:   map[string]string{"eng": "English", "zho": "Chinese"},
			Flags:       models.Flags{SVG: "https://flagcdn.com/hk.svg"},
		},
		{
			CCA3: "FRA", CCA2: "FR",
			Name:        models.CountryName{Common: "France", Official: "French Republic"},
			Capital:     []string{"Paris"},
			Region:      "Europe", Subregion: "Western Europe",
			Independent: true, UNMember: true,
			Population:  models.Population{Value: 68000000, Year: 2023},
			Area:        551695,
			LatLng:      &models.LatLng{Lat: 46, Lng: 2},
			Borders:     []string{"AND", "BEL", "DEU", "ITA", "LUX", "MCO", "ESP", "CHE"},
			Languages:   map[string]string{"fra": "French"},
			Flags:       models.Flags{SVG: "https://flagcdn.com/fr.svg"},
		},
		{
			CCA3: "BEL", CCA2: "BE",
			Name:        models.CountryName{Common: "Belgium", Official: "Kingdom of Belgium"},
			Capital:     []string{"Brussels"},
			Region:      "Europe", Subregion: "Western Europe",
			Independent: true, UNMember: true,
			Population:  models.Population{Value: 11600000, Year: 2023},
			Area:        30528,
			LatLng:      &models.LatLng{Lat: 50.83, Lng: 4},
			Borders:     []string{"FRA", "DEU", "LUX", "NLD"},
			Languages:   map[string]string{"deu": "German", "fra": "French", "nld": "Dutch"},
			Flags:       models.Flags{SVG: "https://flagcdn.com/be.svg"},
		},
	}
}

// SeedCountries upserts countries through repo
func SeedCountries(t *testing.T, repo db.CountryRepository, countries []*models.Country) {
	t.Helper()
	for _, c := range countries {
		require.NoError(t, repo.Upsert(context.Background(), c))
	}
}
