package countrysync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"worldatlas/models"
)

// fieldGroups splits the restcountries request; the API caps the number
// of fields per call
var fieldGroups = []string{
	"name,cca2,cca3,region,subregion,capital",
	"cca3,population,area,latlng,timezones,borders",
	"cca3,languages,flags,maps,independent,unMember",
}

const (
	gdpIndicator = "NY.GDP.MKTP.CD"
	gdpYears     = 10
)

type rawCountry struct {
	CCA3 string `json:"cca3"`
	CCA2 string `json:"cca2"`
	Name struct {
		Common   string `json:"common"`
		Official string `json:"official"`
	} `json:"name"`
	Capital     []string          `json:"capital"`
	Region      string            `json:"region"`
	Subregion   string            `json:"subregion"`
	Independent *bool             `json:"independent"`
	UNMember    bool              `json:"unMember"`
	Population  int64             `json:"population"`
	Area        float64           `json:"area"`
	LatLng      []float64         `json:"latlng"`
	Timezones   []string          `json:"timezones"`
	Borders     []string          `json:"borders"`
	Languages   map[string]string `json:"languages"`
	Flags       models.Flags      `json:"flags"`
	Maps        models.Maps       `json:"maps"`
}

type gdpRecord struct {
	CountryISO3Code string   `json:"countryiso3code"`
	Date            string   `json:"date"`
	Value           *float64 `json:"value"`
}

func getJSON(ctx context.Context, client *http.Client, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch %s: HTTP %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return nil
}

// fetchGroup returns one field group keyed by cca3
func fetchGroup(ctx context.Context, client *http.Client, baseURL, fields string) (map[string]map[string]json.RawMessage, error) {
	var rows []map[string]json.RawMessage
	if err := getJSON(ctx, client, strings.TrimRight(baseURL, "/")+"/all?fields="+fields, &rows); err != nil {
		return nil, err
	}

	byCode := make(map[string]map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		var code string
		if err := json.Unmarshal(row["cca3"], &code); err != nil || code == "" {
			continue
		}
		byCode[code] = row
	}
	return byCode, nil
}

// mergeGroups overlays the field groups per cca3, later groups winning on
// shared keys, and decodes the result. Output is sorted by cca3.
func mergeGroups(groups []map[string]map[string]json.RawMessage) ([]rawCountry, error) {
	merged := make(map[string]map[string]json.RawMessage)
	for _, group := range groups {
		for code, fields := range group {
			dst, ok := merged[code]
			if !ok {
				dst = make(map[string]json.RawMessage, len(fields))
				merged[code] = dst
			}
			for k, v := range fields {
				dst[k] = v
			}
		}
	}

	codes := make([]string, 0, len(merged))
	for code := range merged {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	countries := make([]rawCountry, 0, len(codes))
	for _, code := range codes {
		doc, err := json.Marshal(merged[code])
		if err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", code, err)
		}
		var c rawCountry
		if err := json.Unmarshal(doc, &c); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", code, err)
		}
		countries = append(countries, c)
	}
	return countries, nil
}

// fetchGDP returns the GDP series per ISO3 code for the gdpYears ending at
// endYear, sorted by year
func fetchGDP(ctx context.Context, client *http.Client, baseURL string, endYear int) (map[string][]models.GDPPoint, error) {
	url := fmt.Sprintf("%s/country/all/indicator/%s?format=json&date=%d:%d&per_page=20000",
		strings.TrimRight(baseURL, "/"), gdpIndicator, endYear-gdpYears+1, endYear)

	var pages []json.RawMessage
	if err := getJSON(ctx, client, url, &pages); err != nil {
		return nil, err
	}
	if len(pages) < 2 {
		return nil, fmt.Errorf("unexpected World Bank response with %d parts", len(pages))
	}

	var records []gdpRecord
	if err := json.Unmarshal(pages[1], &records); err != nil {
		return nil, fmt.Errorf("failed to decode World Bank records: %w", err)
	}

	series := make(map[string][]models.GDPPoint)
	for _, r := range records {
		if r.CountryISO3Code == "" || r.Value == nil {
			continue
		}
		year, err := strconv.Atoi(r.Date)
		if err != nil {
			continue
		}
		series[r.CountryISO3Code] = append(series[r.CountryISO3Code], models.GDPPoint{Year: year, Value: *r.Value})
	}
	for code := range series {
		points := series[code]
		sort.Slice(points, func(i, j int) bool { return points[i].Year < points[j].Year })
	}
	return series, nil
}
