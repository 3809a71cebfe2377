package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"worldatlas/models"
)

type SearchResolution struct {
	CountryCodes   []string `json:"countryCodes"`
	Interpretation string   `json:"interpretation"`
}

type GDPForecast struct {
	Predictions []models.GDPPoint `json:"predictions"`
	Analysis    string            `json:"analysis"`
}

type TravelRecommendation struct {
	CountryCode string   `json:"countryCode"`
	CountryName string   `json:"countryName"`
	MatchScore  int      `json:"matchScore"`
	Reasons     []string `json:"reasons"`
	Tips        []string `json:"tips"`
}

type TravelAdvice struct {
	Recommendations []TravelRecommendation `json:"recommendations"`
	Explanation     string                 `json:"explanation"`
}

// ChatTurn is one prior message of a conversation; Role is "user" or "assistant"
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatAnswer struct {
	Answer            string   `json:"answer"`
	RelatedCountries  []string `json:"relatedCountries"`
	FollowUpQuestions []string `json:"followUpQuestions"`
}

// CountryFacts is the data a comparison is grounded on
type CountryFacts struct {
	Name              string   `json:"name"`
	Population        int64    `json:"population"`
	Area              float64  `json:"area"`
	Region            string   `json:"region"`
	GDP               *float64 `json:"gdp"`
	PopulationDensity *float64 `json:"populationDensity"`
}

type ComparisonAspect struct {
	Aspect  string `json:"aspect"`
	Insight string `json:"insight"`
}

type Comparison struct {
	Summary string             `json:"summary"`
	Aspects []ComparisonAspect `json:"aspects"`
	Verdict string             `json:"verdict"`
}

// Client turns domain requests into prompts and decodes the model's JSON answers
type Client struct {
	gen Generator
}

func NewClient(gen Generator) *Client {
	return &Client{gen: gen}
}

func (c *Client) generateJSON(ctx context.Context, system, prompt string, v interface{}) error {
	text, err := c.gen.Generate(ctx, system, prompt)
	if err != nil {
		if errors.Is(err, ErrUpstream) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return DecodeJSON(text, v)
}

// ResolveCountries maps a natural-language query to cca3 codes. Codes are
// uppercased and de-duplicated, keeping the model's order.
func (c *Client) ResolveCountries(ctx context.Context, query string) (*SearchResolution, error) {
	var res SearchResolution
	if err := c.generateJSON(ctx, smartSearchInstruction, query, &res); err != nil {
		return nil, err
	}
	res.CountryCodes = normalizeCodes(res.CountryCodes)
	return &res, nil
}

// PredictGDP forecasts the next five years from a GDP history
func (c *Client) PredictGDP(ctx context.Context, countryName string, history []models.GDPPoint, lang string) (*GDPForecast, error) {
	var forecast GDPForecast
	if err := c.generateJSON(ctx, gdpInstruction(lang), gdpPrompt(countryName, history), &forecast); err != nil {
		return nil, err
	}
	if len(forecast.Predictions) == 0 {
		return nil, fmt.Errorf("%w: forecast has no predictions", ErrUpstream)
	}
	return &forecast, nil
}

// TravelAdvice recommends destinations for free-text preferences
func (c *Client) TravelAdvice(ctx context.Context, preferences, lang string) (*TravelAdvice, error) {
	var advice TravelAdvice
	if err := c.generateJSON(ctx, travelInstruction(lang), preferences, &advice); err != nil {
		return nil, err
	}
	for i := range advice.Recommendations {
		advice.Recommendations[i].CountryCode = strings.ToUpper(strings.TrimSpace(advice.Recommendations[i].CountryCode))
	}
	return &advice, nil
}

// Chat answers a question about countries in the context of prior turns
func (c *Client) Chat(ctx context.Context, question string, history []ChatTurn, lang string) (*ChatAnswer, error) {
	var answer ChatAnswer
	if err := c.generateJSON(ctx, chatInstruction(lang), chatPrompt(question, history), &answer); err != nil {
		return nil, err
	}
	answer.RelatedCountries = normalizeCodes(answer.RelatedCountries)
	return &answer, nil
}

// Compare contrasts two or more countries
func (c *Client) Compare(ctx context.Context, countries []CountryFacts, lang string) (*Comparison, error) {
	prompt, err := comparePrompt(countries)
	if err != nil {
		return nil, err
	}
	var comparison Comparison
	if err := c.generateJSON(ctx, compareInstruction(lang), prompt, &comparison); err != nil {
		return nil, err
	}
	return &comparison, nil
}

func normalizeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}
