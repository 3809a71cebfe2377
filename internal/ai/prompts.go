package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"worldatlas/models"
)

const jsonRules = `Return ONLY valid JSON matching the response format, without Markdown or code blocks.`

const smartSearchInstruction = `You are a country expert. Given a query about countries, in English or Vietnamese, return the ISO 3166-1 alpha-3 codes (cca3) of the countries that match it.
For broad queries return at most the 30 most relevant countries.
` + jsonRules + `
Response format:
{"countryCodes": ["USA", "VNM"], "interpretation": "Brief explanation of the query"}`

func answerLanguage(lang string) string {
	if lang == "vi" {
		return "Write every text field in Vietnamese."
	}
	return "Write every text field in English."
}

func gdpInstruction(lang string) string {
	return `You are an economist. Given historical GDP data for a country in current USD, predict the GDP for the five years after the last data point, based on historical trends and regional and global conditions.
` + jsonRules + `
` + answerLanguage(lang) + `
Response format:
{"predictions": [{"year": 2024, "value": 123456789}], "analysis": "Brief explanation of the prediction"}`
}

func gdpPrompt(countryName string, history []models.GDPPoint) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Country: %s\nHistorical GDP data (current USD):\n", countryName)
	for _, p := range history {
		fmt.Fprintf(&b, "%d: %.0f\n", p.Year, p.Value)
	}
	b.WriteString("Predict GDP for the next 5 years after the last data point.")
	return b.String()
}

func travelInstruction(lang string) string {
	return `You are a travel advisor. Given a traveller's preferences, recommend up to 5 countries, each with its ISO 3166-1 alpha-3 code, a 0-100 match score, reasons and practical tips.
` + jsonRules + `
` + answerLanguage(lang) + `
Response format:
{"recommendations": [{"countryCode": "JPN", "countryName": "Japan", "matchScore": 90, "reasons": ["..."], "tips": ["..."]}], "explanation": "Overall summary"}`
}

func chatInstruction(lang string) string {
	return `You are a friendly assistant that answers questions about countries: geography, culture, economy, history and travel.
List the ISO 3166-1 alpha-3 codes of the countries your answer mentions and suggest up to 3 follow-up questions.
` + jsonRules + `
` + answerLanguage(lang) + `
Response format:
{"answer": "...", "relatedCountries": ["FRA"], "followUpQuestions": ["..."]}`
}

func chatPrompt(question string, history []ChatTurn) string {
	if len(history) == 0 {
		return question
	}
	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, turn := range history {
		role := "User"
		if turn.Role == "assistant" {
			role = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, turn.Content)
	}
	fmt.Fprintf(&b, "\nNew question: %s", question)
	return b.String()
}

func compareInstruction(lang string) string {
	return `You are a geography and economics analyst. Compare the given countries on population, area, density, economy and region.
` + jsonRules + `
` + answerLanguage(lang) + `
Response format:
{"summary": "...", "aspects": [{"aspect": "Economy", "insight": "..."}], "verdict": "..."}`
}

func comparePrompt(countries []CountryFacts) (string, error) {
	b, err := json.MarshalIndent(countries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode comparison data: %w", err)
	}
	return "Compare these countries:\n" + string(b), nil
}
