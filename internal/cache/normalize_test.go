package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextKey(t *testing.T) {
	assert.Equal(t, "countries in asia", TextKey("  Countries   in\tASIA \n"))
	assert.Equal(t, "", TextKey("   "))

	composed := "Vi\u1ec7t Nam"
	decomposed := "Vie\u0323\u0302t Nam"
	assert.Equal(t, TextKey(composed), TextKey(decomposed))
	assert.Equal(t, "việt nam", TextKey("VIỆT NAM"))
}

func TestCountryKey(t *testing.T) {
	assert.Equal(t, "VNM_en", CountryKey("vnm", "EN"))
	assert.Equal(t, "FRA_vi", CountryKey(" FRA ", "vi"))
}
