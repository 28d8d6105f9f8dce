package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy(" Letter-Bigram ")
	require.NoError(t, err)
	assert.Equal(t, LetterBigram, s)

	_, err = ParseStrategy("ngrams")
	assert.Error(t, err)
}

func TestParseStrategies(t *testing.T) {
	got, err := ParseStrategies("brand-name, family-name,brand-name,,")
	require.NoError(t, err)
	assert.Equal(t, []Strategy{BrandName, FamilyName}, got)

	_, err = ParseStrategies(" , ")
	assert.Error(t, err)

	_, err = ParseStrategies("digit-range,bogus")
	assert.Error(t, err)
}

func TestExtractResult(t *testing.T) {
	assert.True(t, Skipped(SkipMissingName).IsSkipped())
	r := Extracted(&CatalogEntry{Name: "Broca"})
	assert.False(t, r.IsSkipped())
	assert.Equal(t, "Broca", r.Entry.Name)
}
