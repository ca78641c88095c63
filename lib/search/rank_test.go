package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
)

func ptr(f float64) *float64 { return &f }

func candidate(title string, price *float64) models.SearchCandidate {
	return models.SearchCandidate{Title: title, Price: price, Currency: "NGN", URL: "https://jiji.ng/ad/" + title}
}

func TestRankCandidates_RelevanceOrder(t *testing.T) {
	candidates := []models.SearchCandidate{
		candidate("iPhone 14 Pro Max 256GB", ptr(700000)),
		candidate("iPhone 15 128GB Black", ptr(900000)),
		candidate("Tecno Spark 10", ptr(120000)),
	}

	ranked := rankCandidates(candidates, "iphone 15", nil)

	require.Len(t, ranked, 1)
	assert.Equal(t, "iPhone 15 128GB Black", ranked[0].Title)
}

func TestRankCandidates_PhraseBoost(t *testing.T) {
	candidates := []models.SearchCandidate{
		candidate("Galaxy case for s23 ultra", ptr(5000)),
		candidate("Samsung Galaxy S23 Ultra 512GB", ptr(950000)),
	}

	ranked := rankCandidates(candidates, "galaxy s23 ultra", nil)

	require.NotEmpty(t, ranked)
	assert.Equal(t, "Samsung Galaxy S23 Ultra 512GB", ranked[0].Title)
}

func TestRankCandidates_MinimumMatches(t *testing.T) {
	candidates := []models.SearchCandidate{
		candidate("Dell Latitude 7420 i7", ptr(450000)),
		candidate("HP keyboard", ptr(8000)),
	}

	// Multi-token query requires at least two distinct token matches.
	ranked := rankCandidates(candidates, "dell latitude laptop", nil)

	require.Len(t, ranked, 1)
	assert.Equal(t, "Dell Latitude 7420 i7", ranked[0].Title)
}

func TestRankCandidates_PriceCeiling(t *testing.T) {
	candidates := []models.SearchCandidate{
		candidate("iPhone 13 128GB", ptr(400000)),
		candidate("iPhone 13 Pro 256GB", ptr(650000)),
		candidate("iPhone 13 no price listed", nil),
	}

	ranked := rankCandidates(candidates, "iphone 13", ptr(500000))

	// Over-ceiling and unknown-price candidates are both excluded.
	require.Len(t, ranked, 1)
	assert.Equal(t, "iPhone 13 128GB", ranked[0].Title)
}

func TestRankCandidates_StopwordsIgnored(t *testing.T) {
	candidates := []models.SearchCandidate{
		candidate("Honda Accord 2015", ptr(6500000)),
	}

	ranked := rankCandidates(candidates, "honda accord for sale in lagos", nil)

	require.Len(t, ranked, 1)
}

func TestRankCandidates_EmptyQuery(t *testing.T) {
	candidates := []models.SearchCandidate{candidate("Anything", ptr(100))}

	assert.Empty(t, rankCandidates(candidates, "", nil))
	assert.Empty(t, rankCandidates(candidates, "for the in", nil))
}

func TestTokenizeQuery_Caps(t *testing.T) {
	long := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen"
	assert.Len(t, tokenizeQuery(long), maxQueryTokens)
}

func TestBuildJijiSearchURL(t *testing.T) {
	assert.Equal(t,
		"https://jiji.ng/search?query=iphone+15",
		buildJijiSearchURL("iphone 15", "", 1),
	)
	assert.Equal(t,
		"https://jiji.ng/lagos/search?query=iphone+15&page=3",
		buildJijiSearchURL("iphone 15", "Lagos", 3),
	)
}
