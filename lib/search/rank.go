package search

import (
	"regexp"
	"sort"
	"strings"

	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
)

const maxQueryTokens = 12

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "or": {}, "the": {}, "for": {}, "to": {},
	"of": {}, "in": {}, "on": {}, "with": {}, "buy": {}, "sale": {},
	"used": {}, "new": {}, "brand": {}, "original": {}, "london": {},
	"lagos": {}, "abuja": {}, "nigeria": {}, "naija": {},
}

var (
	punctuation = regexp.MustCompile(`[^\w\s]`)
	multispace  = regexp.MustCompile(`\s+`)
	digitsOnly  = regexp.MustCompile(`^\d+$`)
)

func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "₦", " ")
	s = punctuation.ReplaceAllString(s, " ")
	s = multispace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// tokenizeQuery splits a query into scored tokens, dropping stopwords and
// capping length to keep noise out of long queries.
func tokenizeQuery(query string) []string {
	var tokens []string
	for _, t := range strings.Fields(normalizeText(query)) {
		if _, stop := stopwords[t]; stop {
			continue
		}
		tokens = append(tokens, t)
		if len(tokens) == maxQueryTokens {
			break
		}
	}
	return tokens
}

// scoreCandidate rates a candidate title against the query tokens.
//
// 10 points per matched token, +20 if the full query phrase appears verbatim
// in the normalized title, +8 per matching numeric token. Numbers matter
// disproportionately: "15" vs "14" is the difference between product
// generations. Returns the score and the count of distinct matched tokens.
func scoreCandidate(queryTokens []string, title string) (score, matches int) {
	if title == "" {
		return 0, 0
	}

	titleNorm := normalizeText(title)
	titleTokens := make(map[string]struct{})
	for _, t := range strings.Fields(titleNorm) {
		titleTokens[t] = struct{}{}
	}

	seen := make(map[string]struct{})
	for _, qt := range queryTokens {
		if _, dup := seen[qt]; dup {
			continue
		}
		seen[qt] = struct{}{}
		if _, ok := titleTokens[qt]; ok {
			matches++
			score += 10
		}
	}

	if phrase := strings.Join(queryTokens, " "); phrase != "" && strings.Contains(titleNorm, phrase) {
		score += 20
	}

	for _, qt := range queryTokens {
		if digitsOnly.MatchString(qt) {
			if _, ok := titleTokens[qt]; ok {
				score += 8
			}
		}
	}

	return score, matches
}

// rankCandidates filters by the price ceiling and relevance, then sorts the
// survivors best-first. Under a price ceiling, candidates with no detected
// price are excluded outright. Multi-token queries must match at least two
// distinct tokens; single-token queries need one.
func rankCandidates(candidates []models.SearchCandidate, query string, maxPrice *float64) []models.SearchCandidate {
	queryTokens := tokenizeQuery(query)
	if len(queryTokens) == 0 {
		return nil
	}

	requiredMatches := 1
	if len(queryTokens) >= 2 {
		requiredMatches = 2
	}

	type scored struct {
		models.SearchCandidate
		score   int
		matches int
	}

	kept := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if maxPrice != nil {
			if c.Price == nil || *c.Price > *maxPrice {
				continue
			}
		}

		score, matches := scoreCandidate(queryTokens, c.Title)
		if matches < requiredMatches {
			continue
		}
		kept = append(kept, scored{c, score, matches})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		return kept[i].matches > kept[j].matches
	})

	ranked := make([]models.SearchCandidate, len(kept))
	for i, s := range kept {
		ranked[i] = s.SearchCandidate
	}
	return ranked
}
