// Package search drives multi-page marketplace queries and ranks the raw
// candidates by relevance to the user's query.
package search

import (
	"context"
	"strings"

	"github.com/antchfx/htmlquery"
	"go.uber.org/zap"

	"github.com/only1Mrjoshua/smart-price-tracker/config"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/fetch"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
)

const (
	// DefaultLimit applies when the caller does not ask for a result count.
	DefaultLimit = 50
	MaxLimit     = 100

	// Raw collection bounds: stop paging once we have enough candidates to
	// rank from, and never hold more than the hard cap.
	minRawTarget     = 120
	rawTargetPerSlot = 4
	hardRawCap       = 400

	defaultMaxPages = 8
)

// Searcher collects search-result pages through the polite fetcher, one page
// at a time, and returns a ranked candidate list.
type Searcher struct {
	log      *zap.Logger
	fetcher  *fetch.Fetcher
	maxPages int
}

func NewSearcher(cfg *config.Config, log *zap.Logger, fetcher *fetch.Fetcher) *Searcher {
	maxPages := cfg.Search.MaxPages
	if maxPages < 1 {
		maxPages = defaultMaxPages
	}
	return &Searcher{log: log, fetcher: fetcher, maxPages: maxPages}
}

// ClampLimit normalizes a requested result count into [1, MaxLimit], using
// DefaultLimit for zero.
func ClampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultLimit
	case limit < 1:
		return 1
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// Search runs a free-text query against a marketplace and returns up to
// limit candidates, best match first. A robots disallow or block on any page
// aborts the whole search with the fetch failure; callers translate that
// into the request's blocked/error status.
func (s *Searcher) Search(ctx context.Context, platform models.Platform, query, location string, maxPrice *float64, limit int) ([]models.SearchCandidate, error) {
	if platform != models.PlatformJiji {
		return nil, &fetch.Failure{Kind: fetch.FailMalformed, Detail: "unsupported platform for search: " + string(platform)}
	}
	if strings.TrimSpace(query) == "" {
		return nil, &fetch.Failure{Kind: fetch.FailMalformed, Detail: "empty query"}
	}

	limit = ClampLimit(limit)
	rawTarget := rawTargetPerSlot * limit
	if rawTarget < minRawTarget {
		rawTarget = minRawTarget
	}

	var raw []models.SearchCandidate
	seen := make(map[string]struct{})

	for page := 1; page <= s.maxPages; page++ {
		pageURL := buildJijiSearchURL(query, location, page)

		markup, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		root, err := htmlquery.Parse(strings.NewReader(markup))
		if err != nil {
			return nil, &fetch.Failure{Kind: fetch.FailTransient, Detail: "parse search page: " + err.Error()}
		}

		pageCandidates := parseJijiSearchResults(root, jijiBaseURL)
		if len(pageCandidates) == 0 {
			break
		}

		for _, c := range pageCandidates {
			if _, dup := seen[c.URL]; dup {
				continue
			}
			seen[c.URL] = struct{}{}
			raw = append(raw, c)
		}

		s.log.Sugar().Debugw("collected search page", "page", page, "raw_total", len(raw))

		if len(raw) >= rawTarget || len(raw) >= hardRawCap {
			break
		}
	}

	ranked := rankCandidates(raw, query, maxPrice)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
