package search

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
	"github.com/only1Mrjoshua/smart-price-tracker/lib/scrape"
)

const (
	jijiBaseURL = "https://jiji.ng"

	// Parse generously per page; relevance filtering happens later.
	maxCandidatesPerPage = 40
)

var nairaPrice = regexp.MustCompile(`₦\s?[\d,]+`)

var nonListingPaths = []string{
	"login", "signup", "register", "privacy", "terms", "about", "help", "contact", "search",
}

// buildJijiSearchURL builds a paged search URL, optionally scoped to a
// location slug ("lagos", "abuja", ...).
func buildJijiSearchURL(query, location string, page int) string {
	base := jijiBaseURL
	if location != "" {
		base += "/" + url.PathEscape(strings.ToLower(strings.TrimSpace(location)))
	}
	u := fmt.Sprintf("%s/search?query=%s", base, url.QueryEscape(strings.TrimSpace(query)))
	if page > 1 {
		u += fmt.Sprintf("&page=%d", page)
	}
	return u
}

// parseJijiSearchResults walks every anchor on a result page and keeps the
// ones that look like listings. Jiji's markup drifts constantly, so this
// leans on URL shape and nearby price text rather than class names.
func parseJijiSearchResults(root *html.Node, baseURL string) []models.SearchCandidate {
	doc := goquery.NewDocumentFromNode(root)

	var candidates []models.SearchCandidate
	seen := make(map[string]struct{})

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if href == "" {
			return true
		}

		listingURL := href
		if !strings.HasPrefix(href, "http") {
			listingURL = strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(href, "/")
		}

		if _, dup := seen[listingURL]; dup {
			return true
		}
		seen[listingURL] = struct{}{}

		if !isProbablyListingURL(listingURL) {
			return true
		}

		title := extractCardTitle(a)
		price := extractPriceNear(a)

		image := ""
		if img := a.Find("img").First(); img.Length() > 0 {
			image, _ = img.Attr("src")
			if image == "" {
				image, _ = img.Attr("data-src")
			}
		}

		// Junk reduction: a card needs a price or a meaningful title.
		if price == nil && title == "" {
			return true
		}

		candidates = append(candidates, models.SearchCandidate{
			Title:    title,
			Price:    price,
			Currency: "NGN",
			URL:      listingURL,
			Image:    image,
		})
		return len(candidates) < maxCandidatesPerPage
	})

	return candidates
}

// isProbablyListingURL filters menu/footer links: listing pages have /ad/
// paths, .html suffixes, or long slug-like paths.
func isProbablyListingURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	if path == "" || path == "/" {
		return false
	}

	for _, bad := range nonListingPaths {
		if strings.Contains(path, bad) {
			return false
		}
	}

	if strings.Contains(path, "/ad/") || strings.HasSuffix(path, ".html") {
		return true
	}
	return len(path) >= 20 && strings.Count(path, "/") >= 2
}

func extractCardTitle(a *goquery.Selection) string {
	for _, attr := range []string{"aria-label", "title"} {
		if t, ok := a.Attr(attr); ok && strings.TrimSpace(t) != "" {
			return strings.TrimSpace(t)
		}
	}
	// Super-short anchor text is usually "Open"/"View", not a title.
	if text := strings.TrimSpace(a.Text()); len(text) >= 8 {
		return text
	}
	return ""
}

// extractPriceNear looks for a naira amount on the anchor or its two nearest
// ancestors, where listing cards keep their price tag.
func extractPriceNear(a *goquery.Selection) *float64 {
	for _, node := range []*goquery.Selection{a, a.Parent(), a.Parent().Parent()} {
		if node.Length() == 0 {
			continue
		}
		if m := nairaPrice.FindString(node.Text()); m != "" {
			return scrape.ParsePriceNumber(m)
		}
	}
	return nil
}
