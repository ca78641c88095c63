// Package scrape turns raw marketplace markup into normalized product
// records. Adapters are pure functions over the parsed document: they never
// fail, never touch the network, and report an undetectable price as nil.
package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
)

// Extractor maps one marketplace's markup to a ProductRecord.
type Extractor interface {
	Platform() models.Platform
	Extract(root *html.Node) models.ProductRecord
}

// ForPlatform returns the adapter for a supported platform. Adding a
// marketplace means adding one Extractor implementation and one case here.
func ForPlatform(p models.Platform) (Extractor, bool) {
	switch p {
	case models.PlatformJumia:
		return jumiaExtractor{}, true
	case models.PlatformKonga:
		return kongaExtractor{}, true
	case models.PlatformAmazon:
		return amazonExtractor{}, true
	case models.PlatformEbay:
		return ebayExtractor{}, true
	case models.PlatformJiji:
		return jijiExtractor{}, true
	}
	return nil, false
}

// Extract parses markup and runs the platform's adapter. Unknown platforms
// and unparseable markup yield an empty best-effort record, never an error.
func Extract(p models.Platform, markup string) models.ProductRecord {
	ex, ok := ForPlatform(p)
	if !ok {
		return models.ProductRecord{Availability: models.Unknown}
	}
	root, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return models.ProductRecord{Availability: models.Unknown}
	}
	return ex.Extract(root)
}

func docFrom(root *html.Node) *goquery.Document {
	return goquery.NewDocumentFromNode(root)
}

// firstText returns the trimmed text of the first selector with a non-empty
// match, in priority order.
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func firstAttr(doc *goquery.Document, selector, attr string) string {
	if val, ok := doc.Find(selector).First().Attr(attr); ok {
		return strings.TrimSpace(val)
	}
	return ""
}

// classifyAvailability applies the shared default: no stock text means
// unknown, unless a price was found (a priced listing is assumed buyable).
func classifyAvailability(doc *goquery.Document, price *float64) models.Availability {
	body := strings.ToLower(doc.Text())
	if strings.Contains(body, "out of stock") {
		return models.Unavailable
	}
	if price != nil {
		return models.Available
	}
	return models.Unknown
}
