package scrape

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
)

type ebayExtractor struct{}

// eBay item titles carry a boilerplate prefix; the markup pads it with a
// non-breaking space, which goquery keeps as U+00A0 rather than folding
// into ASCII whitespace.
var ebayTitlePrefix = regexp.MustCompile(`Details about[\s\x{00A0}]+`)

func (ebayExtractor) Platform() models.Platform { return models.PlatformEbay }

func (ebayExtractor) Extract(root *html.Node) models.ProductRecord {
	doc := docFrom(root)

	title := firstText(doc, "h1#itemTitle", "h1")
	title = strings.TrimSpace(ebayTitlePrefix.ReplaceAllString(title, ""))
	if title == "" {
		title = "eBay Product"
	}

	price := ParsePriceNumber(firstText(doc, "#prcIsum", ".x-price-primary span", "[itemprop=price]"))

	// eBay tends to carry the currency in an itemprop meta tag.
	currency := firstAttr(doc, `meta[itemprop="priceCurrency"]`, "content")
	if currency == "" {
		currency = "USD"
	}

	image := firstAttr(doc, "#icImg", "src")
	if image == "" {
		image = firstAttr(doc, "img", "src")
	}

	var refPrice *float64
	if old := firstText(doc, ".notranslate.ms-2", "del"); old != "" {
		refPrice = ParsePriceNumber(old)
	}

	return models.ProductRecord{
		Title:          title,
		Price:          price,
		Currency:       currency,
		Image:          image,
		Availability:   classifyAvailability(doc, price),
		ReferencePrice: refPrice,
	}
}
