package scrape

import (
	"golang.org/x/net/html"

	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
)

type jumiaExtractor struct{}

func (jumiaExtractor) Platform() models.Platform { return models.PlatformJumia }

func (jumiaExtractor) Extract(root *html.Node) models.ProductRecord {
	doc := docFrom(root)

	title := firstText(doc, "h1")
	if title == "" {
		title = "Jumia Product"
	}

	// Jumia leans on utility classes; these drift, so try a few.
	price := ParsePriceNumber(firstText(doc, "[data-price]", ".-b.-ltr.-tal.-fs24", ".-fs24"))

	image := firstAttr(doc, "img", "src")
	if image == "" {
		image = ExtractImageURL(root)
	}

	var refPrice *float64
	if old := firstText(doc, "del", ".-tal.-gy5"); old != "" {
		refPrice = ParsePriceNumber(old)
	}

	return models.ProductRecord{
		Title:          title,
		Price:          price,
		Currency:       "NGN",
		Image:          image,
		Availability:   classifyAvailability(doc, price),
		ReferencePrice: refPrice,
	}
}
