package scrape

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
)

type amazonExtractor struct{}

func (amazonExtractor) Platform() models.Platform { return models.PlatformAmazon }

func (amazonExtractor) Extract(root *html.Node) models.ProductRecord {
	doc := docFrom(root)

	title := firstText(doc, "#productTitle")
	if title == "" {
		title = "Amazon Product"
	}

	price := ParsePriceNumber(firstText(doc,
		"#priceblock_ourprice",
		"#priceblock_dealprice",
		".a-price .a-offscreen",
	))

	image := firstAttr(doc, "#imgTagWrapperId img", "src")
	if image == "" {
		image = firstAttr(doc, "img", "src")
	}

	availability := models.Unknown
	if avail := firstText(doc, "#availability"); avail != "" {
		lowered := strings.ToLower(avail)
		switch {
		case strings.Contains(lowered, "in stock"):
			availability = models.Available
		case strings.Contains(lowered, "out of stock"), strings.Contains(lowered, "unavailable"):
			availability = models.Unavailable
		}
	}

	var refPrice *float64
	if old := firstText(doc, ".a-text-price .a-offscreen"); old != "" {
		refPrice = ParsePriceNumber(old)
	}

	return models.ProductRecord{
		Title:          title,
		Price:          price,
		Currency:       "USD",
		Image:          image,
		Availability:   availability,
		ReferencePrice: refPrice,
	}
}
