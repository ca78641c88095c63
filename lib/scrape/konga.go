package scrape

import (
	"golang.org/x/net/html"

	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
)

type kongaExtractor struct{}

func (kongaExtractor) Platform() models.Platform { return models.PlatformKonga }

func (kongaExtractor) Extract(root *html.Node) models.ProductRecord {
	doc := docFrom(root)

	title := firstText(doc, "h1")
	if title == "" {
		title = "Konga Product"
	}

	price := ParsePriceNumber(firstText(doc, `[data-testid="price"]`, ".f6", "span"))

	image := firstAttr(doc, "img", "src")
	if image == "" {
		image = ExtractImageURL(root)
	}

	var refPrice *float64
	if old := firstText(doc, "del", ".old"); old != "" {
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
