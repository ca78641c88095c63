package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
)

var nairaAmount = regexp.MustCompile(`₦\s?[\d,]+`)

// Listing pages on Jiji are classifieds, so there is never a reference
// price, and a live listing is assumed available.
type jijiExtractor struct{}

func (jijiExtractor) Platform() models.Platform { return models.PlatformJiji }

func (jijiExtractor) Extract(root *html.Node) models.ProductRecord {
	doc := docFrom(root)

	title := firstText(doc, "h1")
	if title == "" {
		title = ExtractOpenGraphTitle(root)
	}

	price := ParsePriceNumber(firstText(doc,
		`[data-testid="ad-price"]`,
		".qa-advert-price",
		".b-advert-title__price",
		".b-advert-price",
		".price",
	))
	if price == nil {
		// Last resort: scan the page text for a naira amount.
		if m := nairaAmount.FindString(doc.Text()); m != "" {
			price = ParsePriceNumber(m)
		}
	}

	image := ExtractImageURL(root)
	if image == "" {
		doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			src, _ := s.Attr("src")
			if src == "" {
				src, _ = s.Attr("data-src")
			}
			if strings.HasPrefix(src, "http") {
				image = src
				return false
			}
			return true
		})
	}

	availability := models.Available
	lowered := strings.ToLower(title)
	if strings.Contains(lowered, "not found") || strings.Contains(lowered, "404") {
		availability = models.Unavailable
	}

	return models.ProductRecord{
		Title:        title,
		Price:        price,
		Currency:     "NGN",
		Image:        image,
		Availability: availability,
	}
}
