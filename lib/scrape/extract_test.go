package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/only1Mrjoshua/smart-price-tracker/lib/models"
)

const jumiaPage = `<!DOCTYPE html>
<html>
<head>
<meta property="og:image" content="https://ng.jumia.is/phone.jpg">
</head>
<body>
<h1>Samsung Galaxy A15 128GB Blue</h1>
<span class="-b -ltr -tal -fs24">₦ 185,500</span>
<del>₦ 220,000</del>
</body>
</html>`

func TestExtract_Jumia(t *testing.T) {
	record := Extract(models.PlatformJumia, jumiaPage)

	assert.Equal(t, "Samsung Galaxy A15 128GB Blue", record.Title)
	require.NotNil(t, record.Price)
	assert.InDelta(t, 185500, *record.Price, 0.001)
	assert.Equal(t, "NGN", record.Currency)
	require.NotNil(t, record.ReferencePrice)
	assert.InDelta(t, 220000, *record.ReferencePrice, 0.001)
	assert.Equal(t, models.Available, record.Availability)
}

const amazonPage = `<!DOCTYPE html>
<html>
<body>
<span id="productTitle"> Anker PowerCore 20000mAh Portable Charger </span>
<span class="a-price"><span class="a-offscreen">$49.99</span></span>
<span class="a-text-price"><span class="a-offscreen">$59.99</span></span>
<div id="availability"> In Stock. </div>
<div id="imgTagWrapperId"><img src="https://m.media-amazon.com/charger.jpg"></div>
</body>
</html>`

func TestExtract_Amazon(t *testing.T) {
	record := Extract(models.PlatformAmazon, amazonPage)

	assert.Equal(t, "Anker PowerCore 20000mAh Portable Charger", record.Title)
	require.NotNil(t, record.Price)
	assert.InDelta(t, 49.99, *record.Price, 0.001)
	assert.Equal(t, "USD", record.Currency)
	assert.Equal(t, "https://m.media-amazon.com/charger.jpg", record.Image)
	assert.Equal(t, models.Available, record.Availability)
	require.NotNil(t, record.ReferencePrice)
	assert.InDelta(t, 59.99, *record.ReferencePrice, 0.001)
}

func TestExtract_AmazonOutOfStock(t *testing.T) {
	page := `<html><body>
<span id="productTitle">Discontinued Gadget</span>
<div id="availability">Currently unavailable.</div>
</body></html>`

	record := Extract(models.PlatformAmazon, page)

	assert.Nil(t, record.Price)
	assert.Equal(t, models.Unavailable, record.Availability)
}

const jijiPage = `<!DOCTYPE html>
<html>
<head>
<meta property="og:title" content="Toyota Corolla 2014 Silver">
<meta property="og:image" content="https://pictures-nigeria.jijistatic.net/corolla.webp">
</head>
<body>
<h1>Toyota Corolla 2014 Silver</h1>
<div data-testid="ad-price">₦ 7,500,000</div>
</body>
</html>`

func TestExtract_Jiji(t *testing.T) {
	record := Extract(models.PlatformJiji, jijiPage)

	assert.Equal(t, "Toyota Corolla 2014 Silver", record.Title)
	require.NotNil(t, record.Price)
	assert.InDelta(t, 7500000, *record.Price, 0.001)
	assert.Equal(t, "NGN", record.Currency)
	assert.Equal(t, "https://pictures-nigeria.jijistatic.net/corolla.webp", record.Image)
	assert.Equal(t, models.Available, record.Availability)
	assert.Nil(t, record.ReferencePrice)
}

func TestExtract_JijiBodyFallbackPrice(t *testing.T) {
	page := `<html><body>
<h1>PS5 Console Disc Edition</h1>
<div class="some-rebranded-class">Asking ₦ 620,000 negotiable</div>
</body></html>`

	record := Extract(models.PlatformJiji, page)

	require.NotNil(t, record.Price)
	assert.InDelta(t, 620000, *record.Price, 0.001)
}

func TestExtract_Ebay(t *testing.T) {
	page := `<html>
<head><meta itemprop="priceCurrency" content="GBP"></head>
<body>
<h1 id="itemTitle">Nintendo Switch OLED White</h1>
<span id="prcIsum">£279.00</span>
<img id="icImg" src="https://i.ebayimg.com/switch.jpg">
</body></html>`

	record := Extract(models.PlatformEbay, page)

	assert.Equal(t, "Nintendo Switch OLED White", record.Title)
	require.NotNil(t, record.Price)
	assert.InDelta(t, 279, *record.Price, 0.001)
	assert.Equal(t, "GBP", record.Currency)
	assert.Equal(t, "https://i.ebayimg.com/switch.jpg", record.Image)
}

func TestExtract_EbayStripsTitleBoilerplate(t *testing.T) {
	// Real eBay markup pads the prefix with a non-breaking space;
	// plain ASCII spaces show up too.
	for _, prefix := range []string{"Details about   ", "Details about  \u00a0"} {
		page := `<html><body>
<h1 id="itemTitle">` + prefix + `Nintendo Switch OLED White</h1>
<span id="prcIsum">£279.00</span>
</body></html>`

		record := Extract(models.PlatformEbay, page)
		assert.Equal(t, "Nintendo Switch OLED White", record.Title)
	}
}

func TestExtract_Konga(t *testing.T) {
	page := `<html><body>
<h1>Oraimo FreePods 4</h1>
<span data-testid="price">₦ 28,900</span>
</body></html>`

	record := Extract(models.PlatformKonga, page)

	assert.Equal(t, "Oraimo FreePods 4", record.Title)
	require.NotNil(t, record.Price)
	assert.InDelta(t, 28900, *record.Price, 0.001)
	assert.Equal(t, "NGN", record.Currency)
}

func TestExtract_NoPriceYieldsNil(t *testing.T) {
	page := `<html><body><h1>Some Product</h1><p>No price anywhere.</p></body></html>`

	record := Extract(models.PlatformJumia, page)

	assert.Equal(t, "Some Product", record.Title)
	assert.Nil(t, record.Price)
	assert.Equal(t, models.Unknown, record.Availability)
}

func TestExtract_UnknownPlatform(t *testing.T) {
	record := Extract(models.Platform("craigslist"), "<html></html>")

	assert.Nil(t, record.Price)
	assert.Equal(t, models.Unknown, record.Availability)
}

func TestForPlatform_CoversAllSupported(t *testing.T) {
	for _, p := range models.SupportedPlatforms() {
		ex, ok := ForPlatform(p)
		require.True(t, ok, "platform %s", p)
		assert.Equal(t, p, ex.Platform())
	}
}
