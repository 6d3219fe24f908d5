package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mynamedoesntfi/cart-chrome-extension/internal/types"
)

func newTestScraper() *CartScraper {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New(types.DefaultConfig(), logger)
}

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

const cartPage = `<html><body>
<div data-name="Active Items">
	<div class="sc-list-item">
		<a class="sc-product-link" href="/gp/product/B001"></a>
		<img class="sc-product-image" alt="USB-C Cable" src="/images/I/cable.jpg">
		<div class="sc-product-price"><span class="a-offscreen">$9.99</span></div>
		<span class="a-dropdown-prompt">2</span>
	</div>
	<div class="sc-list-item">
		<span class="sc-product-title">Coffee Grinder</span>
		<a href="https://www.amazon.com/dp/B002"></a>
		<span class="sc-product-price">$34.50</span>
	</div>
	<div class="sc-list-item">
		<span class="sc-promo-text">Save 10% on your next order</span>
	</div>
</div>
<div data-name="Saved for later">
	<div class="sc-list-item">
		<span class="sc-promo-text">not in the active cart</span>
	</div>
</div>
</body></html>`

func TestScrapeCart(t *testing.T) {
	s := newTestScraper()
	items := s.ScrapeCart(parseDoc(t, cartPage))

	require.Len(t, items, 2)

	assert.Equal(t, types.CartItem{
		Title:      "USB-C Cable",
		Price:      "$9.99",
		Quantity:   2,
		Total:      "$9.99",
		ProductURL: "https://www.amazon.com/gp/product/B001",
		ImageURL:   "https://www.amazon.com/images/I/cable.jpg",
	}, items[0])

	assert.Equal(t, "Coffee Grinder", items[1].Title)
	assert.Equal(t, "$34.50", items[1].Price)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Equal(t, "https://www.amazon.com/dp/B002", items[1].ProductURL)
	assert.Equal(t, "", items[1].ImageURL)
}

func TestScrapeCart_TotalEqualsPrice(t *testing.T) {
	s := newTestScraper()
	items := s.ScrapeCart(parseDoc(t, cartPage))

	for _, item := range items {
		assert.Equal(t, item.Price, item.Total)
	}
}

func TestScrapeCart_SkipsContainersWithoutTitle(t *testing.T) {
	s := newTestScraper()
	items := s.ScrapeCart(parseDoc(t, `<html><body>
		<div data-name="Active Items">
			<div class="sc-list-item"><span class="sc-promo-text">promo only</span></div>
		</div>
	</body></html>`))

	assert.Empty(t, items)
}

func TestScrapeCart_PreservesDocumentOrder(t *testing.T) {
	s := newTestScraper()
	items := s.ScrapeCart(parseDoc(t, `<html><body>
		<div data-name="Active Items">
			<div class="sc-list-item"><span class="sc-product-title">First</span></div>
			<div class="sc-list-item"><span class="sc-product-title">Second</span></div>
			<div class="sc-list-item"><span class="sc-product-title">Third</span></div>
		</div>
	</body></html>`))

	require.Len(t, items, 3)
	assert.Equal(t, "First", items[0].Title)
	assert.Equal(t, "Second", items[1].Title)
	assert.Equal(t, "Third", items[2].Title)
}

func TestScrapeCart_FallsBackToWholeDocument(t *testing.T) {
	s := newTestScraper()
	items := s.ScrapeCart(parseDoc(t, `<html><body>
		<div class="sc-list-item"><span class="sc-product-title">Orphan Item</span></div>
	</body></html>`))

	require.Len(t, items, 1)
	assert.Equal(t, "Orphan Item", items[0].Title)
}

func TestScrapeCart_EmptyDocument(t *testing.T) {
	s := newTestScraper()
	items := s.ScrapeCart(parseDoc(t, `<html><body></body></html>`))

	assert.NotNil(t, items)
	assert.Empty(t, items)
}

// A node matching both container matchers is scraped once per matcher.
// The matcher list is a union with no deduplication; this pins the
// behavior down so a change to it is deliberate.
func TestScrapeCart_ContainerMatcherUnion(t *testing.T) {
	s := newTestScraper()
	items := s.ScrapeCart(parseDoc(t, `<html><body>
		<div data-name="Active Items">
			<div data-asin="B003" class="sc-list-item">
				<span class="sc-product-title">Twice Matched</span>
			</div>
		</div>
	</body></html>`))

	require.Len(t, items, 2)
	assert.Equal(t, items[0], items[1])
}
