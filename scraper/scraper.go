package scraper

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/mynamedoesntfi/cart-chrome-extension/internal/types"
)

// Amazon renders the active cart inside a labeled container; when the
// label is missing (page variants, saved-for-later-only carts) we fall
// back to scanning the whole document so a markup shift degrades
// gracefully instead of returning nothing.
const CartRootSelector = `div[data-name="Active Items"]`

// Container matchers, most specific first. The two matchers are a
// union: every node matching either one is a candidate.
var containerSelectors = []string{
	`div[data-asin]`,
	`.sc-list-item`,
}

// Field fallback lists. Ordering encodes reliability: stable attribute
// markers first, structured text second, broad selectors last.
var (
	titleRules = []lookupRule{
		attrRule{selector: "img.sc-product-image", attr: "alt"},
		textRule{selectors: []string{".sc-product-title", ".a-truncate-full"}},
		textRule{selectors: []string{"h4"}},
	}

	// Amazon renders the price twice: an offscreen copy for screen
	// readers and a styled visual copy. The offscreen copy is plain
	// text and parses cleanly, so it wins.
	priceRules = []lookupRule{
		textRule{selectors: []string{
			".sc-product-price .a-offscreen",
			".sc-item-price-block .a-offscreen",
			".a-price .a-offscreen",
		}},
		textRule{selectors: []string{".sc-product-price", ".sc-price"}},
		textRule{selectors: []string{".a-color-price"}},
	}

	linkRules = []lookupRule{
		attrRule{selector: "a.sc-product-link", attr: "href"},
		attrRule{selector: `a[href*="/dp/"]`, attr: "href"},
		attrRule{selector: `a[href*="/gp/product"]`, attr: "href"},
	}

	imageRules = []lookupRule{
		attrRule{selector: "img.sc-product-image", attr: "src"},
		attrRule{selector: "img[src]", attr: "src"},
	}

	quantityRules = []lookupRule{
		selfAttrRule{attr: "data-quantity"},
		textRule{selectors: []string{
			`.sc-quantity-stepper [data-a-selector="value"]`,
			".a-dropdown-prompt",
		}},
		attrRule{selector: "input.sc-quantity-textfield", attr: "value"},
		attrRule{selector: "select.sc-quantity-dropdown", attr: "value"},
		attrRule{selector: "[data-quantity-value]", attr: "value"},
	}
)

// CartScraper extracts cart line items from a rendered cart document
type CartScraper struct {
	config *types.Config
	logger types.Logger
}

// New creates a new cart scraper
func New(config *types.Config, logger types.Logger) *CartScraper {
	return &CartScraper{
		config: config,
		logger: logger,
	}
}

// ScrapeCart walks the cart document and returns the line items it can
// validate, in document order. It never fails: containers that do not
// yield a title are not cart items (promotional blocks, saved-for-later
// entries) and are skipped silently, and an unrecognizable page simply
// produces an empty result.
func (s *CartScraper) ScrapeCart(doc *goquery.Document) []types.CartItem {
	root := doc.Find(CartRootSelector).First()
	if root.Length() == 0 {
		s.logger.Debug("cart root not found, scanning whole document")
		root = doc.Selection
	}

	items := []types.CartItem{}
	seen := 0
	for _, selector := range containerSelectors {
		root.Find(selector).Each(func(i int, container *goquery.Selection) {
			seen++
			if item, ok := s.scrapeItem(container); ok {
				items = append(items, item)
			}
		})
	}

	s.logger.Infof("scraped %d cart items from %d candidate containers", len(items), seen)
	return items
}

// scrapeItem assembles one CartItem from a candidate container. A
// missing title is the authoritative signal that the node is not a
// real line item.
func (s *CartScraper) scrapeItem(container *goquery.Selection) (types.CartItem, bool) {
	title := resolveField(container, titleRules)
	if title == "" {
		return types.CartItem{}, false
	}

	price := resolveField(container, priceRules)
	item := types.CartItem{
		Title:      title,
		Price:      price,
		Quantity:   resolveQuantity(container, quantityRules),
		Total:      price,
		ProductURL: resolveURL(s.config.SiteOrigin, resolveField(container, linkRules)),
		ImageURL:   resolveURL(s.config.SiteOrigin, resolveField(container, imageRules)),
	}
	return item, true
}
