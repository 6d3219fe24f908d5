package utils

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/mynamedoesntfi/cart-chrome-extension/internal/types"
)

// BrowserClient renders pages in a headless browser. The cart page
// builds its item list with JavaScript, so a plain GET often returns
// markup without the containers the scraper needs.
type BrowserClient struct {
	config *types.Config
	logger types.Logger
}

// NewBrowserClient creates a new browser client
func NewBrowserClient(config *types.Config, logger types.Logger) *BrowserClient {
	// Suppress chromedp debug logging
	log.SetOutput(io.Discard)

	return &BrowserClient{
		config: config,
		logger: logger,
	}
}

// RenderPage navigates to the URL, waits for the page to settle, and
// returns the rendered HTML. waitSelector, when non-empty, names an
// element that must become visible before the snapshot is taken.
func (b *BrowserClient) RenderPage(ctx context.Context, url, waitSelector string) (string, error) {
	browserCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.config.Timeout)
	defer cancel()

	actions := []chromedp.Action{
		chromedp.Navigate(url),
	}
	if waitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(waitSelector))
	} else {
		actions = append(actions, chromedp.Sleep(500*time.Millisecond))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return "", fmt.Errorf("failed to render page: %w", err)
	}

	b.logger.Debugf("rendered %s (%d bytes)", url, len(html))
	return html, nil
}
