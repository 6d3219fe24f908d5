package export

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mynamedoesntfi/cart-chrome-extension/internal/types"
)

var csvHeader = []string{"Title", "Price", "Quantity", "Total", "Product URL", "Image URL"}

// ToCSV serializes cart items into a single CSV document: a fixed
// six-column header followed by one row per item, no trailing newline.
// An empty item list produces an empty string, not a header-only file.
func ToCSV(items []types.CartItem) string {
	if len(items) == 0 {
		return ""
	}

	lines := make([]string, 0, len(items)+1)
	lines = append(lines, strings.Join(csvHeader, ","))

	for _, item := range items {
		total := item.Total
		if total == "" {
			total = item.Price
		}
		row := []string{
			escapeField(item.Title),
			escapeField(item.Price),
			strconv.Itoa(item.Quantity),
			escapeField(total),
			escapeField(item.ProductURL),
			escapeField(item.ImageURL),
		}
		lines = append(lines, strings.Join(row, ","))
	}

	return strings.Join(lines, "\n")
}

// escapeField quotes a field only when it contains a comma, a double
// quote, or a newline, doubling any internal quotes (RFC 4180 subset).
func escapeField(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Filename builds the export filename from a timestamp, e.g.
// amazon-cart-2024-03-01T12-30-05.csv. Colons and dots are not safe in
// filenames so the ISO form is flattened to dashes, seconds precision.
func Filename(now time.Time) string {
	return "amazon-cart-" + now.UTC().Format("2006-01-02T15-04-05") + ".csv"
}

// WriteLocal writes the CSV document to disk
func WriteLocal(path, csvContent string) error {
	return os.WriteFile(path, []byte(csvContent), 0644)
}
