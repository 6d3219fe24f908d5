package types

import (
	"os"
	"path/filepath"
	"time"
)

// CartItem represents one line entry scraped from the cart page.
// Title is never empty; every other string field uses "" as the
// "unknown" sentinel and Quantity uses 1.
type CartItem struct {
	Title      string `json:"title"`
	ImageURL   string `json:"imageUrl"`
	Price      string `json:"price"`
	Quantity   int    `json:"quantity"`
	Total      string `json:"total"`
	ProductURL string `json:"productUrl"`
}

// Config holds the configuration for scraping and export
type Config struct {
	SiteOrigin         string
	RequestDelay       time.Duration
	MaxRetries         int
	Timeout            time.Duration
	UseHeadlessBrowser bool
	UserAgent          string

	UploadEndpoint string
	RevokeEndpoint string
	OAuthScope     string
	TokenFile      string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		SiteOrigin:         "https://www.amazon.com",
		RequestDelay:       1 * time.Second,
		MaxRetries:         3,
		Timeout:            30 * time.Second,
		UseHeadlessBrowser: true,
		UserAgent:          "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",

		UploadEndpoint: "https://www.googleapis.com/upload/drive/v3/files?uploadType=multipart",
		RevokeEndpoint: "https://oauth2.googleapis.com/revoke",
		OAuthScope:     "https://www.googleapis.com/auth/drive.file",
		TokenFile:      defaultTokenFile(),
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "cart-export", "token.json")
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
