package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mynamedoesntfi/cart-chrome-extension/export"
	"github.com/mynamedoesntfi/cart-chrome-extension/gdrive"
	"github.com/mynamedoesntfi/cart-chrome-extension/internal/types"
	"github.com/mynamedoesntfi/cart-chrome-extension/scraper"
	"github.com/mynamedoesntfi/cart-chrome-extension/utils"
)

var version = "dev"

var (
	verbose    bool
	httpOnly   bool
	timeout    time.Duration
	maxRetries int
	siteOrigin string
	outputPath string
	asCSV      bool
	toDrive    bool
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "cartexport",
		Short:   "Extract Amazon cart items and export them as CSV",
		Version: version,
		Long: `cartexport scrapes line items from a rendered Amazon cart page and
exports them as CSV, either to local disk or to Google Drive via
delegated OAuth.`,
		Example: `  # Scrape a saved cart page and print the items as JSON
  cartexport scrape cart.html

  # Render the live cart in a headless browser and write a CSV file
  cartexport export https://www.amazon.com/gp/cart/view.html

  # Upload the CSV to Google Drive instead
  cartexport export --drive cart.html`,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&httpOnly, "http-only", false, "Fetch URLs with plain HTTP instead of a headless browser")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().IntVar(&maxRetries, "retries", 3, "Maximum retry attempts when fetching pages")
	rootCmd.PersistentFlags().StringVar(&siteOrigin, "origin", "https://www.amazon.com", "Site origin used to absolutize relative URLs")

	scrapeCmd := &cobra.Command{
		Use:   "scrape [file|url|-]",
		Short: "Scrape cart items and print them",
		Args:  cobra.ExactArgs(1),
		RunE:  runScrape,
	}
	scrapeCmd.Flags().BoolVar(&asCSV, "csv", false, "Print CSV instead of JSON")

	exportCmd := &cobra.Command{
		Use:   "export [file|url|-]",
		Short: "Scrape cart items and export them as a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: timestamped filename)")
	exportCmd.Flags().BoolVar(&toDrive, "drive", false, "Upload the CSV to Google Drive instead of writing it locally")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether a Google Drive token is cached",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}

	signoutCmd := &cobra.Command{
		Use:   "signout",
		Short: "Revoke and remove the cached Google Drive token",
		Args:  cobra.NoArgs,
		RunE:  runSignOut,
	}

	rootCmd.AddCommand(scrapeCmd, exportCmd, statusCmd, signoutCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	return logger
}

func newConfig() *types.Config {
	config := types.DefaultConfig()
	config.Timeout = timeout
	config.MaxRetries = maxRetries
	config.SiteOrigin = siteOrigin
	config.UseHeadlessBrowser = !httpOnly
	return config
}

// loadDocument reads the cart document from a file, stdin ("-"), or a
// URL. URLs are rendered in a headless browser unless --http-only is
// set, since the cart list is built client-side.
func loadDocument(ctx context.Context, source string, config *types.Config, logger types.Logger) (*goquery.Document, error) {
	var html string

	switch {
	case source == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		html = string(data)

	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		if config.UseHeadlessBrowser {
			browser := utils.NewBrowserClient(config, logger)
			rendered, err := browser.RenderPage(ctx, source, scraper.CartRootSelector)
			if err != nil {
				return nil, err
			}
			html = rendered
		} else {
			client := utils.NewHTTPClient(config, logger)
			defer client.Close()
			fetched, err := client.FetchPage(ctx, source)
			if err != nil {
				return nil, err
			}
			html = fetched
		}

	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, err)
		}
		html = string(data)
	}

	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func scrapeItems(ctx context.Context, source string, config *types.Config, logger types.Logger) ([]types.CartItem, error) {
	doc, err := loadDocument(ctx, source, config, logger)
	if err != nil {
		return nil, err
	}
	return scraper.New(config, logger).ScrapeCart(doc), nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	config := newConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	items, err := scrapeItems(ctx, args[0], config, logger)
	if err != nil {
		return err
	}

	if asCSV {
		fmt.Println(export.ToCSV(items))
		return nil
	}

	jsonData, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}
	fmt.Println(string(jsonData))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	config := newConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	items, err := scrapeItems(ctx, args[0], config, logger)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return fmt.Errorf("no items to export, cart appears to be empty")
	}

	csvContent := export.ToCSV(items)
	filename := export.Filename(time.Now())

	if toDrive {
		exporter := newDriveExporter(config, logger)
		fileID, err := exporter.Export(ctx, csvContent, filename)
		if err != nil {
			return err
		}
		logger.Infof("uploaded %s to Google Drive (file id %s)", filename, fileID)
		return nil
	}

	path := outputPath
	if path == "" {
		path = filename
	}
	if err := export.WriteLocal(path, csvContent); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	logger.Infof("wrote %d items to %s", len(items), path)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	config := newConfig()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	tokens := newTokenManager(config, logger)
	if tokens.CheckSilently(ctx) {
		fmt.Println("signed in")
	} else {
		fmt.Println("signed out")
	}
	return nil
}

func runSignOut(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	config := newConfig()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	tokens := newTokenManager(config, logger)
	if err := tokens.SignOut(ctx); err != nil {
		return err
	}
	fmt.Println("signed out")
	return nil
}

func newTokenManager(config *types.Config, logger types.Logger) *gdrive.TokenManager {
	store := gdrive.NewOAuthStore(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"), config, logger)
	return gdrive.NewTokenManager(store, config, logger)
}

func newDriveExporter(config *types.Config, logger types.Logger) *gdrive.Exporter {
	tokens := newTokenManager(config, logger)
	uploader := gdrive.NewUploadClient(tokens, config, logger)
	return gdrive.NewExporter(tokens, uploader, logger)
}
