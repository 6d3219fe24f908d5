package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mynamedoesntfi/cart-chrome-extension/internal/types"
	"github.com/mynamedoesntfi/cart-chrome-extension/scraper"
)

// ScrapeRequest is the message shape the popup layer sends.
type ScrapeRequest struct {
	Type string `json:"type"`
	HTML string `json:"html"`
}

// Responses carry exactly one of items or error.
type itemsResponse struct {
	Items []types.CartItem `json:"items"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server holds the API server configuration
type Server struct {
	logger *logrus.Logger
	config *types.Config
}

// NewServer creates a new API server
func NewServer() *Server {
	// Load .env file if present
	_ = godotenv.Load()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})
	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := logrus.ParseLevel(levelStr); err == nil {
			logger.SetLevel(level)
		}
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Server{
		logger: logger,
		config: types.DefaultConfig(),
	}
}

// handleScrape handles the SCRAPE_CART message: the request carries a
// rendered cart document and the response carries either items or an
// error string, never both.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		s.sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Type != "SCRAPE_CART" {
		s.sendError(w, fmt.Sprintf("unsupported message type: %q", req.Type), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.HTML) == "" {
		s.sendError(w, "no cart document in request", http.StatusBadRequest)
		return
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(req.HTML))
	if err != nil {
		s.sendError(w, "failed to parse cart document", http.StatusBadRequest)
		return
	}

	items := scraper.New(s.config, s.logger).ScrapeCart(doc)

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(itemsResponse{Items: items}); err != nil {
		s.logger.Errorf("failed to encode response: %v", err)
	}
}

// sendError sends an error-shaped response
func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: message}); err != nil {
		s.logger.Errorf("failed to encode error response: %v", err)
	}
}

// handleHealth handles the health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// Start starts the API server
func (s *Server) Start(port string) error {
	http.HandleFunc("/scrape", s.handleScrape)
	http.HandleFunc("/health", s.handleHealth)

	s.logger.Infof("Starting API server on port %s", port)
	s.logger.Info("Available endpoints:")
	s.logger.Info("  POST /scrape - Scrape cart items from a rendered document")
	s.logger.Info("  GET  /health - Health check")

	return http.ListenAndServe(":"+port, nil)
}

func main() {
	serverPort := "8080"
	if envPort := os.Getenv("API_PORT"); envPort != "" {
		serverPort = envPort
	}

	server := NewServer()
	log.Fatal(server.Start(serverPort))
}
