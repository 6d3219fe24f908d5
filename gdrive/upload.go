package gdrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/mynamedoesntfi/cart-chrome-extension/internal/types"
)

// UploadClient performs single multipart uploads of CSV documents to
// the Drive files endpoint.
type UploadClient struct {
	tokens     *TokenManager
	httpClient *http.Client
	config     *types.Config
	logger     types.Logger
}

// NewUploadClient creates a new upload client
func NewUploadClient(tokens *TokenManager, config *types.Config, logger types.Logger) *UploadClient {
	return &UploadClient{
		tokens:     tokens,
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		logger:     logger,
	}
}

type fileMetadata struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

type uploadResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends one multipart request (JSON metadata part + CSV file
// part) with bearer auth and returns the created file's object id.
// A 401 drops the local token and returns ErrAuthExpired so the caller
// can run its single re-authentication retry.
func (c *UploadClient) Upload(ctx context.Context, csvContent, filename, token string) (string, error) {
	body, contentType, err := buildMultipartBody(csvContent, filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.UploadEndpoint, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	c.logger.Debugf("uploading %s (%d bytes) to %s", filename, len(csvContent), c.config.UploadEndpoint)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var file uploadResponse
		if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
			return "", fmt.Errorf("%w: failed to parse upload response: %v", ErrUploadFailed, err)
		}
		c.logger.Infof("uploaded %s as file %s", filename, file.ID)
		return file.ID, nil

	case resp.StatusCode == http.StatusUnauthorized:
		// The server no longer accepts this token; drop the local
		// copy so the next acquisition mints a fresh one.
		c.tokens.DropToken(ctx, token)
		return "", ErrAuthExpired

	default:
		var serverErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&serverErr); err == nil && serverErr.Error.Message != "" {
			return "", fmt.Errorf("%w: %s", ErrUploadFailed, serverErr.Error.Message)
		}
		return "", fmt.Errorf("%w: unexpected status %d", ErrUploadFailed, resp.StatusCode)
	}
}

// buildMultipartBody assembles the two-part form body: a JSON
// "metadata" part naming the file, and a "file" part with the raw CSV.
func buildMultipartBody(csvContent, filename string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Disposition", `form-data; name="metadata"`)
	metaHeader.Set("Content-Type", "application/json")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return nil, "", err
	}
	meta := fileMetadata{Name: filename, MimeType: "text/csv"}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return nil, "", err
	}

	fileHeader := textproto.MIMEHeader{}
	fileHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	fileHeader.Set("Content-Type", "text/csv")
	filePart, err := writer.CreatePart(fileHeader)
	if err != nil {
		return nil, "", err
	}
	if _, err := filePart.Write([]byte(csvContent)); err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}
