package gdrive

import (
	"context"
	"errors"

	"github.com/mynamedoesntfi/cart-chrome-extension/internal/types"
)

// Exporter orchestrates one cloud export: authenticate, upload, and on
// a rejected token exactly one re-authenticate + re-upload cycle.
type Exporter struct {
	tokens   *TokenManager
	uploader *UploadClient
	logger   types.Logger
}

// NewExporter creates a new Drive exporter
func NewExporter(tokens *TokenManager, uploader *UploadClient, logger types.Logger) *Exporter {
	return &Exporter{
		tokens:   tokens,
		uploader: uploader,
		logger:   logger,
	}
}

// Export uploads the CSV document and returns the created file id.
// The retry is bounded to a single cycle: anything more would risk
// prompting the user repeatedly on a persistently broken credential.
func (e *Exporter) Export(ctx context.Context, csvContent, filename string) (string, error) {
	token, err := e.tokens.AuthenticateInteractive(ctx)
	if err != nil {
		return "", err
	}

	fileID, err := e.uploader.Upload(ctx, csvContent, filename, token)
	if err == nil {
		return fileID, nil
	}
	if !errors.Is(err, ErrAuthExpired) {
		return "", err
	}

	e.logger.Info("token rejected by server, retrying once with a fresh token")
	fresh, err := e.tokens.AuthenticateInteractive(ctx)
	if err != nil {
		return "", err
	}
	return e.uploader.Upload(ctx, csvContent, filename, fresh)
}
