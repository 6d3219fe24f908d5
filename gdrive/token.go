package gdrive

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mynamedoesntfi/cart-chrome-extension/internal/types"
)

// CredentialStore is the platform credential cache: a single global
// token slot owned by the host environment. Injected so the token
// lifecycle is testable with fakes.
type CredentialStore interface {
	// GetToken returns a bearer token. When interactive is false the
	// store must not prompt the user: it either has a cached token or
	// it fails.
	GetToken(ctx context.Context, interactive bool) (string, error)

	// RemoveToken drops the given token from the local cache. It does
	// not touch the authorization server.
	RemoveToken(ctx context.Context, token string) error
}

// TokenManager owns the OAuth token lifecycle: silent checks,
// interactive acquisition, sign-out with server-side revocation, and
// the local-only drop used on 401 responses.
type TokenManager struct {
	store      CredentialStore
	httpClient *http.Client
	config     *types.Config
	logger     types.Logger
}

// NewTokenManager creates a new token manager
func NewTokenManager(store CredentialStore, config *types.Config, logger types.Logger) *TokenManager {
	return &TokenManager{
		store:      store,
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		logger:     logger,
	}
}

// CheckSilently reports whether a cached token exists without ever
// prompting the user. It does not mutate the cache.
func (m *TokenManager) CheckSilently(ctx context.Context) bool {
	token, err := m.store.GetToken(ctx, false)
	if err != nil {
		m.logger.Debugf("silent token check: %v", err)
		return false
	}
	return token != ""
}

// AuthenticateInteractive obtains a bearer token, allowing the store
// to show a consent or login prompt when no cached token exists.
func (m *TokenManager) AuthenticateInteractive(ctx context.Context) (string, error) {
	token, err := m.store.GetToken(ctx, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v (required scope: %s)", ErrAuthDenied, err, m.config.OAuthScope)
	}
	if token == "" {
		return "", fmt.Errorf("%w: credential store returned an empty token", ErrAuthUnavailable)
	}
	return token, nil
}

// SignOut revokes the cached token server-side (best effort) and then
// removes it locally. A missing token is not an error: sign-out is
// idempotent. Revocation failure is logged and swallowed so a network
// hiccup cannot leave the user stuck signed in.
func (m *TokenManager) SignOut(ctx context.Context) error {
	token, err := m.store.GetToken(ctx, false)
	if err != nil || token == "" {
		return nil
	}

	if err := m.revoke(ctx, token); err != nil {
		m.logger.Warnf("token revocation failed: %v", err)
	}

	if err := m.store.RemoveToken(ctx, token); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheError, err)
	}
	return nil
}

// DropToken removes a token from the local cache only. Used when the
// server has already rejected the token: a revoke call at that point
// is pointless.
func (m *TokenManager) DropToken(ctx context.Context, token string) {
	if err := m.store.RemoveToken(ctx, token); err != nil {
		m.logger.Warnf("failed to drop rejected token from cache: %v", err)
	}
}

// revoke invalidates the token on the authorization server. The server
// answers 200 for live tokens and 400 for tokens it no longer knows;
// both count as revoked.
func (m *TokenManager) revoke(ctx context.Context, token string) error {
	revokeURL := m.config.RevokeEndpoint + "?token=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("unexpected revoke status: %d", resp.StatusCode)
	}
	return nil
}
