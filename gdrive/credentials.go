package gdrive

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/mynamedoesntfi/cart-chrome-extension/internal/types"
)

// OAuthStore is a file-backed CredentialStore. Silent lookups read the
// cached token file; interactive acquisition runs the authorization
// code flow against a loopback redirect, the CLI equivalent of the
// browser consent prompt.
type OAuthStore struct {
	oauth     *oauth2.Config
	tokenFile string
	logger    types.Logger
}

// NewOAuthStore creates a credential store for the given client
// credentials, scoped to file-level Drive access only.
func NewOAuthStore(clientID, clientSecret string, config *types.Config, logger types.Logger) *OAuthStore {
	return &OAuthStore{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{config.OAuthScope},
			Endpoint:     google.Endpoint,
		},
		tokenFile: config.TokenFile,
		logger:    logger,
	}
}

// GetToken returns the cached access token, refreshing it through the
// token source when expired. When no usable token exists it fails
// unless interactive acquisition is permitted.
func (s *OAuthStore) GetToken(ctx context.Context, interactive bool) (string, error) {
	if cached, err := s.loadToken(); err == nil {
		fresh, err := s.oauth.TokenSource(ctx, cached).Token()
		if err == nil {
			if fresh.AccessToken != cached.AccessToken {
				if err := s.saveToken(fresh); err != nil {
					s.logger.Warnf("failed to cache refreshed token: %v", err)
				}
			}
			return fresh.AccessToken, nil
		}
		s.logger.Debugf("cached token unusable: %v", err)
	}

	if !interactive {
		return "", fmt.Errorf("no cached token")
	}

	token, err := s.authorize(ctx)
	if err != nil {
		return "", err
	}
	if err := s.saveToken(token); err != nil {
		s.logger.Warnf("failed to cache token: %v", err)
	}
	return token.AccessToken, nil
}

// RemoveToken clears the cached token file. The stored token is only
// removed if it is the one being invalidated, so a store refreshed by
// a concurrent flow is left alone.
func (s *OAuthStore) RemoveToken(ctx context.Context, token string) error {
	cached, err := s.loadToken()
	if err != nil {
		return nil
	}
	if cached.AccessToken != token {
		return nil
	}
	if err := os.Remove(s.tokenFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// authorize runs the authorization code flow: start a loopback
// listener, send the user to the consent URL, exchange the returned
// code for a token.
func (s *OAuthStore) authorize(ctx context.Context) (*oauth2.Token, error) {
	if s.oauth.ClientID == "" {
		return nil, fmt.Errorf("no OAuth client id configured (set GOOGLE_CLIENT_ID)")
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to start loopback listener: %w", err)
	}
	defer listener.Close()

	cfg := *s.oauth
	cfg.RedirectURL = fmt.Sprintf("http://%s/", listener.Addr().String())

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)
	server := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			errCh <- fmt.Errorf("authorization response state mismatch")
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			errCh <- fmt.Errorf("authorization was refused: %s", r.URL.Query().Get("error"))
			fmt.Fprintln(w, "Authorization failed. You can close this window.")
			return
		}
		codeCh <- code
		fmt.Fprintln(w, "Authorized. You can close this window.")
	})}
	go server.Serve(listener)
	defer server.Close()

	authURL := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	s.logger.Infof("open this URL to authorize Drive access: %s", authURL)

	select {
	case code := <-codeCh:
		token, err := cfg.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("code exchange failed: %w", err)
		}
		return token, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *OAuthStore) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.tokenFile)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token file has no access token")
	}
	return &token, nil
}

func (s *OAuthStore) saveToken(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(s.tokenFile), 0700); err != nil {
		return err
	}
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return os.WriteFile(s.tokenFile, data, 0600)
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
