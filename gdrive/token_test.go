package gdrive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mynamedoesntfi/cart-chrome-extension/internal/types"
)

// fakeStore models the platform credential cache: a single token slot
// plus a persistent grant. The first interactive acquisition prompts
// the user; once the grant exists, fresh tokens are minted without a
// prompt, which is how the real cache behaves after a rejected token
// is dropped.
type fakeStore struct {
	granted   bool
	cached    string
	prompts   int
	minted    int
	getErr    error
	removeErr error
}

func (f *fakeStore) GetToken(ctx context.Context, interactive bool) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	if f.cached != "" {
		return f.cached, nil
	}
	if !interactive {
		return "", errors.New("no cached token")
	}
	if !f.granted {
		f.prompts++
		f.granted = true
	}
	f.minted++
	f.cached = fmt.Sprintf("tok-%d", f.minted)
	return f.cached, nil
}

func (f *fakeStore) RemoveToken(ctx context.Context, token string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	if f.cached == token {
		f.cached = ""
	}
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestCheckSilently(t *testing.T) {
	store := &fakeStore{}
	m := NewTokenManager(store, types.DefaultConfig(), testLogger())
	ctx := context.Background()

	assert.False(t, m.CheckSilently(ctx))
	assert.Zero(t, store.prompts)

	store.cached = "tok-1"
	assert.True(t, m.CheckSilently(ctx))
	assert.Zero(t, store.prompts)
}

func TestAuthenticateInteractive(t *testing.T) {
	store := &fakeStore{}
	m := NewTokenManager(store, types.DefaultConfig(), testLogger())

	token, err := m.AuthenticateInteractive(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, 1, store.prompts)
}

func TestAuthenticateInteractive_DeniedCarriesScope(t *testing.T) {
	store := &fakeStore{getErr: errors.New("user cancelled the consent prompt")}
	config := types.DefaultConfig()
	m := NewTokenManager(store, config, testLogger())

	_, err := m.AuthenticateInteractive(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthDenied)
	assert.Contains(t, err.Error(), "user cancelled")
	assert.Contains(t, err.Error(), config.OAuthScope)
}

func TestSignOut_NoTokenIsNoOp(t *testing.T) {
	revokeCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		revokeCalls++
	}))
	defer server.Close()

	config := types.DefaultConfig()
	config.RevokeEndpoint = server.URL
	m := NewTokenManager(&fakeStore{}, config, testLogger())

	require.NoError(t, m.SignOut(context.Background()))
	assert.Zero(t, revokeCalls)
}

func TestSignOut_RevokesAndRemoves(t *testing.T) {
	revokeCalls := 0
	var revokedToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		revokeCalls++
		revokedToken = r.URL.Query().Get("token")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := &fakeStore{cached: "tok-live"}
	config := types.DefaultConfig()
	config.RevokeEndpoint = server.URL
	m := NewTokenManager(store, config, testLogger())

	require.NoError(t, m.SignOut(context.Background()))
	assert.Equal(t, 1, revokeCalls)
	assert.Equal(t, "tok-live", revokedToken)
	assert.Empty(t, store.cached)
}

func TestSignOut_Revoke400IsAccepted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	store := &fakeStore{cached: "tok-stale"}
	config := types.DefaultConfig()
	config.RevokeEndpoint = server.URL
	m := NewTokenManager(store, config, testLogger())

	require.NoError(t, m.SignOut(context.Background()))
	assert.Empty(t, store.cached)
}

func TestSignOut_RevocationFailureDoesNotBlock(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // revoke endpoint unreachable

	store := &fakeStore{cached: "tok-live"}
	config := types.DefaultConfig()
	config.RevokeEndpoint = server.URL
	m := NewTokenManager(store, config, testLogger())

	require.NoError(t, m.SignOut(context.Background()))
	assert.Empty(t, store.cached)
}

func TestSignOut_LocalRemovalFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	store := &fakeStore{cached: "tok-live", removeErr: errors.New("cache locked")}
	config := types.DefaultConfig()
	config.RevokeEndpoint = server.URL
	m := NewTokenManager(store, config, testLogger())

	err := m.SignOut(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCacheError)
}

func TestDropToken_LocalOnly(t *testing.T) {
	revokeCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		revokeCalls++
	}))
	defer server.Close()

	store := &fakeStore{cached: "tok-rejected"}
	config := types.DefaultConfig()
	config.RevokeEndpoint = server.URL
	m := NewTokenManager(store, config, testLogger())

	m.DropToken(context.Background(), "tok-rejected")

	assert.Empty(t, store.cached)
	assert.Zero(t, revokeCalls)
}
