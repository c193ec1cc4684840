package oauth

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/identity-service/config"
	"go.uber.org/zap"
)

func testClientConfig(tokenServerURL string) config.KeycloakConfig {
	return config.KeycloakConfig{
		AuthServerURL: tokenServerURL,
		ClientID:      "myclient",
		ClientSecret:  "s3cret",
		RedirectURI:   "http://localhost:3000/callback",
		Scope:         "openid profile email",
	}
}

func TestExchange(t *testing.T) {
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/protocol/openid-connect/token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"access_token": "access-1",
			"refresh_token": "refresh-1",
			"id_token": "id-1",
			"expires_in": 300,
			"token_type": "Bearer",
			"scope": "openid profile email"
		}`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), zap.NewNop())

	bundle, err := client.Exchange(context.Background(), "auth-code-1")
	require.NoError(t, err)

	assert.Equal(t, "access-1", bundle.AccessToken)
	assert.Equal(t, "refresh-1", bundle.RefreshToken)
	assert.Equal(t, "id-1", bundle.IDToken)
	assert.Equal(t, 300, bundle.ExpiresIn)
	assert.Equal(t, "Bearer", bundle.TokenType)

	assert.Equal(t, "authorization_code", gotForm.Get("grant_type"))
	assert.Equal(t, "auth-code-1", gotForm.Get("code"))
	assert.Equal(t, "http://localhost:3000/callback", gotForm.Get("redirect_uri"))
	assert.Equal(t, "myclient", gotForm.Get("client_id"))
	assert.Equal(t, "s3cret", gotForm.Get("client_secret"))
}

func TestExchange_AcceptsFullTokenEndpointURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/protocol/openid-connect/token", r.URL.Path)
		_, _ = w.Write([]byte(`{"access_token":"a","id_token":"i"}`))
	}))
	defer server.Close()

	// Config may carry either the realm root or the full token URL.
	cfg := testClientConfig(server.URL + "/protocol/openid-connect/token")
	client := NewClient(cfg, zap.NewNop())

	_, err := client.Exchange(context.Background(), "code")
	require.NoError(t, err)
}

func TestExchange_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), zap.NewNop())

	_, err := client.Exchange(context.Background(), "expired-code")
	require.Error(t, err)

	var exchErr *ExchangeError
	require.ErrorAs(t, err, &exchErr)
	assert.Equal(t, http.StatusBadRequest, exchErr.StatusCode)
	assert.Contains(t, exchErr.Body, "invalid_grant")
}

func TestExchange_UndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), zap.NewNop())

	_, err := client.Exchange(context.Background(), "code")
	require.Error(t, err)

	var exchErr *ExchangeError
	require.ErrorAs(t, err, &exchErr)
	assert.Equal(t, http.StatusOK, exchErr.StatusCode)
	assert.Equal(t, "not json", exchErr.Body)
}

func TestExchange_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	client := NewClient(testClientConfig(server.URL), zap.NewNop())

	_, err := client.Exchange(context.Background(), "code")
	require.Error(t, err)

	var exchErr *ExchangeError
	assert.ErrorAs(t, err, &exchErr)
}

func TestExchange_HonorsContext(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server detects client disconnect and
		// cancels the request context; otherwise Close blocks forever.
		_, _ = io.ReadAll(r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, err := client.Exchange(ctx, "code")
		done <- err
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("exchange did not honor context cancellation")
	}
}

func TestBuildAuthorizationURL(t *testing.T) {
	got := BuildAuthorizationURL(
		"https://idp/realms/demo/protocol/openid-connect/auth",
		"myclient",
		"http://localhost:3000/callback",
		"openid profile email",
		"state-1",
	)

	parsed, err := url.Parse(got)
	require.NoError(t, err)

	assert.Equal(t, "/realms/demo/protocol/openid-connect/auth", parsed.Path)
	q := parsed.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "myclient", q.Get("client_id"))
	assert.Equal(t, "http://localhost:3000/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid profile email", q.Get("scope"))
	assert.Equal(t, "state-1", q.Get("state"))
}

func TestAuthorizationEndpoint(t *testing.T) {
	assert.Equal(t,
		"https://idp/realms/demo/protocol/openid-connect/auth",
		AuthorizationEndpoint("https://idp/realms/demo"))

	assert.Equal(t,
		"https://idp/realms/demo/protocol/openid-connect/auth",
		AuthorizationEndpoint("https://idp/realms/demo/protocol/openid-connect/token"))
}
