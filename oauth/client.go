// Package oauth implements the authorization-code flow against the
// identity provider: building the authorization URL and exchanging the
// returned code for a token bundle at the token endpoint.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/upb/identity-service/config"
	"go.uber.org/zap"
)

const (
	tokenEndpointSuffix = "/protocol/openid-connect/token"
	authEndpointSuffix  = "/protocol/openid-connect/auth"
)

// TokenBundle is the provider's response to a successful code exchange.
// It is owned by the caller and has no lifecycle of its own.
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

// ExchangeError reports a failed code exchange, carrying the upstream
// status and body for diagnostics.
type ExchangeError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("token exchange failed: status %d: %s", e.StatusCode, e.Body)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// Client exchanges authorization codes for tokens. One outbound call per
// invocation, no retry: a failed exchange is surfaced to the caller
// as-is. The request deadline comes from the injected http.Client; the
// historical default is none.
type Client struct {
	tokenEndpoint string
	clientID      string
	clientSecret  string
	redirectURI   string
	httpClient    *http.Client
	logger        *zap.Logger
}

// NewClient creates a Client from provider configuration.
func NewClient(cfg config.KeycloakConfig, logger *zap.Logger) *Client {
	base := strings.TrimSuffix(cfg.AuthServerURL, "/")
	if !strings.HasSuffix(base, tokenEndpointSuffix) {
		base += tokenEndpointSuffix
	}

	return &Client{
		tokenEndpoint: base,
		clientID:      cfg.ClientID,
		clientSecret:  cfg.ClientSecret,
		redirectURI:   cfg.RedirectURI,
		httpClient: &http.Client{
			Timeout: cfg.ExchangeTimeout,
		},
		logger: logger,
	}
}

// Exchange posts the authorization code to the token endpoint and
// decodes the token bundle.
func (c *Client) Exchange(ctx context.Context, code string) (*TokenBundle, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {c.redirectURI},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenEndpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ExchangeError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug("exchanging authorization code",
		zap.String("token_endpoint", c.tokenEndpoint),
		zap.String("client_id", c.clientID),
		zap.String("redirect_uri", c.redirectURI))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("token endpoint returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var bundle TokenBundle
	if err := json.Unmarshal(body, &bundle); err != nil {
		return nil, &ExchangeError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        fmt.Errorf("failed to decode token response: %w", err),
		}
	}

	return &bundle, nil
}

// BuildAuthorizationURL constructs the URL that initiates the
// authorization-code flow. Pure string construction, no network effect.
func BuildAuthorizationURL(authEndpoint, clientID, redirectURI, scope, state string) string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {clientID},
		"redirect_uri":  {redirectURI},
		"scope":         {scope},
		"state":         {state},
	}
	return authEndpoint + "?" + params.Encode()
}

// AuthorizationEndpoint derives the authorization endpoint from the
// configured auth server URL.
func AuthorizationEndpoint(authServerURL string) string {
	base := strings.TrimSuffix(authServerURL, "/")
	base = strings.TrimSuffix(base, tokenEndpointSuffix)
	return base + authEndpointSuffix
}
