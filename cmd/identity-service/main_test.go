package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/identity-service/app"
	"github.com/upb/identity-service/config"
	"github.com/upb/identity-service/middleware"
	"github.com/upb/identity-service/oauth"
	"github.com/upb/identity-service/routes"
	"github.com/upb/identity-service/token"
	"go.uber.org/zap/zaptest"
)

func TestInitLogger(t *testing.T) {
	t.Run("default json logger", func(t *testing.T) {
		logger, err := initLogger(config.ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		})
		require.NoError(t, err)
		require.NotNil(t, logger)
		defer func() { _ = logger.Sync() }()
	})

	t.Run("development console logger", func(t *testing.T) {
		logger, err := initLogger(config.ObservabilityConfig{
			LogLevel:  "debug",
			LogFormat: "console",
		})
		require.NoError(t, err)
		require.NotNil(t, logger)
		defer func() { _ = logger.Sync() }()
	})

	t.Run("invalid log level", func(t *testing.T) {
		logger, err := initLogger(config.ObservabilityConfig{
			LogLevel:  "invalid",
			LogFormat: "json",
		})
		assert.Error(t, err)
		assert.Nil(t, logger)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestApplicationStartup(t *testing.T) {
	t.Run("route setup with minimal dependencies", func(t *testing.T) {
		logger := zaptest.NewLogger(t)

		keycloak := config.KeycloakConfig{
			AuthServerURL: "https://idp.example.com/realms/demo",
			ClientID:      "myclient",
		}
		validator := token.NewValidator(keycloak.AuthServerURL, keycloak.Audiences())

		// Skip the database; only unauthenticated routes are exercised.
		deps := &app.Dependencies{
			Config:         &config.Config{Keycloak: keycloak},
			Logger:         logger,
			TokenValidator: validator,
			OAuthHandler: oauth.NewHandler(
				keycloak, oauth.NewClient(keycloak, logger), validator, nil, logger),
			AuthMiddleware: middleware.NewAuthMiddleware(validator, logger),
		}

		handler := routes.SetupRoutes(deps)
		require.NotNil(t, handler)

		ts := httptest.NewServer(handler)
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "ok", body["status"])
	})

	t.Run("protected route rejects unauthenticated requests", func(t *testing.T) {
		logger := zaptest.NewLogger(t)

		keycloak := config.KeycloakConfig{
			AuthServerURL: "https://idp.example.com/realms/demo",
			ClientID:      "myclient",
		}
		validator := token.NewValidator(keycloak.AuthServerURL, keycloak.Audiences())

		deps := &app.Dependencies{
			Config:         &config.Config{Keycloak: keycloak},
			Logger:         logger,
			TokenValidator: validator,
			OAuthHandler: oauth.NewHandler(
				keycloak, oauth.NewClient(keycloak, logger), validator, nil, logger),
			AuthMiddleware: middleware.NewAuthMiddleware(validator, logger),
		}

		ts := httptest.NewServer(routes.SetupRoutes(deps))
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/api/users/protected/profile")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("unknown route returns 404", func(t *testing.T) {
		logger := zaptest.NewLogger(t)

		keycloak := config.KeycloakConfig{ClientID: "myclient"}
		validator := token.NewValidator("", keycloak.Audiences())

		deps := &app.Dependencies{
			Config:         &config.Config{Keycloak: keycloak},
			Logger:         logger,
			TokenValidator: validator,
			OAuthHandler: oauth.NewHandler(
				keycloak, oauth.NewClient(keycloak, logger), validator, nil, logger),
			AuthMiddleware: middleware.NewAuthMiddleware(validator, logger),
		}

		ts := httptest.NewServer(routes.SetupRoutes(deps))
		defer ts.Close()

		resp, err := http.Get(ts.URL + "/nope")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
