package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/upb/identity-service/token"
	"github.com/upb/identity-service/utils"
	"go.uber.org/zap"
)

// TokenValidator validates a compact token and returns its claims
type TokenValidator interface {
	ValidateToken(ctx context.Context, compact string) (token.ClaimSet, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// RequireAuth is a middleware that requires a valid bearer token
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		compact := extractBearerToken(r)
		if compact == "" {
			m.logger.Warn("missing bearer token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		claims, err := m.validator.ValidateToken(ctx, compact)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, rejectionMessage(err))
			return
		}

		ctx = WithClaims(ctx, claims)
		ctx = WithRawToken(ctx, compact)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("sub", token.Subject(claims)))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rejectionMessage maps a validation failure to the response body. The
// cause is surfaced so clients can tell an expired token from a
// malformed one; anything else collapses to a generic message.
func rejectionMessage(err error) string {
	var verr *token.ValidationError
	if errors.As(err, &verr) {
		return "Invalid token: " + verr.Cause.Error()
	}
	if errors.Is(err, token.ErrMalformedToken) || errors.Is(err, token.ErrSignatureInvalid) {
		return "Invalid token: " + err.Error()
	}
	return "Invalid or expired token"
}

// extractBearerToken extracts the bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
