package middleware

import (
	"context"

	"github.com/upb/identity-service/token"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClaimsKey is the context key for validated token claims
	ClaimsKey contextKey = "claims"

	// RawTokenKey is the context key for the bearer token as presented
	RawTokenKey contextKey = "raw_token"
)

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClaimsFromContext retrieves validated token claims from context
func GetClaimsFromContext(ctx context.Context) token.ClaimSet {
	if val := ctx.Value(ClaimsKey); val != nil {
		if claims, ok := val.(token.ClaimSet); ok {
			return claims
		}
	}
	return nil
}

// WithClaims adds validated token claims to the context
func WithClaims(ctx context.Context, claims token.ClaimSet) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetRawTokenFromContext retrieves the bearer token from context
func GetRawTokenFromContext(ctx context.Context) string {
	if val := ctx.Value(RawTokenKey); val != nil {
		if raw, ok := val.(string); ok {
			return raw
		}
	}
	return ""
}

// WithRawToken adds the bearer token to the context
func WithRawToken(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, RawTokenKey, raw)
}
