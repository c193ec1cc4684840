package token

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedToken is the sentinel for structural token failures.
	ErrMalformedToken = errors.New("malformed token")

	// ErrSignatureInvalid is returned by the hardened validation path when
	// the token signature does not verify against the realm keys.
	ErrSignatureInvalid = errors.New("invalid token signature")
)

// MalformedTokenError reports a token that does not have the compact
// three-segment shape or whose payload cannot be decoded.
type MalformedTokenError struct {
	Reason string
	Err    error
}

func (e *MalformedTokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed token: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed token: %s", e.Reason)
}

func (e *MalformedTokenError) Unwrap() error { return e.Err }

func (e *MalformedTokenError) Is(target error) bool { return target == ErrMalformedToken }

// MissingClaimError reports a required claim that is absent from the payload.
type MissingClaimError struct {
	Claim string
}

func (e *MissingClaimError) Error() string {
	return fmt.Sprintf("token missing required claim: %s", e.Claim)
}

// ExpiredTokenError reports a token whose exp claim is in the past.
type ExpiredTokenError struct {
	Exp int64
	Now int64
}

func (e *ExpiredTokenError) Error() string {
	return fmt.Sprintf("token expired at %d, current time %d", e.Exp, e.Now)
}

// IssuerMismatchError reports an iss claim that does not match the
// configured issuer base URL.
type IssuerMismatchError struct {
	Expected string
	Got      string
}

func (e *IssuerMismatchError) Error() string {
	return fmt.Sprintf("invalid token issuer: expected %q, got %q", e.Expected, e.Got)
}

// AudienceMismatchError reports an aud claim outside the allowed set.
type AudienceMismatchError struct {
	Expected []string
	Got      string
}

func (e *AudienceMismatchError) Error() string {
	return fmt.Sprintf("invalid token audience: expected one of %v, got %q", e.Expected, e.Got)
}

// FutureIssuedError reports an iat claim ahead of the current time.
type FutureIssuedError struct {
	Iat int64
	Now int64
}

func (e *FutureIssuedError) Error() string {
	return fmt.Sprintf("token issued in the future: iat %d, current time %d", e.Iat, e.Now)
}

// ValidationError wraps the specific check failure produced by Validate.
// Callers inspect the cause with errors.As.
type ValidationError struct {
	Cause error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("token validation failed: %v", e.Cause)
}

func (e *ValidationError) Unwrap() error { return e.Cause }
