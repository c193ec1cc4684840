package token

import (
	"context"
	"time"
)

// tokenEndpointSuffix is the Keycloak token endpoint path. Configuration
// may carry the full token URL; the issuer claim compares against the
// realm root with this suffix stripped.
const tokenEndpointSuffix = "/protocol/openid-connect/token"

// Validator applies format and claim-correctness rules over decoded
// claim sets. It is stateless per call and safe for concurrent use.
type Validator struct {
	issuerBase       string
	allowedAudiences []string
	keys             *KeySet
	now              func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// WithKeySet enables the hardened mode: ValidateToken verifies RS256
// signatures against the realm's published keys before trusting claims.
// Without a key set the payload is trusted as-is, matching the default
// (and documented) behavior of the service.
func WithKeySet(keys *KeySet) Option {
	return func(v *Validator) { v.keys = keys }
}

// NewValidator creates a Validator. issuerBase may be the realm root URL
// or the full token endpoint URL; any token-endpoint suffix is stripped
// before issuer comparison.
func NewValidator(issuerBase string, allowedAudiences []string, opts ...Option) *Validator {
	v := &Validator{
		issuerBase:       IssuerBase(issuerBase),
		allowedAudiences: allowedAudiences,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// IssuerBase strips the token-endpoint suffix from an auth server URL,
// yielding the value the iss claim must equal exactly.
func IssuerBase(authServerURL string) string {
	if len(authServerURL) > len(tokenEndpointSuffix) &&
		authServerURL[len(authServerURL)-len(tokenEndpointSuffix):] == tokenEndpointSuffix {
		return authServerURL[:len(authServerURL)-len(tokenEndpointSuffix)]
	}
	return authServerURL
}

// ValidateToken verifies and validates a compact token end to end:
// signature check when a key set is configured, payload decode, then
// claim validation. It returns the decoded claims on success.
func (v *Validator) ValidateToken(ctx context.Context, compact string) (ClaimSet, error) {
	if v.keys != nil {
		if err := v.keys.VerifySignature(ctx, compact); err != nil {
			return nil, err
		}
	}

	claims, err := Decode(compact)
	if err != nil {
		return nil, err
	}

	if err := v.Validate(claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// Validate applies the claim checks in order, stopping at the first
// violation: exp, iss, and aud must be present; the token must be
// unexpired; iss must equal the issuer base exactly; the audience must
// be in the allowed set; and iat, when present, must not be in the
// future. The failing check is returned wrapped in a *ValidationError.
func (v *Validator) Validate(claims ClaimSet) error {
	for _, required := range []string{"exp", "iss", "aud"} {
		if !claims.Has(required) {
			return &ValidationError{Cause: &MissingClaimError{Claim: required}}
		}
	}

	now := v.now().Unix()

	exp, ok := claims.epochClaim("exp")
	if !ok {
		return &ValidationError{Cause: &MissingClaimError{Claim: "exp"}}
	}
	if now > exp {
		return &ValidationError{Cause: &ExpiredTokenError{Exp: exp, Now: now}}
	}

	if iss := claims.stringClaim("iss"); iss != v.issuerBase {
		return &ValidationError{Cause: &IssuerMismatchError{Expected: v.issuerBase, Got: iss}}
	}

	aud, ok := claims.audienceClaim()
	if !ok || !v.audienceAllowed(aud) {
		return &ValidationError{Cause: &AudienceMismatchError{Expected: v.allowedAudiences, Got: aud}}
	}

	if claims.Has("iat") {
		if iat, ok := claims.epochClaim("iat"); ok && iat > now {
			return &ValidationError{Cause: &FutureIssuedError{Iat: iat, Now: now}}
		}
	}

	return nil
}

func (v *Validator) audienceAllowed(aud string) bool {
	for _, allowed := range v.allowedAudiences {
		if aud == allowed {
			return true
		}
	}
	return false
}
