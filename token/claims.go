// Package token implements the identity token core: payload decoding,
// claim validation, and identity field extraction for Keycloak-issued
// OpenID Connect tokens.
package token

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
)

// ClaimSet is the decoded payload of a compact token. Values keep the
// shapes JSON gives them: string, json.Number, bool, or []any. A ClaimSet
// is built fresh per Decode call and never persisted.
type ClaimSet map[string]any

// Decode splits a compact token, base64url-decodes the payload segment,
// and parses it as a flat JSON object. It performs no signature
// verification; signature trust is the caller's policy (see Validator).
func Decode(compact string) (ClaimSet, error) {
	if strings.TrimSpace(compact) == "" {
		return nil, &MalformedTokenError{Reason: "token is empty"}
	}

	parts := strings.Split(compact, ".")
	if len(parts) != 3 {
		return nil, &MalformedTokenError{
			Reason: "expected 3 segments, got " + strconv.Itoa(len(parts)),
		}
	}
	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			return nil, &MalformedTokenError{
				Reason: "segment " + strconv.Itoa(i) + " is empty",
			}
		}
	}

	payload := parts[1]
	if pad := len(payload) % 4; pad != 0 {
		payload += strings.Repeat("=", 4-pad)
	}

	decoded, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, &MalformedTokenError{Reason: "payload is not valid base64url", Err: err}
	}

	// UseNumber keeps epoch-second claims as json.Number instead of
	// lossy float64.
	dec := json.NewDecoder(bytes.NewReader(decoded))
	dec.UseNumber()

	claims := ClaimSet{}
	if err := dec.Decode(&claims); err != nil {
		return nil, &MalformedTokenError{Reason: "payload is not a JSON object", Err: err}
	}

	return claims, nil
}

// Has reports whether the named claim is present.
func (c ClaimSet) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// stringClaim returns the named claim as a string, or "" when the claim
// is absent or not string-shaped.
func (c ClaimSet) stringClaim(name string) string {
	if v, ok := c[name].(string); ok {
		return v
	}
	return ""
}

// epochClaim returns the named claim as epoch seconds. Providers emit
// numeric claims, but string-typed epochs are tolerated the same way the
// value would survive a round-trip through text.
func (c ClaimSet) epochClaim(name string) (int64, bool) {
	switch v := c[name].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			// Fractional epoch; truncate.
			f, ferr := v.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// audienceClaim normalizes the aud claim, which compliant providers emit
// either as a bare string or as a list. A list normalizes to its first
// value.
func (c ClaimSet) audienceClaim() (string, bool) {
	switch v := c["aud"].(type) {
	case string:
		return v, true
	case []any:
		if len(v) == 0 {
			return "", false
		}
		if s, ok := v[0].(string); ok {
			return s, true
		}
		return "", false
	default:
		return "", false
	}
}
