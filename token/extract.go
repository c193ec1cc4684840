package token

import (
	"fmt"
	"time"
)

// Identity field extraction. Each function is pure over a ClaimSet and
// returns "" when the field is absent; extraction never fails.

// Email returns the email claim verbatim.
func Email(claims ClaimSet) string {
	return claims.stringClaim("email")
}

// Subject returns the sub claim, the provider's stable user identifier.
func Subject(claims ClaimSet) string {
	return claims.stringClaim("sub")
}

// DisplayName returns the best available human-readable name: the name
// claim, falling back to preferred_username, falling back to sub. The
// fallback order is fixed; no value is ever invented.
func DisplayName(claims ClaimSet) string {
	if name := claims.stringClaim("name"); name != "" {
		return name
	}
	if username := claims.stringClaim("preferred_username"); username != "" {
		return username
	}
	return claims.stringClaim("sub")
}

// ExpirationSummary describes the remaining lifetime of the token in a
// readable form: "Unknown" when exp is absent, "EXPIRED" when past due,
// otherwise whole minutes and seconds remaining.
func ExpirationSummary(claims ClaimSet, now time.Time) string {
	exp, ok := claims.epochClaim("exp")
	if !ok {
		return "Unknown"
	}

	remaining := exp - now.Unix()
	if remaining <= 0 {
		return "EXPIRED"
	}

	return fmt.Sprintf("%d minutes, %d seconds remaining", remaining/60, remaining%60)
}
