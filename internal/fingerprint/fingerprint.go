// Package fingerprint derives stable post identities from URLs.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Canonical returns the URL with any query component removed.
func Canonical(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// Of returns the hex SHA-256 digest of the canonical URL.
// An empty URL yields an empty identity.
func Of(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(Canonical(rawURL)))
	return hex.EncodeToString(sum[:])
}
