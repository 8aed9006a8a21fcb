package secret

import (
	"crypto/subtle"
	"strings"
)

// Equal compares a provided secret against the expected one in constant time.
// An empty expected secret never matches anything.
func Equal(expected, provided string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}

// Mask replaces all but the last keepTail characters of raw with asterisks.
// Secrets not longer than keepTail are masked completely.
func Mask(raw string, keepTail int) string {
	if raw == "" {
		return ""
	}
	if len(raw) <= keepTail {
		return strings.Repeat("*", len(raw))
	}
	return strings.Repeat("*", len(raw)-keepTail) + raw[len(raw)-keepTail:]
}

// MaskAuthorization masks the credential part of an Authorization header value while keeping its scheme readable
func MaskAuthorization(value string) string {
	scheme, credential, ok := strings.Cut(value, " ")
	if !ok {
		return Mask(value, 4)
	}
	return scheme + " " + Mask(credential, 4)
}
