package dlocal

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// authScheme prefixes every signed Authorization header.
const authScheme = "V2-HMAC-SHA256"

// Sign computes the request signature.
// The signed string is: X-Login + X-Date + body.
func Sign(secret, login, date string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(login))
	h.Write([]byte(date))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// AuthorizationHeader formats a signature as the Authorization header value.
func AuthorizationHeader(signature string) string {
	return authScheme + ", Signature: " + signature
}

// ValidateSignature checks the Authorization header of a dLocal notification.
func ValidateSignature(authorization, secret, login, date string, body []byte) bool {
	if authorization == "" || secret == "" {
		return false
	}

	got := parseAuthorization(authorization)
	if got == "" {
		return false
	}

	expected := Sign(secret, login, date, body)

	// Constant-time comparison
	return hmac.Equal([]byte(strings.ToLower(got)), []byte(expected))
}

// parseAuthorization extracts the hex signature from
// "V2-HMAC-SHA256, Signature: <hex>".
func parseAuthorization(header string) string {
	scheme, rest, ok := strings.Cut(header, ",")
	if !ok || strings.TrimSpace(scheme) != authScheme {
		return ""
	}
	key, value, ok := strings.Cut(strings.TrimSpace(rest), ":")
	if !ok || strings.TrimSpace(key) != "Signature" {
		return ""
	}
	return strings.TrimSpace(value)
}
