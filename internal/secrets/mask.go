package secrets

import "strings"

// Mask returns a masked version of a secret string for safe logging.
// Returns the first 4 characters followed by "..." if the secret is longer than 8 chars,
// otherwise returns "***" to avoid exposing short secrets.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..."
}

// MaskURL hides the credentials in a URL before it is logged. A password
// is replaced by "***"; a bare user such as the public key of a Sentry DSN
// (https://key@o0.ingest.sentry.io/0) is shortened with Mask.
func MaskURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	schemeEnd := strings.Index(rawURL, "://")
	if schemeEnd == -1 {
		return rawURL
	}
	credStart := schemeEnd + 3

	// Find the last @ symbol (in case password contains @)
	atIdx := strings.LastIndex(rawURL, "@")
	if atIdx == -1 || atIdx < credStart {
		return rawURL
	}

	user, _, hasPassword := strings.Cut(rawURL[credStart:atIdx], ":")
	if hasPassword {
		return rawURL[:credStart] + user + ":***" + rawURL[atIdx:]
	}
	return rawURL[:credStart] + Mask(user) + rawURL[atIdx:]
}
