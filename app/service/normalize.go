package service

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail folds an address to the form used for uniqueness checks and
// lookups: NFKC, trimmed, lowercased.
func NormalizeEmail(email string) string {
	return normalizeIdentifier(email)
}

func NormalizeUsername(username string) string {
	return normalizeIdentifier(username)
}

func normalizeIdentifier(value string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(value)))
}
