package database

import (
	"strings"

	"golang.org/x/text/cases"
)

var foldCaser = cases.Fold()

// NormalizeAccount canonicalizes an account handle for comparison:
// surrounding whitespace and a leading "@" are stripped, and the rest is
// Unicode case-folded. "@CryptoNews" and "cryptonews" compare equal.
func NormalizeAccount(account string) string {
	account = strings.TrimSpace(account)
	account = strings.TrimPrefix(account, "@")
	return foldCaser.String(account)
}
