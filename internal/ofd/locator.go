package ofd

import (
	"fmt"
	"net/url"
	"strings"
)

// URLPrefix is the scheme, host and path every receipt link starts with
const URLPrefix = "https://ofd.soliq.uz/check"

// fallbackIdentifier names receipts whose URL carries none of t, r, c
const fallbackIdentifier = "receipt"

// identifierKeys are joined in this order regardless of query order
var identifierKeys = []string{"t", "r", "c"}

// ValidateURL checks that rawURL points at the receipt portal
func ValidateURL(rawURL string) error {
	if !strings.HasPrefix(rawURL, URLPrefix) {
		return fmt.Errorf("%w: must start with %s", ErrInvalidURLFormat, URLPrefix)
	}
	return nil
}

// Identifier derives a short receipt name from the t, r and c query
// parameters, e.g. "UZ191211502543_8124_1102190". It never fails
func Identifier(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallbackIdentifier
	}
	query := u.Query()

	parts := make([]string, 0, len(identifierKeys))
	for _, key := range identifierKeys {
		// blank values are treated as absent
		if value := query.Get(key); value != "" {
			parts = append(parts, value)
		}
	}

	if len(parts) == 0 {
		return fallbackIdentifier
	}
	return strings.Join(parts, "_")
}
