package common

import (
	"fmt"
	"net/url"
	"strings"
)

// OriginOf extracts the origin (scheme+host+port) from a URL string.
// Returns "" when the URL has no absolute scheme+host, so callers can treat
// an underivable origin as "not knowable in advance".
func OriginOf(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
}

// SameOrigin reports whether two URL strings share an origin
func SameOrigin(a, b string) bool {
	oa := OriginOf(a)
	return oa != "" && oa == OriginOf(b)
}
