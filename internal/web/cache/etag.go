package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// GenerateETag returns a strong ETag for body
func GenerateETag(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// ParseIfNoneMatch splits an If-None-Match header into its entity tags
func ParseIfNoneMatch(header string) []string {
	var etags []string
	for _, part := range strings.Split(header, ",") {
		if part = strings.TrimSpace(part); part != "" {
			etags = append(etags, part)
		}
	}
	return etags
}

// MatchesETag reports whether etag matches any of etags using weak comparison
func MatchesETag(etag string, etags []string) bool {
	for _, candidate := range etags {
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}

// NotModified reports whether the request's If-None-Match header matches etag
func NotModified(r *http.Request, etag string) bool {
	header := r.Header.Get("If-None-Match")
	if header == "" {
		return false
	}
	return MatchesETag(etag, ParseIfNoneMatch(header))
}
