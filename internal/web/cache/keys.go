package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
)

// KeyGenerator derives cache keys from requests. Two requests map to the same
// key when they share method, path, query parameters (in any order) and the
// values of the listed headers.
type KeyGenerator struct {
	Headers []string
	Prefix  string
}

// DefaultKeyGenerator varies on the Start-Item header, which changes how paths
// resolve, and on Preview
func DefaultKeyGenerator() *KeyGenerator {
	return &KeyGenerator{
		Headers: []string{"Start-Item", "Preview"},
		Prefix:  "http:",
	}
}

// GenerateKey returns the cache key for r
func (kg *KeyGenerator) GenerateKey(r *http.Request) string {
	parts := []string{r.Method, r.URL.Path}

	if r.URL.RawQuery != "" {
		var query []string
		for key, values := range r.URL.Query() {
			for _, value := range values {
				query = append(query, key+"="+value)
			}
		}
		sort.Strings(query)
		parts = append(parts, strings.Join(query, "&"))
	}

	for _, header := range kg.Headers {
		if value := r.Header.Get(header); value != "" {
			parts = append(parts, strings.ToLower(header)+"="+value)
		}
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return kg.Prefix + hex.EncodeToString(sum[:16])
}
