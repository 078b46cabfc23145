package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"net/url"
	"slices"
	"strings"
)

// KeyPrefix namespaces every key this package writes.
const KeyPrefix = "inat"

// CacheKey identifies one API response: the API it came from, the endpoint
// path relative to that API's base URL, and the query that was sent.
type CacheKey struct {
	// Origin is the base URL's host and path, e.g. api.inaturalist.org/v1.
	// Empty for keys that do not need to tell APIs apart.
	Origin      string
	Endpoint    string
	QueryParams url.Values
}

// String renders the key as
//
//	inat[:<origin>]:<endpoint>[:<param>=<v1>,<v2>...]
//
// with parameters in name order, e.g. inat:places/autocomplete:q=Travis.
// Origin, parameter names and values are query-escaped so the ':', '=' and
// ',' separators cannot appear inside them. Values keep their request order
// since place_id lists are ordered.
func (k CacheKey) String() string {
	var b strings.Builder
	b.WriteString(KeyPrefix)

	if k.Origin != "" {
		b.WriteByte(':')
		b.WriteString(url.QueryEscape(k.Origin))
	}
	if endpoint := strings.Trim(k.Endpoint, "/"); endpoint != "" {
		b.WriteByte(':')
		b.WriteString(endpoint)
	}
	for _, name := range slices.Sorted(maps.Keys(k.QueryParams)) {
		b.WriteByte(':')
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		for i, v := range k.QueryParams[name] {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// Hash is a short digest of String for log fields.
func (k CacheKey) Hash() string {
	sum := sha256.Sum256([]byte(k.String()))
	return hex.EncodeToString(sum[:6])
}
