package cache

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// CacheEntry is a stored iNaturalist response.
type CacheEntry struct {
	Data       []byte
	StatusCode int
	Headers    http.Header

	// Expires is when the entry stops being served.
	Expires time.Time
	// CachedAt is when the response was received.
	CachedAt time.Time
}

// IsExpired reports whether the entry is past Expires.
func (e *CacheEntry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL returns the time left until Expires, never negative.
func (e *CacheEntry) TTL() time.Duration {
	return max(time.Until(e.Expires), 0)
}

func (e *CacheEntry) clone() *CacheEntry {
	c := *e
	c.Data = append([]byte(nil), e.Data...)
	c.Headers = e.Headers.Clone()
	return &c
}

// Redis hash fields of an entry.
const (
	fieldBody     = "body"
	fieldStatus   = "status"
	fieldHeaders  = "headers"
	fieldExpires  = "expires_ms"
	fieldCachedAt = "cached_ms"
)

// hashFields flattens the entry into field/value pairs for HSET.
func (e *CacheEntry) hashFields() ([]any, error) {
	headers, err := json.Marshal(e.Headers)
	if err != nil {
		return nil, fmt.Errorf("encode headers: %w", err)
	}
	fields := []any{
		fieldBody, e.Data,
		fieldStatus, e.StatusCode,
		fieldHeaders, headers,
		fieldExpires, e.Expires.UnixMilli(),
	}
	if !e.CachedAt.IsZero() {
		fields = append(fields, fieldCachedAt, e.CachedAt.UnixMilli())
	}
	return fields, nil
}

// entryFromHash is the inverse of hashFields. Body and expiry are required.
func entryFromHash(h map[string]string) (*CacheEntry, error) {
	body, ok := h[fieldBody]
	if !ok {
		return nil, fmt.Errorf("missing %s", fieldBody)
	}
	expires, err := strconv.ParseInt(h[fieldExpires], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fieldExpires, err)
	}

	e := &CacheEntry{
		Data:    []byte(body),
		Expires: time.UnixMilli(expires),
	}
	if s := h[fieldStatus]; s != "" {
		if e.StatusCode, err = strconv.Atoi(s); err != nil {
			return nil, fmt.Errorf("%s: %w", fieldStatus, err)
		}
	}
	if s := h[fieldCachedAt]; s != "" {
		ms, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fieldCachedAt, err)
		}
		e.CachedAt = time.UnixMilli(ms)
	}
	if s := h[fieldHeaders]; s != "" && s != "null" {
		if err := json.Unmarshal([]byte(s), &e.Headers); err != nil {
			return nil, fmt.Errorf("%s: %w", fieldHeaders, err)
		}
	}
	return e, nil
}
