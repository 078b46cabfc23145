package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ResponseToEntry converts an HTTP response to a CacheEntry.
// The response body is read and restored for the caller. The entry expires
// at the response's Expires header when it is present and in the future,
// otherwise after ttl.
func ResponseToEntry(resp *http.Response, ttl time.Duration) (*CacheEntry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()

	resp.Body = io.NopCloser(bytes.NewReader(body))

	now := time.Now()
	return &CacheEntry{
		Data:       body,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		CachedAt:   now,
		Expires:    parseExpires(resp.Header, now, ttl),
	}, nil
}

// parseExpires returns the Expires header time, or now+fallback when the
// header is missing, malformed or already past.
func parseExpires(headers http.Header, now time.Time, fallback time.Duration) time.Time {
	expiresStr := headers.Get("Expires")
	if expiresStr == "" {
		return now.Add(fallback)
	}

	expires, err := http.ParseTime(expiresStr)
	if err != nil || !expires.After(now) {
		return now.Add(fallback)
	}

	return expires
}

// EntryToResponse rebuilds an HTTP response from a cache entry. The request
// is attached so callers can log the URL as with a live response.
func EntryToResponse(entry *CacheEntry, req *http.Request) *http.Response {
	header := entry.Headers.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set("X-Cache", "HIT")

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", entry.StatusCode, http.StatusText(entry.StatusCode)),
		StatusCode:    entry.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(entry.Data)),
		ContentLength: int64(len(entry.Data)),
		Request:       req,
	}
}
