package cache

import (
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestCacheEntry_IsExpired(t *testing.T) {
	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"expired entry", time.Now().Add(-1 * time.Hour), true},
		{"valid entry", time.Now().Add(1 * time.Hour), false},
		{"just expired", time.Now().Add(-1 * time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := &CacheEntry{Expires: tt.expires}
			if got := entry.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCacheEntry_TTL(t *testing.T) {
	if ttl := (&CacheEntry{Expires: time.Now().Add(-time.Minute)}).TTL(); ttl != 0 {
		t.Errorf("TTL() of expired entry = %v, want 0", ttl)
	}

	ttl := (&CacheEntry{Expires: time.Now().Add(5 * time.Minute)}).TTL()
	if ttl < 4*time.Minute || ttl > 5*time.Minute {
		t.Errorf("TTL() = %v, want ~5m", ttl)
	}
}

func TestCacheEntry_CloneIsDeep(t *testing.T) {
	orig := &CacheEntry{
		Data:    []byte("abc"),
		Headers: http.Header{"Content-Type": []string{"application/json"}},
	}

	c := orig.clone()
	c.Data[0] = 'x'
	c.Headers.Set("Content-Type", "text/plain")

	if string(orig.Data) != "abc" {
		t.Errorf("original data mutated: %q", orig.Data)
	}
	if orig.Headers.Get("Content-Type") != "application/json" {
		t.Errorf("original headers mutated: %v", orig.Headers)
	}
}

func TestCacheEntry_HashRoundTrip(t *testing.T) {
	now := time.Now()
	orig := &CacheEntry{
		Data:       []byte(`{"results":[]}`),
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		Expires:    now.Add(time.Minute),
		CachedAt:   now,
	}

	fields, err := orig.hashFields()
	if err != nil {
		t.Fatalf("hashFields() error = %v", err)
	}

	// HGETALL hands every value back as a string
	h := make(map[string]string, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		v := fields[i+1]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		h[fields[i].(string)] = fmt.Sprint(v)
	}

	got, err := entryFromHash(h)
	if err != nil {
		t.Fatalf("entryFromHash() error = %v", err)
	}
	if string(got.Data) != string(orig.Data) || got.StatusCode != 200 {
		t.Errorf("got %q %d", got.Data, got.StatusCode)
	}
	if got.Headers.Get("Content-Type") != "application/json" {
		t.Errorf("headers = %v", got.Headers)
	}
	if got.Expires.UnixMilli() != orig.Expires.UnixMilli() || got.CachedAt.UnixMilli() != now.UnixMilli() {
		t.Errorf("times = %v %v", got.Expires, got.CachedAt)
	}
}

func TestEntryFromHash_NilHeaders(t *testing.T) {
	got, err := entryFromHash(map[string]string{
		fieldBody:    "x",
		fieldExpires: "1700000000000",
		fieldHeaders: "null",
	})
	if err != nil {
		t.Fatalf("entryFromHash() error = %v", err)
	}
	if got.Headers != nil || got.StatusCode != 0 || !got.CachedAt.IsZero() {
		t.Errorf("got %+v", got)
	}
}
