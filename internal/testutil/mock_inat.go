// Package testutil provides testing utilities for the iNaturalist client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// APIPrefix is the path prefix the mock serves, matching the real API's /v1/.
const APIPrefix = "/v1/"

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockINat is a configurable mock iNaturalist API server.
type MockINat struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	requests []*http.Request
}

// NewMockINat creates a new mock server. Endpoints without a handler return
// 404.
func NewMockINat() *MockINat {
	mock := &MockINat{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requests = append(mock.requests, r.Clone(r.Context()))
		mock.mu.Unlock()

		endpoint := strings.Trim(strings.TrimPrefix(r.URL.Path, APIPrefix), "/")

		mock.mu.RLock()
		handler, exists := mock.handlers[endpoint]
		mock.mu.RUnlock()

		if !exists {
			writeJSON(w, http.StatusNotFound, `{"error":"Not found","status":404}`)
			return
		}
		handler(w, r)
	}))

	return mock
}

// URL returns the mock server root URL.
func (m *MockINat) URL() string {
	return m.server.URL
}

// BaseURL returns the API base URL to configure a client with.
func (m *MockINat) BaseURL() string {
	return m.server.URL + APIPrefix
}

// Close shuts down the mock server.
func (m *MockINat) Close() {
	m.server.Close()
}

// Reset clears the request log.
func (m *MockINat) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// SetHandler sets a custom handler for an endpoint such as "observations".
func (m *MockINat) SetHandler(endpoint string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[strings.Trim(endpoint, "/")] = handler
}

// SetResponse configures a fixed response for an endpoint.
func (m *MockINat) SetResponse(endpoint string, resp MockResponse) {
	m.SetHandler(endpoint, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetSequence serves the responses in order, repeating the last one.
func (m *MockINat) SetSequence(endpoint string, responses ...MockResponse) {
	var mu sync.Mutex
	n := 0
	m.SetHandler(endpoint, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := responses[min(n, len(responses)-1)]
		n++
		mu.Unlock()

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		w.Write([]byte(resp.Body))
	})
}

// SetSearchResults serves a single page of results for a search endpoint.
// total may exceed len(results) to mimic the API's first page.
func (m *MockINat) SetSearchResults(endpoint string, total int, results ...string) {
	m.SetResponse(endpoint, NewJSONResponse(SearchPageJSON(total, 1, 30, results)))
}

// SetPagedResults serves results across pages of perPage items, honoring
// the "page" query parameter.
func (m *MockINat) SetPagedResults(endpoint string, perPage int, results ...string) {
	m.SetHandler(endpoint, func(w http.ResponseWriter, r *http.Request) {
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}
		start := (page - 1) * perPage
		end := start + perPage
		if start > len(results) {
			start = len(results)
		}
		if end > len(results) {
			end = len(results)
		}
		writeJSON(w, http.StatusOK, SearchPageJSON(len(results), page, perPage, results[start:end]))
	})
}

// Requests returns a copy of the request log.
func (m *MockINat) Requests() []*http.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*http.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of requests made to the server.
func (m *MockINat) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// SearchPageJSON renders an iNaturalist search envelope around raw JSON
// result objects.
func SearchPageJSON(total, page, perPage int, results []string) string {
	return fmt.Sprintf(`{"total_results":%d,"page":%d,"per_page":%d,"results":[%s]}`,
		total, page, perPage, strings.Join(results, ","))
}

// ObservationJSON renders a minimal observation record.
func ObservationJSON(id int, observedOn, placeGuess string, placeIDs []int, commonName string, ofvs ...FieldValue) string {
	obs := map[string]any{
		"id":          id,
		"observed_on": observedOn,
		"place_guess": placeGuess,
		"place_ids":   placeIDs,
		"taxon":       map[string]any{"id": 1, "name": "Anura", "preferred_common_name": commonName},
		"ofvs":        ofvs,
	}
	data, err := json.Marshal(obs)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// FieldValue is an observation field value as rendered by ObservationJSON.
type FieldValue struct {
	FieldID int    `json:"field_id"`
	Value   string `json:"value"`
}

// NewJSONResponse creates a 200 OK JSON response.
func NewJSONResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error":"Too Many Requests","status":429}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error":"Internal server error","status":500}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}
