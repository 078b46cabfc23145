package client

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mockBase = "http://api.test/v1/"

func newMockedClient(t *testing.T) *Client {
	t.Helper()

	cfg := DefaultConfig()
	cfg.BaseURL = mockBase
	cfg.RequestDelay = 0

	c, err := New(cfg)
	require.NoError(t, err)

	httpmock.ActivateNonDefault(c.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestParseResourceType(t *testing.T) {
	tests := []struct {
		in   string
		want ResourceType
	}{
		{"place", ResourcePlace},
		{"places", ResourcePlace},
		{"location", ResourcePlace},
		{"Project", ResourceProject},
		{"projects", ResourceProject},
		{"taxon", ResourceTaxon},
		{"taxa", ResourceTaxon},
		{" user ", ResourceUser},
		{"users", ResourceUser},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseResourceType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseResourceType("species")
	assert.ErrorIs(t, err, ErrUnknownResourceType)
}

func TestResourceType_Endpoints(t *testing.T) {
	tests := []struct {
		rt       ResourceType
		endpoint string
		nameKey  string
	}{
		{ResourcePlace, "places/autocomplete", "display_name"},
		{ResourceProject, "projects", "title"},
		{ResourceTaxon, "taxa", "name"},
		{ResourceUser, "users/autocomplete", "name"},
	}

	for _, tt := range tests {
		t.Run(string(tt.rt), func(t *testing.T) {
			assert.Equal(t, tt.endpoint, tt.rt.Endpoint())
			assert.Equal(t, tt.nameKey, tt.rt.NameKey())
		})
	}

	assert.Len(t, ResourceTypes(), 4)
}

func TestLookup_UsesNameKeyPerType(t *testing.T) {
	tests := []struct {
		name string
		rt   ResourceType
		url  string
		body string
		want []Resource
	}{
		{
			name: "place uses display_name",
			rt:   ResourcePlace,
			url:  mockBase + "places/autocomplete",
			body: `{"total_results":2,"page":1,"per_page":2,"results":[
				{"id":326,"name":"Hays","display_name":"Hays County, TX, US"},
				{"id":99999,"name":"Hays","display_name":"Hays, KS, US"}]}`,
			want: []Resource{{326, "Hays County, TX, US"}, {99999, "Hays, KS, US"}},
		},
		{
			name: "project uses title",
			rt:   ResourceProject,
			url:  mockBase + "projects",
			body: `{"total_results":1,"page":1,"per_page":1,"results":[{"id":411,"title":"Herps of Texas","slug":"herps-of-texas"}]}`,
			want: []Resource{{411, "Herps of Texas"}},
		},
		{
			name: "taxon uses name",
			rt:   ResourceTaxon,
			url:  mockBase + "taxa",
			body: `{"total_results":1,"page":1,"per_page":30,"results":[{"id":20979,"name":"Anura","preferred_common_name":"Frogs and Toads"}]}`,
			want: []Resource{{20979, "Anura"}},
		},
		{
			name: "user uses name",
			rt:   ResourceUser,
			url:  mockBase + "users/autocomplete",
			body: `{"total_results":1,"page":1,"per_page":1,"results":[{"id":12345,"login":"frogwatcher","name":"Jo Smith"}]}`,
			want: []Resource{{12345, "Jo Smith"}},
		},
		{
			name: "user without a name",
			rt:   ResourceUser,
			url:  mockBase + "users/autocomplete",
			body: `{"total_results":1,"page":1,"per_page":1,"results":[{"id":7,"login":"anon","name":null}]}`,
			want: []Resource{{7, ""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newMockedClient(t)
			httpmock.RegisterResponder(http.MethodGet, tt.url, httpmock.NewStringResponder(200, tt.body))

			got, err := c.Lookup(context.Background(), tt.rt, "x")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, httpmock.GetTotalCallCount())
		})
	}
}

func TestLookup_EscapesQuery(t *testing.T) {
	c := newMockedClient(t)

	var rawQuery string
	httpmock.RegisterResponder(http.MethodGet, mockBase+"taxa",
		func(req *http.Request) (*http.Response, error) {
			rawQuery = req.URL.RawQuery
			return httpmock.NewStringResponse(200, `{"total_results":0,"page":1,"per_page":0,"results":[]}`), nil
		})

	got, err := c.Lookup(context.Background(), ResourceTaxon, "Lithobates berlandieri & co")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, "q=Lithobates+berlandieri+%26+co", rawQuery)
}

func TestLookup_EmptyResultIsNotAnError(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, mockBase+"projects",
		httpmock.NewStringResponder(200, `{"total_results":0,"page":1,"per_page":0,"results":[]}`))

	got, err := c.Lookup(context.Background(), ResourceProject, "zzzz")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLookup_InvalidArguments(t *testing.T) {
	c := newMockedClient(t)

	_, err := c.Lookup(context.Background(), ResourceType("species"), "x")
	assert.ErrorIs(t, err, ErrUnknownResourceType)

	_, err = c.Lookup(context.Background(), ResourceTaxon, "  ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestLookup_HTTPError(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, mockBase+"places/autocomplete",
		httpmock.NewStringResponder(503, `{"error":"unavailable"}`))

	_, err := c.Lookup(context.Background(), ResourcePlace, "Travis")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 503, apiErr.StatusCode)
	assert.Equal(t, ErrorClassServer, apiErr.ErrorClass)
	assert.Contains(t, err.Error(), `lookup place "Travis"`)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestLookup_MalformedBody(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, mockBase+"taxa",
		httpmock.NewStringResponder(200, `<html>maintenance</html>`))

	_, err := c.Lookup(context.Background(), ResourceTaxon, "Anura")
	assert.ErrorContains(t, err, "decode taxa response")
}

func TestLookup_ResultWithoutID(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodGet, mockBase+"taxa",
		httpmock.NewStringResponder(200, `{"total_results":1,"results":[{"name":"Anura"}]}`))

	_, err := c.Lookup(context.Background(), ResourceTaxon, "Anura")
	assert.ErrorContains(t, err, "result has no id")
}
