package client

import (
	"errors"
	"io"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "status only",
			err:  &APIError{StatusCode: 500, ErrorClass: ErrorClassServer, Message: "500 Internal Server Error"},
			want: "iNaturalist server error (status 500): 500 Internal Server Error",
		},
		{
			name: "with url and detail",
			err: &APIError{
				StatusCode: 422,
				ErrorClass: ErrorClassClient,
				Message:    "422 Unprocessable Entity",
				URL:        "http://api.inaturalist.org/v1/observations?page=1",
				Detail:     `{"error":"bad"}`,
			},
			want: `iNaturalist client error (status 422): 422 Unprocessable Entity [http://api.inaturalist.org/v1/observations?page=1]: {"error":"bad"}`,
		},
		{
			name: "wrapped transport error",
			err:  &APIError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: io.ErrUnexpectedEOF},
			want: "iNaturalist network error (status 0): request failed: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	err := &APIError{ErrorClass: ErrorClassNetwork, Err: io.EOF}

	if !errors.Is(err, io.EOF) {
		t.Error("errors.Is should find the wrapped error")
	}

	var apiErr *APIError
	if !errors.As(error(err), &apiErr) {
		t.Error("errors.As should find *APIError")
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  bool
	}{
		{ErrorClassClient, false},
		{ErrorClassServer, true},
		{ErrorClassRateLimit, true},
		{ErrorClassNetwork, true},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			if got := shouldRetry(tt.class); got != tt.want {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.class, got, tt.want)
			}
		})
	}
}
