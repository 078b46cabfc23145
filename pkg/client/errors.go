package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrUnknownResourceType is returned for a lookup on an unsupported resource type.
	ErrUnknownResourceType = errors.New("unknown resource type")

	// ErrEmptyQuery is returned for a lookup without a name.
	ErrEmptyQuery = errors.New("empty lookup query")
)

// APIError is a non-success response from the iNaturalist API.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	// Detail is the start of the response body, when there was one.
	Detail string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("iNaturalist %s error (status %d): %s", e.ErrorClass, e.StatusCode, e.Message)
	if e.URL != "" {
		msg += " [" + e.URL + "]"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassClient:
		// 4xx other than 429 will fail the same way again
		return false
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}
