package base

import (
	"errors"
	"fmt"
)

// APIError is a failed upstream call
type APIError struct {
	Status  int    `json:"status,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Code, e.Status, e.Message)
	}
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrNetwork        = "network_error"
	ErrAPI            = "api_error"
	ErrUnauthorized   = "unauthorized"
	ErrResponseFormat = "response_parse_failed"
)

// IsUnauthorized reports whether err is an upstream 401
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == ErrUnauthorized
}

// StatusOf returns the HTTP status carried by err, 0 when none
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
