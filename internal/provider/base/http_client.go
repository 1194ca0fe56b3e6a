package base

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// HTTPClient provides common HTTP functionality for upstream APIs
type HTTPClient struct {
	client  *http.Client
	baseURL string
	name    string // upstream name for logging
}

// NewHTTPClient creates a new HTTP client with default settings
func NewHTTPClient(name string, timeoutSec int) *HTTPClient {
	if timeoutSec == 0 {
		timeoutSec = 30 // default timeout
	}

	return &HTTPClient{
		client: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
		name: name,
	}
}

// WithHTTPClient swaps the underlying transport client (tests use this)
func (c *HTTPClient) WithHTTPClient(hc *http.Client) *HTTPClient {
	c.client = hc
	return c
}

// SetBaseURL sets the base URL for all requests
func (c *HTTPClient) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/") + "/"
}

// BaseURL returns the configured base URL
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// PutJSON makes a PUT request with JSON payload
func (c *HTTPClient) PutJSON(ctx context.Context, endpoint string, payload interface{}, headers map[string]string) (*HTTPResponse, error) {
	return c.sendJSON(ctx, http.MethodPut, endpoint, payload, headers)
}

// PostJSON makes a POST request with JSON payload
func (c *HTTPClient) PostJSON(ctx context.Context, endpoint string, payload interface{}, headers map[string]string) (*HTTPResponse, error) {
	return c.sendJSON(ctx, http.MethodPost, endpoint, payload, headers)
}

func (c *HTTPClient) sendJSON(ctx context.Context, method, endpoint string, payload interface{}, headers map[string]string) (*HTTPResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON payload: %w", err)
	}

	url := c.baseURL + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, headers)
}

// Get makes a GET request
func (c *HTTPClient) Get(ctx context.Context, endpoint string, headers map[string]string) (*HTTPResponse, error) {
	url := c.baseURL + strings.TrimLeft(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, headers)
}

func (c *HTTPClient) do(req *http.Request, headers map[string]string) (*HTTPResponse, error) {
	req.Header.Set("User-Agent", fmt.Sprintf("imsidesk/%s", c.name))
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	// Log the request (without sensitive data)
	log.Debug().
		Str("upstream", c.name).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("making HTTP request")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Error().
			Str("upstream", c.name).
			Str("url", req.URL.String()).
			Err(err).
			Msg("HTTP request failed")
		return nil, &APIError{Code: ErrNetwork, Message: "request failed", Err: err}
	}

	return c.handleResponse(resp)
}

// handleResponse processes the HTTP response
func (c *HTTPClient) handleResponse(resp *http.Response) (*HTTPResponse, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	httpResp := &HTTPResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	log.Debug().
		Str("upstream", c.name).
		Int("status_code", resp.StatusCode).
		Int("body_length", len(body)).
		Msg("received HTTP response")

	return httpResp, nil
}

// HTTPResponse represents an HTTP response
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// IsSuccess checks if the response indicates success (2xx status code)
func (r *HTTPResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// UnmarshalJSON unmarshals the response body into the provided struct
func (r *HTTPResponse) UnmarshalJSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// String returns the response body as a string
func (r *HTTPResponse) String() string {
	return string(r.Body)
}

// Err converts a non-2xx response into an *APIError. The upstream puts
// human readable reasons in "message" or "msg".
func (r *HTTPResponse) Err() error {
	if r.IsSuccess() {
		return nil
	}
	var body struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
	}
	_ = json.Unmarshal(r.Body, &body)
	msg := body.Message
	if msg == "" {
		msg = body.Msg
	}
	if msg == "" {
		msg = http.StatusText(r.StatusCode)
	}
	code := ErrAPI
	if r.StatusCode == http.StatusUnauthorized {
		code = ErrUnauthorized
	}
	return &APIError{Status: r.StatusCode, Code: code, Message: msg}
}
