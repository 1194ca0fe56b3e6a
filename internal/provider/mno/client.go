package mno

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"imsidesk/internal/domain/request"
	"imsidesk/internal/provider/base"

	"github.com/rs/zerolog/log"
)

// Upstream endpoints, relative to the API base URL
const (
	EndpointFirstPage    = "mno-first-page"
	EndpointBulkDownload = "mno-bulk-download"
	EndpointSingleUpload = "mno-single-upload"
)

// Authorizer runs an upstream call with a bearer token. auth.Session
// implements it with refresh-then-retry on 401.
type Authorizer interface {
	Do(ctx context.Context, op func(ctx context.Context, accessToken string) error) error
}

// Client talks to the operator's request API
type Client struct {
	httpClient *base.HTTPClient
	auth       Authorizer
}

// New creates a client for the API rooted at baseURL
func New(baseURL string, timeoutSec int, auth Authorizer) *Client {
	httpClient := base.NewHTTPClient("mno", timeoutSec)
	httpClient.SetBaseURL(baseURL)
	return &Client{httpClient: httpClient, auth: auth}
}

// HTTP exposes the underlying client so callers can swap its transport
func (c *Client) HTTP() *base.HTTPClient {
	return c.httpClient
}

// FirstPage fetches one page of pending cases. start is the 1-based page
// number, limit the page size.
func (c *Client) FirstPage(ctx context.Context, operator string, start, limit int) (*request.Page, error) {
	q := url.Values{}
	q.Set("mno", operator)
	q.Set("start", strconv.Itoa(start))
	q.Set("limit", strconv.Itoa(limit))

	var page request.Page
	err := c.call(ctx, func(ctx context.Context, headers map[string]string) error {
		resp, err := c.httpClient.Get(ctx, EndpointFirstPage+"?"+q.Encode(), headers)
		if err != nil {
			return err
		}
		if err := resp.Err(); err != nil {
			return err
		}
		if err := resp.UnmarshalJSON(&page); err != nil {
			return &base.APIError{Status: resp.StatusCode, Code: base.ErrResponseFormat, Message: "invalid first-page response", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", start, err)
	}
	if page.Count < 0 {
		page.Count = 0
	}

	log.Debug().
		Str("mno", operator).
		Int("start", start).
		Int("cases", len(page.Cases)).
		Int("count", page.Count).
		Msg("fetched request page")
	return &page, nil
}

// BulkDownload returns the CSV export of every pending case
func (c *Client) BulkDownload(ctx context.Context, operator string) ([]byte, error) {
	q := url.Values{}
	q.Set("mno", operator)

	var body []byte
	err := c.call(ctx, func(ctx context.Context, headers map[string]string) error {
		headers["Accept"] = "text/csv"
		resp, err := c.httpClient.Get(ctx, EndpointBulkDownload+"?"+q.Encode(), headers)
		if err != nil {
			return err
		}
		if err := resp.Err(); err != nil {
			return err
		}
		body = resp.Body
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bulk download: %w", err)
	}
	return body, nil
}

// AttachIMSI binds an IMSI to a subscriber's phone number
func (c *Client) AttachIMSI(ctx context.Context, req request.AttachIMSI) (*request.AttachResult, error) {
	var result request.AttachResult
	err := c.call(ctx, func(ctx context.Context, headers map[string]string) error {
		resp, err := c.httpClient.PutJSON(ctx, EndpointSingleUpload, req, headers)
		if err != nil {
			return err
		}
		if err := resp.Err(); err != nil {
			return err
		}
		if err := resp.UnmarshalJSON(&result); err != nil {
			return &base.APIError{Status: resp.StatusCode, Code: base.ErrResponseFormat, Message: "invalid single-upload response", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("attach imsi: %w", err)
	}

	log.Info().
		Str("mno", req.Operator).
		Str("msisdn", req.Subscriber.MSISDN()).
		Msg("imsi attached")
	return &result, nil
}

// call builds fresh headers for each attempt so a retried call picks up
// the refreshed token.
func (c *Client) call(ctx context.Context, fn func(ctx context.Context, headers map[string]string) error) error {
	return c.auth.Do(ctx, func(ctx context.Context, accessToken string) error {
		headers := map[string]string{"Authorization": "Bearer " + accessToken}
		return fn(ctx, headers)
	})
}
