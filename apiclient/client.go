package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PSYCHXLAUGH/amocrm-api-middleware/httpclient"
	"github.com/PSYCHXLAUGH/amocrm-api-middleware/oauth2client"
)

// Client performs authenticated JSON requests against the amoCRM REST API of
// a single account. Authentication is delegated to the token manager through
// the httpclient middleware; the client itself never touches tokens.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option is a functional option for configuring Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. The provided client is
// expected to carry the bearer middleware (see httpclient.Builder).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

// New creates an API client bound to the token manager's account.
func New(tm *oauth2client.TokenManager, opts ...Option) *Client {
	c := &Client{
		baseURL: tm.BaseURL(),
		http:    httpclient.NewHTTPClient(tm),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Do performs an authenticated request against the account's API.
//
// endpoint is resolved against the account base URL ("api/v4/contacts" and
// "/api/v4/contacts" are equivalent). body, when non-nil, is marshaled to
// JSON; out, when non-nil, receives the decoded response body.
//
// Expired credentials surface as oauth2client.ErrAccessTokenExpired or
// oauth2client.ErrRefreshTokenExpired; the caller re-authenticates and
// retries. Non-2xx responses become *APIError.
func (c *Client) Do(ctx context.Context, method, endpoint string, body, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	url := c.baseURL + "/" + strings.TrimPrefix(endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("apiclient: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("apiclient: read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return newAPIError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("apiclient: decode response body: %w", err)
	}
	return nil
}

// Get performs an authenticated GET request.
func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	return c.Do(ctx, http.MethodGet, endpoint, nil, out)
}

// Post performs an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.Do(ctx, http.MethodPost, endpoint, body, out)
}

// Patch performs an authenticated PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, endpoint string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, endpoint, body, out)
}

// Put performs an authenticated PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body, out any) error {
	return c.Do(ctx, http.MethodPut, endpoint, body, out)
}

// Account fetches the current account's profile, the cheapest way to verify
// that the installed credential is accepted by the vendor.
func (c *Client) Account(ctx context.Context) (*Account, error) {
	var account Account
	if err := c.Get(ctx, "api/v4/account", &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Domain fetches information about the account's domain.
func (c *Client) Domain(ctx context.Context) (*Domain, error) {
	var domain Domain
	if err := c.Get(ctx, "api/v4/domain", &domain); err != nil {
		return nil, err
	}
	return &domain, nil
}
