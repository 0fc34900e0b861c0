package apiclient

import (
	"fmt"
	"net/http"

	"github.com/PSYCHXLAUGH/amocrm-api-middleware/oauth2client"
)

// Account is the account profile returned by GET api/v4/account.
type Account struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
	Country   string `json:"country"`
	Currency  string `json:"currency"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// Domain is the domain record returned by GET api/v4/domain.
type Domain struct {
	Domain     string `json:"domain"`
	BaseDomain string `json:"base_domain"`
	AccountID  int64  `json:"account_id"`
	Active     bool   `json:"active"`
}

// APIError reports a non-2xx response from the amoCRM API.
//
// A 401 additionally wraps oauth2client.ErrAccessTokenExpired so callers can
// handle vendor-side token rejection and local expiry detection uniformly.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Body is the raw response body, usually a JSON error document.
	Body string

	err error
}

func newAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}
	if statusCode == http.StatusUnauthorized {
		apiErr.err = oauth2client.ErrAccessTokenExpired
	}
	return apiErr
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apiclient: request failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.err
}
