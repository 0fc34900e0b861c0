package httpclient

import (
	"fmt"
	"net/http"

	"github.com/PSYCHXLAUGH/amocrm-api-middleware/oauth2client"
)

// UserAgent identifies the library on every outgoing request, matching the
// integration name amoCRM shows in its request log.
const UserAgent = "amocrm-api-middleware/1.2.0"

// BearerTransport is an http.RoundTripper that authenticates outgoing
// requests against the amoCRM API.
//
// Before each request it asks the token manager for the active credential
// (access token or long-lived token) and sets the Authorization header. An
// expired credential surfaces as oauth2client.ErrAccessTokenExpired or
// oauth2client.ErrRefreshTokenExpired before any network call is made;
// refreshing is left to the caller.
type BearerTransport struct {
	// Base is the underlying HTTP transport. If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// TokenManager provides the bearer credential.
	TokenManager *oauth2client.TokenManager

	// UserAgent overrides the default User-Agent header value.
	UserAgent string
}

// RoundTrip implements http.RoundTripper. It clones the request, so the
// caller's request is never mutated.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.TokenManager == nil {
		return nil, fmt.Errorf("httpclient: TokenManager is nil")
	}

	token, err := t.TokenManager.BearerToken()
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}

	reqClone := req.Clone(req.Context())
	reqClone.Header.Set("Authorization", "Bearer "+token)

	userAgent := t.UserAgent
	if userAgent == "" {
		userAgent = UserAgent
	}
	if reqClone.Header.Get("User-Agent") == "" {
		reqClone.Header.Set("User-Agent", userAgent)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(reqClone)
}

// NewBearerTransport creates a BearerTransport with the given token manager.
// The base transport defaults to http.DefaultTransport if not specified.
func NewBearerTransport(tm *oauth2client.TokenManager, base http.RoundTripper) *BearerTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &BearerTransport{
		Base:         base,
		TokenManager: tm,
	}
}
