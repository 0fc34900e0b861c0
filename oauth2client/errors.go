package oauth2client

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by TokenManager and the HTTP middleware built on
// top of it. Callers match them with errors.Is and are responsible for
// re-authentication; the library never retries or recovers on its own.
var (
	// ErrNoToken is returned when no token pair or long-lived token has been
	// installed on the manager yet.
	ErrNoToken = errors.New("oauth2client: no token installed")

	// ErrAccessTokenExpired is returned when the access token's lifetime has
	// passed but the refresh token is still usable.
	ErrAccessTokenExpired = errors.New("oauth2client: access token expired")

	// ErrRefreshTokenExpired is returned when the long-term credential (the
	// refresh token or an installed long-lived token) has expired and a full
	// re-authorization is required.
	ErrRefreshTokenExpired = errors.New("oauth2client: long-term (refresh) token expired")
)

// ExchangeError reports a grant request the amoCRM token endpoint rejected.
type ExchangeError struct {
	// StatusCode is the HTTP status returned by the token endpoint.
	StatusCode int

	// Body is the raw response body, usually a JSON error document.
	Body string

	err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("oauth2client: token endpoint returned %d: %s", e.StatusCode, e.Body)
}

func (e *ExchangeError) Unwrap() error {
	return e.err
}
