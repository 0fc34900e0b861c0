package oauth2client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const (
	// authURL is the account-independent page where a user grants the
	// integration access and amoCRM issues the authorization code.
	authURL = "https://www.amocrm.ru/oauth"

	// tokenEndpointPath is resolved against the account base URL; token
	// grants are always performed on the account's own subdomain.
	tokenEndpointPath = "/oauth2/access_token"
)

// Logger is an interface for optional logging in TokenManager.
// Implementations can log token lifecycle events if desired.
type Logger interface {
	Printf(format string, args ...any)
}

// TokenManager owns the integration credentials and the current token pair
// for a single amoCRM account. Tokens are replaced in place on exchange and
// refresh; at most one pair is active per manager.
//
// The manager only detects expiry; it never refreshes behind the caller's
// back. When BearerToken returns ErrAccessTokenExpired the caller decides
// whether to call Refresh or to restart the authorization flow.
type TokenManager struct {
	config  Config
	baseURL string
	oauth   *oauth2.Config

	mu        sync.RWMutex
	token     *oauth2.Token
	longLived string

	logger Logger
}

// Option is a functional option for configuring TokenManager.
type Option func(*TokenManager)

// WithLogger sets a custom logger for token lifecycle events.
// If not set, no logging will occur.
func WithLogger(logger Logger) Option {
	return func(tm *TokenManager) {
		tm.logger = logger
	}
}

// WithLoggingEnabled enables logging using the default Go log package.
func WithLoggingEnabled() Option {
	return func(tm *TokenManager) {
		tm.logger = log.Default()
	}
}

// WithBaseURL overrides the account base URL derived from the subdomain.
// Useful for amocrm.com accounts and for tests.
func WithBaseURL(baseURL string) Option {
	return func(tm *TokenManager) {
		tm.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewTokenManager creates a token manager for one amoCRM account.
//
// Parameters:
//   - cfg: integration credentials (client ID, client secret, redirect URI)
//   - subdomain: the account subdomain, e.g. "example" for example.amocrm.ru
//   - opts: optional configuration (WithLogger, WithLoggingEnabled, WithBaseURL)
func NewTokenManager(cfg Config, subdomain string, opts ...Option) (*TokenManager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if subdomain == "" {
		return nil, errors.New("oauth2client: account subdomain is required")
	}

	tm := &TokenManager{
		config:  cfg,
		baseURL: fmt.Sprintf("https://%s.amocrm.ru", subdomain),
	}

	for _, opt := range opts {
		opt(tm)
	}

	// amoCRM expects client credentials in the request body, not basic auth.
	tm.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   authURL,
			TokenURL:  tm.baseURL + tokenEndpointPath,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	return tm, nil
}

// BaseURL returns the account base URL, e.g. "https://example.amocrm.ru".
func (tm *TokenManager) BaseURL() string {
	return tm.baseURL
}

// NewState returns a random state value for the authorization flow.
func NewState() string {
	return uuid.NewString()
}

// AuthCodeURL builds the URL a user visits to grant the integration access.
// state is echoed back on the redirect; mode selects how amoCRM delivers the
// code ("post_message" or "popup") and is omitted when empty.
func (tm *TokenManager) AuthCodeURL(state, mode string) string {
	params := url.Values{}
	params.Set("client_id", tm.config.ClientID)
	if state != "" {
		params.Set("state", state)
	}
	if mode != "" {
		params.Set("mode", mode)
	}
	return authURL + "?" + params.Encode()
}

// Exchange trades an authorization code for the initial token pair and
// installs it on the manager.
func (tm *TokenManager) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	token, err := tm.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, wrapRetrieveError(err)
	}

	tm.mu.Lock()
	tm.token = token
	tm.longLived = ""
	tm.mu.Unlock()

	if tm.logger != nil {
		tm.logger.Printf("oauth2client: obtained token pair (expires: %s)", token.Expiry.Format(time.RFC3339))
	}

	return token, nil
}

// Refresh trades the current refresh token for a new token pair and replaces
// the stored pair in place. It fails with ErrRefreshTokenExpired when the
// refresh token's own lifetime has passed or the vendor rejects the grant.
func (tm *TokenManager) Refresh(ctx context.Context) (*oauth2.Token, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	tm.mu.RLock()
	current := tm.token
	tm.mu.RUnlock()

	if current == nil {
		return nil, ErrNoToken
	}
	if current.RefreshToken == "" {
		return nil, errors.New("oauth2client: no refresh token available")
	}

	// Check the refresh token's own exp claim before going to the network.
	if expired, err := IsTokenExpired(current.RefreshToken); err == nil && expired {
		return nil, ErrRefreshTokenExpired
	}

	source := tm.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: current.RefreshToken})
	token, err := source.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && rejectedGrant(retrieveErr) {
			return nil, fmt.Errorf("%w: %s", ErrRefreshTokenExpired,
				strings.TrimSpace(string(retrieveErr.Body)))
		}
		return nil, wrapRetrieveError(err)
	}

	tm.mu.Lock()
	tm.token = token
	tm.mu.Unlock()

	if tm.logger != nil {
		tm.logger.Printf("oauth2client: refreshed token pair (expires: %s)", token.Expiry.Format(time.RFC3339))
	}

	return token, nil
}

// SetToken installs an externally obtained access/refresh token pair, for
// example one restored by the caller from its own storage. The pair's expiry
// is recovered from the access token's exp claim.
func (tm *TokenManager) SetToken(accessToken, refreshToken string) error {
	if accessToken == "" {
		return errors.New("oauth2client: access token is required")
	}

	expiry, err := TokenExpiry(accessToken)
	if err != nil {
		return err
	}

	tm.mu.Lock()
	tm.token = &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		Expiry:       expiry,
	}
	tm.longLived = ""
	tm.mu.Unlock()

	return nil
}

// SetLongLivedToken installs a long-lived token issued in the amoCRM account
// settings. While installed it takes precedence over the token pair and is
// never refreshed; when it expires the account must issue a new one.
func (tm *TokenManager) SetLongLivedToken(token string) error {
	if token == "" {
		return errors.New("oauth2client: long-lived token is required")
	}
	if _, err := DecodeClaims(token); err != nil {
		return err
	}

	tm.mu.Lock()
	tm.longLived = token
	tm.mu.Unlock()

	return nil
}

// Token returns a copy of the current token pair, or nil when none is installed.
func (tm *TokenManager) Token() *oauth2.Token {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if tm.token == nil {
		return nil
	}
	copied := *tm.token
	return &copied
}

// BearerToken returns the credential to place in the Authorization header:
// the long-lived token when one is installed, otherwise the access token.
//
// It fails with ErrAccessTokenExpired when the access token's lifetime has
// passed, and with ErrRefreshTokenExpired when the long-term credential
// (refresh or long-lived token) has expired too. Refreshing is the caller's
// responsibility.
func (tm *TokenManager) BearerToken() (string, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if tm.longLived != "" {
		expired, err := IsTokenExpired(tm.longLived)
		if err != nil {
			return "", err
		}
		if expired {
			return "", ErrRefreshTokenExpired
		}
		return tm.longLived, nil
	}

	if tm.token == nil {
		return "", ErrNoToken
	}

	if accessTokenValid(tm.token) {
		return tm.token.AccessToken, nil
	}

	if tm.token.RefreshToken != "" {
		if expired, err := IsTokenExpired(tm.token.RefreshToken); err == nil && expired {
			return "", ErrRefreshTokenExpired
		}
	}
	return "", ErrAccessTokenExpired
}

// accessTokenValid reports whether the pair's access token is still usable.
// The stored expiry wins; the exp claim is the fallback for tokens installed
// without one.
func accessTokenValid(token *oauth2.Token) bool {
	if token.AccessToken == "" {
		return false
	}
	if !token.Expiry.IsZero() {
		return time.Now().Before(token.Expiry)
	}
	expired, err := IsTokenExpired(token.AccessToken)
	if err != nil {
		return false
	}
	return !expired
}

// wrapRetrieveError converts x/oauth2 endpoint failures into ExchangeError
// so callers see the vendor's status code and body.
func wrapRetrieveError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 0
		if retrieveErr.Response != nil {
			status = retrieveErr.Response.StatusCode
		}
		return &ExchangeError{
			StatusCode: status,
			Body:       strings.TrimSpace(string(retrieveErr.Body)),
			err:        err,
		}
	}
	return fmt.Errorf("oauth2client: token request failed: %w", err)
}

// rejectedGrant reports whether the token endpoint refused the grant itself,
// as opposed to transport-level or server-side failures.
func rejectedGrant(err *oauth2.RetrieveError) bool {
	if err.Response == nil {
		return false
	}
	switch err.Response.StatusCode {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}
