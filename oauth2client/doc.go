// Package oauth2client implements the OAuth2 token lifecycle for a single
// amoCRM account: authorization URL generation, authorization-code exchange,
// refresh-token grants, and long-lived tokens issued in the account settings.
//
// The TokenManager holds the integration credentials and exactly one token
// pair. It detects expiry (via the stored expiry or the token's exp claim)
// and surfaces it as typed errors, but never refreshes on its own - the
// caller stays in control of re-authentication.
//
// # Features
//
//   - Authorization-code exchange and refresh grants via golang.org/x/oauth2
//   - Typed expiry errors: ErrAccessTokenExpired, ErrRefreshTokenExpired
//   - Long-lived token support taking precedence over the token pair
//   - Unverified JWT claim inspection (amoCRM publishes no key set)
//   - Credentials loadable from AMOCRM_* environment variables
//   - Optional logging (WithLogger, WithLoggingEnabled)
//
// # Quick Start
//
//	cfg := oauth2client.MustLoadConfig()
//
//	tm, err := oauth2client.NewTokenManager(cfg, "example")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	state := oauth2client.NewState()
//	fmt.Println("visit:", tm.AuthCodeURL(state, ""))
//
//	// after the redirect delivered the code:
//	if _, err := tm.Exchange(ctx, code); err != nil {
//	    log.Fatal(err)
//	}
//
//	token, err := tm.BearerToken()
//	switch {
//	case errors.Is(err, oauth2client.ErrAccessTokenExpired):
//	    _, err = tm.Refresh(ctx)
//	case errors.Is(err, oauth2client.ErrRefreshTokenExpired):
//	    // full re-authorization required
//	}
//
// TokenManager is safe for concurrent use.
package oauth2client
