// Package httpclient offers HTTP client construction helpers for the amoCRM
// API: a RoundTripper middleware that injects the bearer credential, and a
// fluent Builder with TLS, timeout and redirect options.
//
// BearerTransport asks the token manager for the active credential before
// each request and fails fast with the typed expiry errors from oauth2client
// when it is no longer usable; it never refreshes on its own.
//
// # Quick Start
//
//	client, err := httpclient.NewBuilder().
//	    WithTokenManager(tm).
//	    WithTimeout(60 * time.Second).
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Get("https://example.amocrm.ru/api/v4/account")
//	if errors.Is(err, oauth2client.ErrAccessTokenExpired) {
//	    // refresh and retry
//	}
//
// # Manual Transport Wrapping
//
//	transport := httpclient.NewBearerTransport(tm, nil)
//	client := &http.Client{Transport: transport}
//
// All components are safe for concurrent use if the provided TokenManager is.
package httpclient
