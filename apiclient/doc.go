// Package apiclient exposes the "authenticated request" operation against
// the amoCRM REST API: JSON in, JSON out, bearer injection handled by the
// httpclient middleware underneath.
//
// # Quick Start
//
//	api := apiclient.New(tm)
//
//	account, err := api.Account(ctx)
//	if errors.Is(err, oauth2client.ErrAccessTokenExpired) {
//	    // refresh and retry
//	}
//
//	var contacts map[string]any
//	err = api.Get(ctx, "api/v4/contacts", &contacts)
//
// Non-2xx responses are reported as *APIError with the vendor's status code
// and body; a 401 also matches oauth2client.ErrAccessTokenExpired via
// errors.Is. The client never refreshes tokens or retries on its own.
package apiclient
