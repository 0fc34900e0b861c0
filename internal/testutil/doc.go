// Package testutil provides test helpers for amocrm-api-middleware packages.
//
// It includes utilities to spin up IPv4-only local HTTP servers (avoiding IPv6
// in sandboxes), mock the amoCRM token endpoint without real sockets, mint
// throwaway JWTs with chosen expiries, and generate self-signed certificates
// for TLS tests.
//
// # Utilities
//
//   - NewLocalHTTPServer: start httptest server bound to 127.0.0.1
//   - MockTokenServer, TokenJSON, StaticJSONResponse: stub the token endpoint and capture requests
//   - RoundTripFunc: inline http.RoundTripper implementations
//   - SignTestToken / SignTestTokenWithClaims: mint JWTs shaped like amoCRM tokens
//   - WriteTestCACert / WriteTestCertAndKey: generate temporary certificates for TLS tests
//
// These helpers are designed for tests and may mutate http.DefaultClient/Transport; they restore previous values via tb.Cleanup.
package testutil
