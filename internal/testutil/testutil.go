package testutil

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// testSigningKey signs the throwaway JWTs minted for expiry tests. The
// library never verifies signatures, so any stable secret works.
var testSigningKey = []byte("amocrm-api-middleware-test-key")

// NewLocalHTTPServer starts an HTTP server bound to IPv4 loopback only.
// The sandbox blocks IPv6 listeners, so force tcp4 to keep tests runnable.
func NewLocalHTTPServer(tb testing.TB, handler http.Handler) *httptest.Server {
	tb.Helper()

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("failed to create IPv4 listener: %v", err)
	}

	server := httptest.NewUnstartedServer(handler)
	server.Listener = listener
	server.Start()

	return server
}

// RoundTripFunc allows inlining http.RoundTripper implementations.
type RoundTripFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls the underlying function.
func (f RoundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// MockTokenServer simulates the amoCRM token endpoint without real sockets.
// It records requests and serves responses through a custom RoundTripper.
type MockTokenServer struct {
	URL      string
	Ctx      context.Context
	Requests []*http.Request
}

// NewMockTokenServer builds a mock token endpoint backed by an in-memory
// RoundTripper. If handler is nil, it serves a fresh, valid token pair.
func NewMockTokenServer(tb testing.TB, handler RoundTripFunc) *MockTokenServer {
	tb.Helper()

	server := &MockTokenServer{
		URL: "https://mock-account.amocrm.ru",
	}

	if handler == nil {
		access := SignTestToken(tb, time.Now().Add(24*time.Hour))
		refresh := SignTestToken(tb, time.Now().Add(90*24*time.Hour))
		handler = StaticJSONResponse(TokenJSON(access, refresh, 86400))
	}

	rt := RoundTripFunc(func(req *http.Request) (*http.Response, error) {
		server.Requests = append(server.Requests, req)
		return handler(req)
	})

	prevTransport := http.DefaultTransport
	prevClient := http.DefaultClient
	http.DefaultTransport = rt
	http.DefaultClient = &http.Client{Transport: rt}
	tb.Cleanup(func() {
		http.DefaultTransport = prevTransport
		http.DefaultClient = prevClient
	})

	server.Ctx = context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{
		Transport: rt,
	})

	return server
}

// Close is a no-op to mirror httptest.Server usage in tests.
func (m *MockTokenServer) Close() {}

// TokenJSON renders a token endpoint response body in the vendor's shape.
func TokenJSON(accessToken, refreshToken string, expiresIn int) string {
	body, err := json.Marshal(map[string]any{
		"token_type":    "Bearer",
		"expires_in":    expiresIn,
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
	if err != nil {
		panic(err)
	}
	return string(body)
}

// StaticJSONResponse returns a RoundTripper that always responds with the provided JSON body.
func StaticJSONResponse(body string) RoundTripFunc {
	return StaticResponse(http.StatusOK, body)
}

// StaticResponse returns a RoundTripper that always responds with the provided status and body.
func StaticResponse(statusCode int, body string) RoundTripFunc {
	return func(req *http.Request) (*http.Response, error) {
		header := make(http.Header)
		header.Set("Content-Type", "application/json")
		return &http.Response{
			StatusCode: statusCode,
			Status:     fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)),
			Header:     header,
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    req,
		}, nil
	}
}

// SignTestToken mints an HS256 JWT with the given expiry, shaped like the
// tokens amoCRM issues (JWT access and refresh tokens carrying exp).
func SignTestToken(tb testing.TB, expiry time.Time) string {
	tb.Helper()

	return SignTestTokenWithClaims(tb, jwt.MapClaims{
		"exp":        expiry.Unix(),
		"iat":        time.Now().Add(-time.Minute).Unix(),
		"account_id": 12345678,
	})
}

// SignTestTokenWithClaims mints an HS256 JWT with arbitrary claims.
func SignTestTokenWithClaims(tb testing.TB, claims jwt.MapClaims) string {
	tb.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	if err != nil {
		tb.Fatalf("failed to sign test token: %v", err)
	}
	return token
}

// WriteTestCACert writes a self-signed CA certificate to the provided path for TLS tests.
func WriteTestCACert(tb testing.TB, path string) {
	tb.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatalf("failed to generate CA key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		Subject:               pkix.Name{CommonName: "test-ca"},
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	if err != nil {
		tb.Fatalf("failed to create CA certificate: %v", err)
	}

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(path, pemBytes, 0o600); err != nil {
		tb.Fatalf("failed to write CA certificate: %v", err)
	}
}

// WriteTestCertAndKey writes a self-signed certificate and key to the provided paths.
func WriteTestCertAndKey(tb testing.TB, certPath, keyPath string) {
	tb.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		tb.Fatalf("failed to generate key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		Subject:      pkix.Name{CommonName: "test-cert"},
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	if err != nil {
		tb.Fatalf("failed to create certificate: %v", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(certPath, certPEM, 0o600); err != nil {
		tb.Fatalf("failed to write certificate: %v", err)
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)})
	if err := os.WriteFile(keyPath, keyPEM, 0o600); err != nil {
		tb.Fatalf("failed to write key: %v", err)
	}
}
