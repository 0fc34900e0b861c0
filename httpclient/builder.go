package httpclient

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/PSYCHXLAUGH/amocrm-api-middleware/oauth2client"
)

// Builder provides a fluent interface for constructing HTTP clients that
// authenticate against the amoCRM API, with optional TLS tuning.
type Builder struct {
	tokenManager *oauth2client.TokenManager
	userAgent    string

	tlsCAFile     string
	tlsCertFile   string
	tlsKeyFile    string
	tlsSkipVerify bool

	timeout         time.Duration
	baseTransport   http.RoundTripper
	followRedirects bool
}

// NewBuilder creates a new HTTP client builder.
func NewBuilder() *Builder {
	return &Builder{
		timeout:         30 * time.Second, // Default 30s timeout
		followRedirects: true,
	}
}

// WithTokenManager sets the token manager used to authenticate requests.
func (b *Builder) WithTokenManager(tm *oauth2client.TokenManager) *Builder {
	b.tokenManager = tm
	return b
}

// WithUserAgent overrides the default User-Agent header value.
func (b *Builder) WithUserAgent(userAgent string) *Builder {
	b.userAgent = userAgent
	return b
}

// WithTLS configures TLS for the connection.
//
// Parameters:
//   - caFile: Path to CA certificate for server verification (optional, uses system roots if empty)
//   - certFile: Path to client certificate for mTLS (optional, must be paired with keyFile)
//   - keyFile: Path to client private key for mTLS (optional, must be paired with certFile)
func (b *Builder) WithTLS(caFile, certFile, keyFile string) *Builder {
	b.tlsCAFile = caFile
	b.tlsCertFile = certFile
	b.tlsKeyFile = keyFile
	return b
}

// WithInsecureSkipVerify disables TLS certificate verification (NOT RECOMMENDED for production).
// This should only be used for testing or development purposes.
func (b *Builder) WithInsecureSkipVerify() *Builder {
	b.tlsSkipVerify = true
	return b
}

// WithTimeout sets the request timeout for the HTTP client.
// Default is 30 seconds if not specified.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithBaseTransport sets a custom base transport, useful for tests and for
// adding middleware or a custom connection pool.
func (b *Builder) WithBaseTransport(transport http.RoundTripper) *Builder {
	b.baseTransport = transport
	return b
}

// WithoutRedirects disables automatic redirect following.
func (b *Builder) WithoutRedirects() *Builder {
	b.followRedirects = false
	return b
}

// Build constructs the HTTP client with the configured options.
func (b *Builder) Build() (*http.Client, error) {
	transport := b.baseTransport
	if transport == nil {
		if httpTransport, ok := http.DefaultTransport.(*http.Transport); ok {
			cloned := httpTransport.Clone()

			tlsConfig, err := b.buildTLSConfig()
			if err != nil {
				return nil, fmt.Errorf("httpclient: TLS config failed: %w", err)
			}
			cloned.TLSClientConfig = tlsConfig

			transport = cloned
		} else {
			// A replaced default transport (e.g. a test stub) is used as-is.
			transport = http.DefaultTransport
		}
	}

	if b.tokenManager != nil {
		transport = &BearerTransport{
			Base:         transport,
			TokenManager: b.tokenManager,
			UserAgent:    b.userAgent,
		}
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   b.timeout,
	}

	if !b.followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client, nil
}

// buildTLSConfig constructs the TLS configuration for the HTTP client.
// TLS 1.2 is the floor even when nothing else is configured.
func (b *Builder) buildTLSConfig() (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: b.tlsSkipVerify, // #nosec G402
	}

	if b.tlsCAFile != "" {
		caCert, err := os.ReadFile(b.tlsCAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}

		certPool := x509.NewCertPool()
		if !certPool.AppendCertsFromPEM(caCert) {
			return nil, errors.New("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = certPool
	}

	if b.tlsCertFile != "" && b.tlsKeyFile != "" {
		cert, err := tls.LoadX509KeyPair(b.tlsCertFile, b.tlsKeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	} else if b.tlsCertFile != "" || b.tlsKeyFile != "" {
		return nil, errors.New("both TLS cert and key files must be provided for mTLS")
	}

	return tlsConfig, nil
}

// NewHTTPClient is a convenience function that creates an HTTP client
// authenticating through the given token manager. For more configuration
// options, use Builder instead.
//
// Example:
//
//	tm, _ := oauth2client.NewTokenManager(cfg, "example")
//	client := httpclient.NewHTTPClient(tm)
//	resp, err := client.Get("https://example.amocrm.ru/api/v4/account")
func NewHTTPClient(tm *oauth2client.TokenManager) *http.Client {
	return &http.Client{
		Transport: NewBearerTransport(tm, nil),
		Timeout:   30 * time.Second,
	}
}
