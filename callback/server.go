package callback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// Result is what amoCRM delivers to the redirect URI after the user grants
// access. Referer carries the account domain (e.g. "example.amocrm.ru"), the
// piece needed to pick the token endpoint for the exchange.
type Result struct {
	Code    string
	State   string
	Referer string
}

// Server is a one-shot local listener for the integration's redirect URI.
// It captures the first authorization code whose state matches and leaves
// the code-for-token exchange to the caller.
type Server struct {
	addr  string
	path  string
	state string

	listener net.Listener
	server   *http.Server

	once    sync.Once
	results chan Result
}

// New creates a listener for the given address and redirect path.
//
// Parameters:
//   - addr: listen address, e.g. "127.0.0.1:8123"
//   - path: the path component of the registered redirect URI, e.g. "/callback"
//   - state: the state value sent with AuthCodeURL; mismatching requests are rejected
func New(addr, path, state string) (*Server, error) {
	if addr == "" {
		return nil, errors.New("callback: listen address is required")
	}
	if path == "" || path[0] != '/' {
		return nil, errors.New("callback: redirect path must start with '/'")
	}
	if state == "" {
		return nil, errors.New("callback: state is required")
	}

	return &Server{
		addr:    addr,
		path:    path,
		state:   state,
		results: make(chan Result, 1),
	}, nil
}

// Start binds the listener and begins serving in the background.
func (s *Server) Start() error {
	// IPv4 only; the redirect URI is registered with a concrete host.
	listener, err := net.Listen("tcp4", s.addr)
	if err != nil {
		return fmt.Errorf("callback: listen on %s: %w", s.addr, err)
	}
	s.listener = listener

	router := chi.NewRouter()
	router.Get(s.path, s.handle)

	s.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		// ErrServerClosed is the normal shutdown path.
		_ = s.server.Serve(listener)
	}()

	return nil
}

// Addr returns the bound address, useful when the port was chosen by the OS.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Wait blocks until the redirect delivered a matching authorization code or
// the context is done.
func (s *Server) Wait(ctx context.Context) (Result, error) {
	select {
	case result := <-s.results:
		return result, nil
	case <-ctx.Done():
		return Result{}, fmt.Errorf("callback: waiting for authorization code: %w", ctx.Err())
	}
}

// Close shuts the listener down. Safe to call after a successful Wait.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	return s.server.Close()
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	code := query.Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}
	if query.Get("state") != s.state {
		http.Error(w, "state mismatch", http.StatusForbidden)
		return
	}

	result := Result{
		Code:    code,
		State:   query.Get("state"),
		Referer: query.Get("referer"),
	}

	delivered := false
	s.once.Do(func() {
		s.results <- result
		delivered = true
	})
	if !delivered {
		http.Error(w, "authorization code already received", http.StatusConflict)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body>Authorization received. You can close this window.</body></html>")
}
