package callback

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"
)

func startTestServer(t *testing.T, state string) *Server {
	t.Helper()

	srv, err := New("127.0.0.1:0", "/callback", state)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })

	return srv
}

func get(t *testing.T, rawURL string) *http.Response {
	t.Helper()

	resp, err := http.Get(rawURL) // #nosec G107 -- local test listener
	if err != nil {
		t.Fatalf("GET %s failed: %v", rawURL, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name  string
		addr  string
		path  string
		state string
	}{
		{name: "missing address", path: "/callback", state: "s"},
		{name: "missing path", addr: "127.0.0.1:0", state: "s"},
		{name: "relative path", addr: "127.0.0.1:0", path: "callback", state: "s"},
		{name: "missing state", addr: "127.0.0.1:0", path: "/callback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.addr, tt.path, tt.state); err == nil {
				t.Fatal("expected constructor error")
			}
		})
	}
}

func TestServer_CapturesCode(t *testing.T) {
	srv := startTestServer(t, "state-123")

	params := url.Values{}
	params.Set("code", "auth-code-456")
	params.Set("state", "state-123")
	params.Set("referer", "example.amocrm.ru")

	resp := get(t, fmt.Sprintf("http://%s/callback?%s", srv.Addr(), params.Encode()))
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := srv.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if result.Code != "auth-code-456" {
		t.Errorf("expected code 'auth-code-456', got %q", result.Code)
	}
	if result.State != "state-123" {
		t.Errorf("expected state 'state-123', got %q", result.State)
	}
	if result.Referer != "example.amocrm.ru" {
		t.Errorf("expected referer 'example.amocrm.ru', got %q", result.Referer)
	}
}

func TestServer_RejectsStateMismatch(t *testing.T) {
	srv := startTestServer(t, "expected-state")

	resp := get(t, fmt.Sprintf("http://%s/callback?code=c&state=forged", srv.Addr()))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for forged state, got %d", resp.StatusCode)
	}

	// The listener must keep waiting after a rejected request.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if _, err := srv.Wait(ctx); err == nil {
		t.Fatal("forged state must not deliver a result")
	}
}

func TestServer_RejectsMissingCode(t *testing.T) {
	srv := startTestServer(t, "state-123")

	resp := get(t, fmt.Sprintf("http://%s/callback?state=state-123", srv.Addr()))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing code, got %d", resp.StatusCode)
	}
}

func TestServer_SecondDeliveryConflicts(t *testing.T) {
	srv := startTestServer(t, "state-123")

	first := get(t, fmt.Sprintf("http://%s/callback?code=first&state=state-123", srv.Addr()))
	if first.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for the first code, got %d", first.StatusCode)
	}

	second := get(t, fmt.Sprintf("http://%s/callback?code=second&state=state-123", srv.Addr()))
	if second.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for a second code, got %d", second.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := srv.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if result.Code != "first" {
		t.Errorf("only the first code should be delivered, got %q", result.Code)
	}
}

func TestServer_WaitHonorsContext(t *testing.T) {
	srv := startTestServer(t, "state-123")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := srv.Wait(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
