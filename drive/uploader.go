package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/PSYCHXLAUGH/amocrm-api-middleware/httpclient"
	"github.com/PSYCHXLAUGH/amocrm-api-middleware/oauth2client"
)

const (
	// DefaultDriveURL is the amoCRM drive service endpoint.
	DefaultDriveURL = "https://drive-b.amocrm.ru"

	// DefaultMaxPartSize is the chunk size the drive service accepts by default.
	DefaultMaxPartSize = 131072
)

// Uploader uploads files to the amoCRM drive service in chunks. A session is
// opened per file; each chunk is posted to the URL the previous response
// returned in next_url.
type Uploader struct {
	driveURL    string
	maxPartSize int
	http        *http.Client
}

// Option is a functional option for configuring Uploader.
type Option func(*Uploader)

// WithDriveURL overrides the drive service endpoint. The account's real
// drive URL is available in its api/v4/account response.
func WithDriveURL(driveURL string) Option {
	return func(u *Uploader) {
		u.driveURL = driveURL
	}
}

// WithMaxPartSize overrides the chunk size.
func WithMaxPartSize(size int) Option {
	return func(u *Uploader) {
		u.maxPartSize = size
	}
}

// WithHTTPClient replaces the default HTTP client. The provided client is
// expected to carry the bearer middleware (see httpclient.Builder).
func WithHTTPClient(client *http.Client) Option {
	return func(u *Uploader) {
		u.http = client
	}
}

// NewUploader creates an uploader authenticating through the token manager.
func NewUploader(tm *oauth2client.TokenManager, opts ...Option) *Uploader {
	u := &Uploader{
		driveURL:    DefaultDriveURL,
		maxPartSize: DefaultMaxPartSize,
		http:        httpclient.NewHTTPClient(tm),
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

// sessionRequest is the body of the session creation call.
type sessionRequest struct {
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	ContentType string `json:"content_type"`
}

// sessionResponse carries the URL the first chunk must be posted to.
type sessionResponse struct {
	UploadURL string `json:"upload_url"`
	SessionID int64  `json:"session_id"`
}

// chunkResponse carries the URL for the next chunk; next_url is empty on the
// final chunk, when the service responds with the file metadata instead.
type chunkResponse struct {
	NextURL string `json:"next_url"`
}

// CreateSession opens an upload session and returns the URL the first chunk
// must be posted to.
func (u *Uploader) CreateSession(ctx context.Context, fileName string, fileSize int64, contentType string) (string, error) {
	if fileName == "" {
		return "", errors.New("drive: file name is required")
	}

	body, err := json.Marshal(sessionRequest{
		FileName:    fileName,
		FileSize:    fileSize,
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("drive: marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.driveURL+"/v1.0/sessions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("drive: create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var session sessionResponse
	if err := u.do(req, &session); err != nil {
		return "", err
	}
	if session.UploadURL == "" {
		return "", errors.New("drive: session response carries no upload URL")
	}

	return session.UploadURL, nil
}

// UploadChunk posts one chunk to uploadURL and returns the URL for the next
// chunk. The returned URL is empty after the final chunk.
func (u *Uploader) UploadChunk(ctx context.Context, uploadURL string, chunk []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(chunk))
	if err != nil {
		return "", fmt.Errorf("drive: create chunk request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	var next chunkResponse
	if err := u.do(req, &next); err != nil {
		return "", err
	}

	return next.NextURL, nil
}

// Upload streams r to the drive service in maxPartSize chunks: it opens a
// session sized to fileSize and follows each response's next_url until the
// reader is drained.
func (u *Uploader) Upload(ctx context.Context, r io.Reader, fileName string, fileSize int64, contentType string) error {
	uploadURL, err := u.CreateSession(ctx, fileName, fileSize, contentType)
	if err != nil {
		return err
	}

	buf := make([]byte, u.maxPartSize)
	for {
		n, err := io.ReadFull(r, buf)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("drive: read file chunk: %w", err)
		}
		if uploadURL == "" {
			return errors.New("drive: service returned no next_url before the final chunk")
		}

		uploadURL, err = u.UploadChunk(ctx, uploadURL, buf[:n], contentType)
		if err != nil {
			return err
		}

		if n < u.maxPartSize {
			return nil
		}
	}
}

// do performs the request and decodes a JSON response into out.
func (u *Uploader) do(req *http.Request, out any) error {
	resp, err := u.http.Do(req)
	if err != nil {
		return fmt.Errorf("drive: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("drive: read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("drive: request failed with status %d: %s", resp.StatusCode, body)
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("drive: decode response body: %w", err)
		}
	}
	return nil
}
