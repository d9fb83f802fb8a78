package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Fetcher downloads a URL to a file.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// HTTPFetcher streams downloads into Fs with retries and an atomic rename.
type HTTPFetcher struct {
	Fs      afero.Fs
	Client  *http.Client
	Retries int
	Backoff time.Duration
}

// NewHTTPFetcher returns a fetcher with a 5 minute per-request timeout and a
// ten redirect limit. GitHub asset URLs redirect to object storage.
func NewHTTPFetcher(fs afero.Fs, retries int) *HTTPFetcher {
	return &HTTPFetcher{
		Fs: fs,
		Client: &http.Client{
			Timeout: 5 * time.Minute,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		Retries: retries,
		Backoff: time.Second,
	}
}

type statusError struct {
	url    string
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("download %s: unexpected status %s", e.url, e.status)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}

// Fetch downloads url to dest. Transport errors and 5xx responses are retried
// with exponential backoff; other statuses fail immediately.
func (f *HTTPFetcher) Fetch(ctx context.Context, url, dest string) error {
	retries := max(f.Retries, 0)
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt > 0 {
			backoff := f.Backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := f.fetchOnce(ctx, url, dest)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !retryable(err) {
			return err
		}
	}
	if retries > 0 {
		return fmt.Errorf("after %d retries: %w", retries, lastErr)
	}
	return lastErr
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{url: url, code: resp.StatusCode, status: resp.Status}
	}

	if err := f.Fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("prepare download destination: %w", err)
	}

	tmpPath := dest + ".tmp"
	tmp, err := f.Fs.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = f.Fs.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := f.Fs.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("finalize download: %w", err)
	}
	committed = true
	return nil
}
