package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultDownloadTimeout bounds the orders download.
	DefaultDownloadTimeout = 30 * time.Second

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// newHTTPClient returns the client used for the orders download.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: DefaultDownloadTimeout,
	}
}

// FetchOrders downloads the orders file at rawURL into path, replacing any existing copy.
func FetchOrders(ctx context.Context, client *http.Client, rawURL, path string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return &DownloadError{URL: rawURL, Message: "invalid URL", Cause: err}
	}

	if client == nil {
		client = newHTTPClient()
		defer client.CloseIdleConnections()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &DownloadError{URL: rawURL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/csv,text/plain;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return &DownloadError{URL: rawURL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &DownloadError{URL: rawURL, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".orders-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return &DownloadError{URL: rawURL, Message: "failed to read response body", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}
