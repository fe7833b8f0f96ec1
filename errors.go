package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strings"
)

var (
	// ErrElementNotFound is returned when a selector does not resolve within the element timeout.
	ErrElementNotFound = errors.New("element not found")

	// ErrSubmissionStuck is returned when the order button is still visible after every submit attempt.
	ErrSubmissionStuck = errors.New("submission stuck")

	// ErrInvalidPartIndex is returned for a head or body index outside the part catalog.
	ErrInvalidPartIndex = errors.New("invalid part index")

	// ErrNavigation is returned when the order form cannot be opened.
	ErrNavigation = errors.New("navigation failed")

	// ErrMalformedOrders is returned for an orders file with a bad header or an unparsable row.
	ErrMalformedOrders = errors.New("malformed orders file")
)

// OrderError ties a failure to the order and the workflow stage it happened in.
type OrderError struct {
	Number string
	Stage  Stage
	Err    error
}

func (e *OrderError) Error() string {
	return fmt.Sprintf("order %s failed after %s: %v", e.Number, e.Stage, e.Err)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// DownloadError describes a failed orders download.
type DownloadError struct {
	URL     string
	Message string
	Cause   error
}

func (e *DownloadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("download %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("download %s: %s", e.URL, e.Message)
}

func (e *DownloadError) Unwrap() error {
	return e.Cause
}

// isNetworkError checks if an error came from the network rather than the page
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}

	// syscall.Errno satisfies net.Error, so match the concrete network types
	var opErr *net.OpError
	var dnsErr *net.DNSError
	var urlErr *url.Error
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) || errors.As(err, &urlErr) {
		return true
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "no route to host") ||
		strings.Contains(errStr, "ERR_NAME_NOT_RESOLVED") ||
		strings.Contains(errStr, "ERR_INTERNET_DISCONNECTED")
}

// errorKind buckets a workflow error for the failure log line.
func errorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrSubmissionStuck):
		return "submission"
	case errors.Is(err, ErrInvalidPartIndex), errors.Is(err, ErrMalformedOrders):
		return "input"
	case errors.Is(err, ErrElementNotFound):
		return "element"
	case errors.Is(err, ErrNavigation):
		return "navigation"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}

	var dlErr *DownloadError
	if errors.As(err, &dlErr) || isNetworkError(err) {
		return "network"
	}

	return "other"
}
