package adsb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrorKind classifies a data source failure.
type ErrorKind int

const (
	// KindNetwork is a transport-level failure (DNS, TCP, unexpected status)
	KindNetwork ErrorKind = iota

	// KindTimeout is a request that hit its deadline
	KindTimeout

	// KindAuth is a rejected credential or missing API key (HTTP 401/403)
	KindAuth

	// KindMalformed is a response body that could not be decoded
	KindMalformed

	// KindNotFound is a lookup for an aircraft the provider does not track
	KindNotFound
)

// String returns a short label for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindAuth:
		return "auth"
	case KindMalformed:
		return "malformed"
	case KindNotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Error is a classified data source failure. Source names the provider.
type Error struct {
	Kind   ErrorKind
	Source string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError wraps err with a kind and provider name.
func newError(kind ErrorKind, source string, err error) *Error {
	return &Error{Kind: kind, Source: source, Err: err}
}

// KindOf extracts the error kind from err. Unclassified errors report
// KindNetwork, the safest assumption for a failed poll.
func KindOf(err error) ErrorKind {
	var srcErr *Error
	if errors.As(err, &srcErr) {
		return srcErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindNetwork
}

// IsNotFound reports whether err is a KindNotFound data source error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// classifyTransportErr maps an http.Client error to a timeout or network kind.
func classifyTransportErr(source string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, source, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(KindTimeout, source, err)
	}
	return newError(KindNetwork, source, err)
}

// classifyStatus maps a non-200 HTTP status to an error kind.
func classifyStatus(source string, status int) *Error {
	err := fmt.Errorf("API returned status %d", status)
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return newError(KindAuth, source, err)
	case http.StatusNotFound:
		return newError(KindNotFound, source, err)
	default:
		return newError(KindNetwork, source, err)
	}
}
