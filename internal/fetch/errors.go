package fetch

import (
	"errors"
	"fmt"
)

// ErrNoTimeout is returned when a client is configured without a timeout.
var ErrNoTimeout = errors.New("fetch client requires a non-zero timeout")

// Kind classifies a fetch failure.
type Kind string

const (
	KindInvalidLink    Kind = "invalid_link"
	KindAPI            Kind = "api_error"
	KindEmptyContent   Kind = "empty_content"
	KindNoPDFLink      Kind = "no_pdf_link"
	KindNetworkTimeout Kind = "network_timeout"
	KindNonPDFContent  Kind = "non_pdf_content"
	KindNetwork        Kind = "network_error"
	KindHTTPStatus     Kind = "http_status"
	KindTooLarge       Kind = "too_large"
)

// Error describes a failed fetch.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int // zero when no response was received
	Err        error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.URL != "" {
		msg += " fetching " + e.URL
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a fetch error of kind k.
func IsKind(err error, k Kind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == k
	}
	return false
}

// KindOf returns the kind of a fetch error, or "" if err is not one.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// retryable reports whether a download failure may succeed on another try.
func retryable(err error) bool {
	var fe *Error
	if !errors.As(err, &fe) {
		return false
	}
	switch fe.Kind {
	case KindNetwork, KindNetworkTimeout:
		return true
	case KindHTTPStatus:
		return fe.StatusCode >= 500 || fe.StatusCode == 429
	}
	return false
}
