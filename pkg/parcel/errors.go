package parcel

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers can branch without inspecting
// HTTP internals or provider messages.
type Kind string

const (
	// KindAuthentication: the provider rejected the credential exchange.
	KindAuthentication Kind = "authentication"

	// KindListing: a parcel listing page request failed.
	KindListing Kind = "listing"

	// KindUnsupportedFormat: the provider rejected the requested print options.
	KindUnsupportedFormat Kind = "unsupported_format"

	// KindDownload: the label request failed for a reason other than format.
	KindDownload Kind = "download"

	// KindIO: a local filesystem operation failed.
	KindIO Kind = "io"

	// KindPrecondition: the caller supplied input that must not reach the provider.
	KindPrecondition Kind = "precondition"
)

// ErrEmptySelection is returned when a label request names no parcels.
var ErrEmptySelection = &Error{Kind: KindPrecondition, Message: "no parcels selected"}

// Error is the error type returned by every pipeline operation.
type Error struct {
	Kind       Kind
	StatusCode int

	// PaperSize is the rejected format for KindUnsupportedFormat.
	PaperSize PaperSize

	// Fallback is the format suggested instead of PaperSize; empty when
	// PaperSize already is the fallback.
	Fallback PaperSize

	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind) + " error"
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Kind == KindUnsupportedFormat && e.PaperSize != "" {
		msg = fmt.Sprintf("%s: paper size %s not supported", msg, e.PaperSize)
		if e.Fallback != "" {
			msg += ", try " + string(e.Fallback)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind whose StatusCode is zero or equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.StatusCode != 0 && t.StatusCode != e.StatusCode {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsUnauthorized reports whether the provider answered 401 or 403, which
// usually means the access token expired and the user must log in again.
func IsUnauthorized(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
