package remote

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three failure kinds. Every error returned by Do
// matches exactly one of them through errors.Is.
var (
	// ErrTransport reports that no HTTP response was obtained.
	ErrTransport = errors.New("remote: transport failure")

	// ErrStatus reports an HTTP status >= 400.
	ErrStatus = errors.New("remote: application failure")

	// ErrDecode reports a response body that is not valid JSON.
	ErrDecode = errors.New("remote: decode failure")

	// ErrInvalidBaseURL is returned when the page URL has no scheme or host.
	ErrInvalidBaseURL = errors.New("remote: invalid base URL")
)

// TransportError wraps a network-level failure (DNS, refused connection,
// reset while reading the body, context cancellation).
type TransportError struct {
	Verb string
	URL  string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("remote: %s %s: %v", e.Verb, e.URL, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *TransportError) Unwrap() error { return e.Err }

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// StatusError reports an HTTP status >= 400.
type StatusError struct {
	Verb       string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote: %s %s: status %d", e.Verb, e.URL, e.StatusCode)
}

// Is reports whether target is ErrStatus.
func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// DecodeError reports a malformed JSON body.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("remote: %s: decoding JSON: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *DecodeError) Unwrap() error { return e.Err }

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// outcome maps an error to the metrics label of its kind.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, ErrDecode):
		return "decode"
	default:
		return "transport"
	}
}
