package httpclient

import (
	"fmt"
	"strings"
)

const maxSnippetBytes = 512

// StatusError reports a non-2xx response. It is produced before any body decoding.
type StatusError struct {
	Code    int
	Status  string
	Snippet string
}

func (e *StatusError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("http response status %d", e.Code)
	}
	return fmt.Sprintf("http response status %d: %s", e.Code, e.Snippet)
}

// DecodeError reports a body that is not a JSON array of books.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode books: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// TransportError reports a connection-level failure (DNS, refusal, reset, truncated body).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("http transport: %v", e.Err)
	}
	return fmt.Sprintf("http request %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BodySnippet returns the trimmed first 512 bytes of body for error messages.
func BodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > maxSnippetBytes {
		body = body[:maxSnippetBytes]
	}
	return strings.TrimSpace(string(body))
}
