package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/samvad-hq/completion-bench/internal/domain"
)

// Mode selects the response completion boundary.
type Mode string

const (
	// ModeBuffered waits for the whole response before returning control.
	ModeBuffered Mode = "buffered"
	// ModeHeadersFirst returns after headers and streams the body under a scoped release.
	ModeHeadersFirst Mode = "headers_first"
	// ModeStream is the simplified headers-first form: a checked body stream the caller closes.
	ModeStream Mode = "stream"
)

// Sink selects what happens to the body once it is reachable.
type Sink string

const (
	SinkDecode Sink = "decode"
	SinkRead   Sink = "read"
	SinkNone   Sink = "none"
)

// ParseSink maps a config value onto a Sink.
func ParseSink(raw string) (Sink, error) {
	switch s := Sink(raw); s {
	case SinkDecode, SinkRead, SinkNone:
		return s, nil
	default:
		return "", fmt.Errorf("unknown body sink %q", raw)
	}
}

// Outcome summarizes one consumption call.
type Outcome struct {
	Books int
	Bytes int64
}

var jsonHeaders = map[string]string{"Accept": "application/json"}

// FetchBooksBuffered waits for the complete response, checks the status and decodes the buffered body.
func (r *RestyClient) FetchBooksBuffered(ctx context.Context, url string) ([]domain.Book, error) {
	return r.FetchBooks(ctx, ModeBuffered, url)
}

// FetchBooksHeadersFirst returns control at the headers boundary and decodes the
// body as a stream. The connection is released before the books are returned.
func (r *RestyClient) FetchBooksHeadersFirst(ctx context.Context, url string) ([]domain.Book, error) {
	return r.FetchBooks(ctx, ModeHeadersFirst, url)
}

// FetchBooksStream decodes from a status-checked body stream.
func (r *RestyClient) FetchBooksStream(ctx context.Context, url string) ([]domain.Book, error) {
	return r.FetchBooks(ctx, ModeStream, url)
}

// FetchBooks decodes the /books listing using the given mode.
func (r *RestyClient) FetchBooks(ctx context.Context, mode Mode, url string) ([]domain.Book, error) {
	var books []domain.Book
	err := r.withBody(ctx, mode, url, func(body io.Reader) error {
		var err error
		books, err = DecodeBooks(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// Consume runs one request in the given mode and hands the body to sink.
func (r *RestyClient) Consume(ctx context.Context, mode Mode, sink Sink, url string) (Outcome, error) {
	var out Outcome
	err := r.withBody(ctx, mode, url, func(body io.Reader) error {
		switch sink {
		case SinkDecode:
			books, err := DecodeBooks(body)
			out.Books = len(books)
			return err
		case SinkRead:
			n, err := io.Copy(io.Discard, body)
			out.Bytes = n
			return err
		case SinkNone:
			return nil
		default:
			return fmt.Errorf("unknown body sink %q", sink)
		}
	})
	return out, err
}

// OpenStream opens the response at the headers boundary and returns its body
// only when the status is 2xx. The caller must Close the stream.
func (r *RestyClient) OpenStream(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := r.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := resp.EnsureSuccess(); err != nil {
		_ = resp.Close()
		return nil, err
	}
	return resp, nil
}

// withBody acquires the body for mode, runs fn, and releases the body before returning.
func (r *RestyClient) withBody(ctx context.Context, mode Mode, url string, fn func(io.Reader) error) error {
	switch mode {
	case ModeBuffered:
		body, err := fetchBuffered(ctx, r, url)
		if err != nil {
			return err
		}
		return fn(bytes.NewReader(body))

	case ModeHeadersFirst:
		resp, err := r.Open(ctx, url)
		if err != nil {
			return err
		}
		defer resp.Close()
		if err := resp.EnsureSuccess(); err != nil {
			return err
		}
		return fn(resp.Body())

	case ModeStream:
		stream, err := r.OpenStream(ctx, url)
		if err != nil {
			return err
		}
		defer stream.Close()
		return fn(stream)

	default:
		return fmt.Errorf("unknown consumption mode %q", mode)
	}
}

// fetchBuffered reads the whole response through client and returns its body
// only for 2xx statuses.
func fetchBuffered(ctx context.Context, client Client, url string) ([]byte, error) {
	resp, err := client.Get(ctx, url, jsonHeaders)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func checkStatus(resp Response) error {
	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return nil
	}
	return &StatusError{Code: code, Status: resp.Status(), Snippet: BodySnippet(resp.Body())}
}

// DecodeBooks decodes a JSON array of books. A JSON null yields an empty slice.
// Anything but whitespace after the array is a DecodeError.
func DecodeBooks(r io.Reader) ([]domain.Book, error) {
	dec := json.NewDecoder(r)

	var books []domain.Book
	if err := dec.Decode(&books); err != nil {
		return nil, decodeFailure(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errTrailingData
		}
		return nil, decodeFailure(err)
	}
	if books == nil {
		books = []domain.Book{}
	}
	return books, nil
}

var errTrailingData = errors.New("unexpected data after top-level value")

// decodeFailure keeps read failures as TransportError and reports the rest as DecodeError.
func decodeFailure(err error) error {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr
	}
	return &DecodeError{Err: err}
}
