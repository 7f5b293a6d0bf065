package httpclient

import (
	"context"
	"io"

	"github.com/samvad-hq/completion-bench/internal/domain"
)

// Response is a fully buffered HTTP response.
type Response interface {
	Body() []byte
	StatusCode() int
	Status() string
}

// Client abstracts buffered HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// BookFetcher is the consumption surface the benchmark harness measures.
type BookFetcher interface {
	FetchBooks(ctx context.Context, mode Mode, url string) ([]domain.Book, error)
	Consume(ctx context.Context, mode Mode, sink Sink, url string) (Outcome, error)
}

var (
	_ Client       = (*RestyClient)(nil)
	_ BookFetcher  = (*RestyClient)(nil)
	_ StreamOpener = (*RestyClient)(nil)
)

// StreamOpener opens a response as soon as its headers are available.
type StreamOpener interface {
	Open(ctx context.Context, url string) (*StreamResponse, error)
	OpenStream(ctx context.Context, url string) (io.ReadCloser, error)
}
