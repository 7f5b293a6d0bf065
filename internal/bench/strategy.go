package bench

import (
	"context"

	"github.com/samvad-hq/completion-bench/pkg/httpclient"
)

// Strategy is one benchmarked way of consuming the listing.
type Strategy struct {
	Name string
	Mode httpclient.Mode
	Sink httpclient.Sink
	Fn   func(ctx context.Context) error
}

// Strategy names as reported in result tables.
const (
	NameBuffered     = "WithoutHeadersFirst"
	NameHeadersFirst = "WithHeadersFirst"
	NameStream       = "WithStream"
)

// DefaultStrategies returns the buffered, headers-first and stream strategies
// against url, all sharing fetcher.
func DefaultStrategies(fetcher httpclient.BookFetcher, url string, sink httpclient.Sink) []Strategy {
	modes := []struct {
		name string
		mode httpclient.Mode
	}{
		{NameBuffered, httpclient.ModeBuffered},
		{NameHeadersFirst, httpclient.ModeHeadersFirst},
		{NameStream, httpclient.ModeStream},
	}

	out := make([]Strategy, 0, len(modes))
	for _, m := range modes {
		mode := m.mode
		out = append(out, Strategy{
			Name: m.name,
			Mode: mode,
			Sink: sink,
			Fn: func(ctx context.Context) error {
				_, err := fetcher.Consume(ctx, mode, sink, url)
				return err
			},
		})
	}
	return out
}
