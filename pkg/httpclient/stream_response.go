package httpclient

import (
	"io"
	"net/http"
	"sync"

	"github.com/go-resty/resty/v2"
)

// maxDrainBytes caps how much unread body Close discards to keep a connection reusable.
const maxDrainBytes = 256 << 10

// StreamResponse is a response whose headers have arrived but whose body may
// still be in flight. It owns the body and releases it exactly once.
type StreamResponse struct {
	url  string
	resp *resty.Response
	body io.ReadCloser

	once     sync.Once
	closeErr error
}

func newStreamResponse(url string, resp *resty.Response) *StreamResponse {
	body := resp.RawBody()
	if body == nil {
		body = http.NoBody
	}
	return &StreamResponse{url: url, resp: resp, body: body}
}

// StatusCode is available as soon as Open returns.
func (s *StreamResponse) StatusCode() int { return s.resp.StatusCode() }

// Header returns the first value of the response header key.
func (s *StreamResponse) Header(key string) string { return s.resp.Header().Get(key) }

// Body streams the response body. Reads block until bytes arrive.
func (s *StreamResponse) Body() io.Reader { return s }

// Read implements io.Reader over the body, reporting failures as TransportError.
func (s *StreamResponse) Read(p []byte) (int, error) {
	n, err := s.body.Read(p)
	if err != nil && err != io.EOF {
		return n, &TransportError{URL: s.url, Err: err}
	}
	return n, err
}

// EnsureSuccess returns a StatusError for non-2xx responses without decoding the body.
func (s *StreamResponse) EnsureSuccess() error {
	if s.resp.IsSuccess() {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(s.body, maxSnippetBytes))
	return &StatusError{
		Code:    s.resp.StatusCode(),
		Status:  s.resp.Status(),
		Snippet: BodySnippet(snippet),
	}
}

// Close drains what is left of the body (bounded) and closes it so the
// connection goes back to the pool. Only the first call has an effect.
func (s *StreamResponse) Close() error {
	s.once.Do(func() {
		_, _ = io.CopyN(io.Discard, s.body, maxDrainBytes)
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}
