package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Trace is the per-request connection timing reported by resty.
// ServerTime runs from connection acquisition to the first response byte.
// TotalTime ends when the client returns control: after the body in buffered
// mode, at the headers in headers-first mode.
type Trace struct {
	ConnReused bool
	ServerTime time.Duration
	TotalTime  time.Duration
}

// TraceObserver receives a Trace once response headers are available.
type TraceObserver func(Trace)

// RestyClient adapts resty.Client to the httpclient interfaces. One instance is
// meant to be shared by every request of a run so the connection pool stays warm.
type RestyClient struct {
	client   *resty.Client
	observer TraceObserver
}

// Option customizes a RestyClient.
type Option func(*restyOptions)

type restyOptions struct {
	timeout  time.Duration
	logger   resty.Logger
	observer TraceObserver
}

// WithTimeout bounds the whole exchange, body included. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *restyOptions) { o.timeout = d }
}

// WithLogger routes resty's internal warnings to l.
func WithLogger(l resty.Logger) Option {
	return func(o *restyOptions) { o.logger = l }
}

// WithTrace enables request tracing and reports every trace to obs.
func WithTrace(obs TraceObserver) Option {
	return func(o *restyOptions) { o.observer = obs }
}

// NewRestyClient creates a new RestyClient.
func NewRestyClient(opts ...Option) *RestyClient {
	var o restyOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	c := newRestyBaseClient(o.timeout)
	if o.logger != nil {
		c.SetLogger(o.logger)
	}
	return &RestyClient{client: c, observer: o.observer}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

// Close drops idle pooled connections. The client must not be used afterwards.
func (r *RestyClient) Close() {
	if r == nil || r.client == nil {
		return
	}
	r.client.GetClient().CloseIdleConnections()
}

// Get performs a buffered HTTP GET: it returns only after the whole body was read.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	resp, err := r.request(ctx, headers).Get(url)
	if err != nil {
		return nil, &TransportError{URL: url, Err: err}
	}
	r.observe(resp)
	return &restyResponseAdapter{resp: resp}, nil
}

// Open performs an HTTP GET that returns as soon as status and headers arrive.
// The caller owns the returned handle and must Close it.
func (r *RestyClient) Open(ctx context.Context, url string) (*StreamResponse, error) {
	resp, err := r.request(ctx, jsonHeaders).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		if resp != nil && resp.RawBody() != nil {
			_ = resp.RawBody().Close()
		}
		return nil, &TransportError{URL: url, Err: err}
	}
	r.observe(resp)
	return newStreamResponse(url, resp), nil
}

func (r *RestyClient) request(ctx context.Context, headers map[string]string) *resty.Request {
	if ctx == nil {
		ctx = context.Background()
	}
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if r.observer != nil {
		req.EnableTrace()
	}
	return req
}

func (r *RestyClient) observe(resp *resty.Response) {
	if r.observer == nil || resp == nil || resp.Request == nil {
		return
	}
	ti := resp.Request.TraceInfo()
	// TraceInfo.TotalTime starts at DNS lookup, which never happens for IP
	// literals; summing the connection-relative phases measures from GetConn.
	r.observer(Trace{
		ConnReused: ti.IsConnReused,
		ServerTime: ti.ServerTime,
		TotalTime:  ti.ConnTime + ti.ServerTime + ti.ResponseTime,
	})
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Status() string  { return r.resp.Status() }
