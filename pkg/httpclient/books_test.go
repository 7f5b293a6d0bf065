package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/completion-bench/internal/domain"
)

var allModes = []Mode{ModeBuffered, ModeHeadersFirst, ModeStream}

func makeBooks(n int) []domain.Book {
	books := make([]domain.Book, n)
	for i := range books {
		books[i] = domain.Book{
			Author: fmt.Sprintf("Author %d", i),
			Date:   "2020-03-20",
			ISBN:   fmt.Sprintf("isbn-%06d", i),
			Name:   fmt.Sprintf("Title %d", i),
		}
	}
	return books
}

func jsonHandler(t *testing.T, payload any) http.HandlerFunc {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return rawHandler(http.StatusOK, string(raw))
}

func rawHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestFetchBooksDecodesEveryRecord(t *testing.T) {
	client := NewRestyClient()
	defer client.Close()

	for _, n := range []int{0, 1, 5, 250} {
		want := makeBooks(n)
		srv := httptest.NewServer(jsonHandler(t, want))

		for _, mode := range allModes {
			got, err := client.FetchBooks(context.Background(), mode, srv.URL)
			if err != nil {
				srv.Close()
				t.Fatalf("%s n=%d: FetchBooks: %v", mode, n, err)
			}
			if len(got) != n {
				srv.Close()
				t.Fatalf("%s n=%d: expected %d books, got %d", mode, n, n, len(got))
			}
			if !reflect.DeepEqual(got, want) {
				srv.Close()
				t.Fatalf("%s n=%d: decoded books differ from source", mode, n)
			}
		}
		srv.Close()
	}
}

func TestFetchBooksNamedHelpers(t *testing.T) {
	want := makeBooks(3)
	srv := httptest.NewServer(jsonHandler(t, want))
	defer srv.Close()

	client := NewRestyClient()
	defer client.Close()
	ctx := context.Background()

	fetchers := map[string]func(context.Context, string) ([]domain.Book, error){
		"buffered":      client.FetchBooksBuffered,
		"headers_first": client.FetchBooksHeadersFirst,
		"stream":        client.FetchBooksStream,
	}
	for name, fetch := range fetchers {
		got, err := fetch(ctx, srv.URL)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: unexpected books %#v", name, got)
		}
	}
}

func TestFetchBooksNullBodyIsEmpty(t *testing.T) {
	srv := httptest.NewServer(rawHandler(http.StatusOK, "null"))
	defer srv.Close()

	client := NewRestyClient()
	defer client.Close()

	books, err := client.FetchBooksHeadersFirst(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("FetchBooksHeadersFirst: %v", err)
	}
	if books == nil || len(books) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", books)
	}
}

func TestFetchBooksReturnsStatusError(t *testing.T) {
	client := NewRestyClient()
	defer client.Close()

	for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusMultipleChoices} {
		// A valid JSON body proves the error comes from the status check, not a decode.
		srv := httptest.NewServer(rawHandler(code, `[{"Author":"a"}]`))
		for _, mode := range allModes {
			books, err := client.FetchBooks(context.Background(), mode, srv.URL)
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				srv.Close()
				t.Fatalf("%s %d: expected StatusError, got %v", mode, code, err)
			}
			if statusErr.Code != code {
				srv.Close()
				t.Fatalf("%s: expected code %d, got %d", mode, code, statusErr.Code)
			}
			if want := fmt.Sprintf("%d %s", code, http.StatusText(code)); statusErr.Status != want {
				srv.Close()
				t.Fatalf("%s: expected status %q, got %q", mode, want, statusErr.Status)
			}
			if books != nil {
				srv.Close()
				t.Fatalf("%s: expected no books on status error, got %#v", mode, books)
			}
		}
		srv.Close()
	}
}

func TestStatusErrorSkipsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(rawHandler(http.StatusNotFound, "{not json"))
	defer srv.Close()

	client := NewRestyClient()
	defer client.Close()

	for _, mode := range allModes {
		_, err := client.FetchBooks(context.Background(), mode, srv.URL)
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			t.Fatalf("%s: body must not be decoded on error status", mode)
		}
		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.Snippet != "{not json" {
			t.Fatalf("%s: expected StatusError with snippet, got %v", mode, err)
		}
	}
}

func TestFetchBooksReturnsDecodeError(t *testing.T) {
	bodies := []string{
		`[{"Author":"a",`,
		`{"Author":"a"}`,
		`[{"Author":1}]`,
		`not json at all`,
		``,
		`[] garbage`,
		`[{"Author":"a"}]]`,
		`[]{}`,
		`[][]`,
		`null null`,
	}

	client := NewRestyClient()
	defer client.Close()

	for _, body := range bodies {
		srv := httptest.NewServer(rawHandler(http.StatusOK, body))
		for _, mode := range allModes {
			_, err := client.FetchBooks(context.Background(), mode, srv.URL)
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				srv.Close()
				t.Fatalf("%s body %q: expected DecodeError, got %v", mode, body, err)
			}
		}
		srv.Close()
	}
}

func TestDecodeBooksAllowsTrailingWhitespace(t *testing.T) {
	books, err := DecodeBooks(strings.NewReader("[{\"Author\":\"a\"}]\r\n\t "))
	if err != nil {
		t.Fatalf("DecodeBooks: %v", err)
	}
	if len(books) != 1 || books[0].Author != "a" {
		t.Fatalf("unexpected books %#v", books)
	}
}

type failingReader struct {
	data []byte
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if len(f.data) == 0 {
		return 0, f.err
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func TestDecodeBooksKeepsTransportErrors(t *testing.T) {
	cut := &TransportError{URL: "u", Err: errors.New("connection reset")}
	cases := map[string]string{
		"inside value": `[{"Author":`,
		"after value":  `[] `,
	}
	for name, data := range cases {
		_, err := DecodeBooks(&failingReader{data: []byte(data), err: cut})
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("%s: expected TransportError, got %v", name, err)
		}
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			t.Fatalf("%s: read failure reported as DecodeError", name)
		}
	}
}

// Keys are matched the way encoding/json does: exact first, then case-insensitively.
func TestDecodeBooksKeyMatching(t *testing.T) {
	books, err := DecodeBooks(strings.NewReader(`[{"Author":"a","isbn":"1","name":"n","Extra":true}]`))
	if err != nil {
		t.Fatalf("DecodeBooks: %v", err)
	}
	if books[0].Author != "a" || books[0].ISBN != "1" || books[0].Name != "n" {
		t.Fatalf("unexpected book %#v", books[0])
	}

	raw, err := json.Marshal(domain.Book{Author: "a", Date: "d", ISBN: "i", Name: "n"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"Author":"a","Date":"d","ISBN":"i","Name":"n"}`; string(raw) != want {
		t.Fatalf("wire keys changed: %s", raw)
	}
}

func TestFetchBooksReturnsTransportError(t *testing.T) {
	srv := httptest.NewServer(rawHandler(http.StatusOK, "[]"))
	url := srv.URL
	srv.Close()

	client := NewRestyClient()
	defer client.Close()

	for _, mode := range allModes {
		_, err := client.FetchBooks(context.Background(), mode, url)
		var transportErr *TransportError
		if !errors.As(err, &transportErr) {
			t.Fatalf("%s: expected TransportError, got %v", mode, err)
		}
		if transportErr.URL != url {
			t.Fatalf("%s: expected url %s, got %s", mode, url, transportErr.URL)
		}
	}
}

// delayedBodyServer sends headers immediately and holds the body until release is called.
func delayedBodyServer(t *testing.T, books []domain.Book) (*httptest.Server, func()) {
	t.Helper()
	gate := make(chan struct{})
	var once sync.Once
	release := func() { once.Do(func() { close(gate) }) }

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-gate
		_ = json.NewEncoder(w).Encode(books)
	}))
	return srv, release
}

func TestOpenReturnsBeforeBodyArrives(t *testing.T) {
	want := makeBooks(5)
	srv, release := delayedBodyServer(t, want)
	defer srv.Close()
	defer release()

	client := NewRestyClient()
	defer client.Close()

	resp, err := client.Open(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer resp.Close()
	defer release()

	// The handler is still blocked, so only the headers can have arrived.
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode())
	}
	if got := resp.Header("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}
	if err := resp.EnsureSuccess(); err != nil {
		t.Fatalf("EnsureSuccess: %v", err)
	}

	release()
	got, err := DecodeBooks(resp.Body())
	if err != nil {
		t.Fatalf("DecodeBooks: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected books %#v", got)
	}
}

func TestBufferedWaitsForFullBody(t *testing.T) {
	srv, release := delayedBodyServer(t, makeBooks(2))
	defer srv.Close()
	defer release()

	client := NewRestyClient()
	defer client.Close()

	done := make(chan error, 1)
	go func() {
		_, err := client.FetchBooksBuffered(context.Background(), srv.URL)
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("buffered fetch returned before the body was sent: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	release()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("FetchBooksBuffered: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("buffered fetch did not complete after body release")
	}
}

func TestHeadersFirstReusesConnection(t *testing.T) {
	var newConns atomic.Int32
	srv := httptest.NewUnstartedServer(jsonHandler(t, makeBooks(250)))
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			newConns.Add(1)
		}
	}
	srv.Start()
	defer srv.Close()

	var mu sync.Mutex
	var traces []Trace
	client := NewRestyClient(WithTrace(func(tr Trace) {
		mu.Lock()
		traces = append(traces, tr)
		mu.Unlock()
	}))
	defer client.Close()

	for i := 0; i < 2; i++ {
		if _, err := client.FetchBooksHeadersFirst(context.Background(), srv.URL); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	if got := newConns.Load(); got != 1 {
		t.Fatalf("expected a single underlying connection, got %d", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(traces) != 2 {
		t.Fatalf("expected 2 traces, got %d", len(traces))
	}
	if traces[0].ConnReused || !traces[1].ConnReused {
		t.Fatalf("unexpected reuse flags %+v", traces)
	}
}

func TestTraceTimesAreBounded(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, makeBooks(5)))
	defer srv.Close()

	var mu sync.Mutex
	var traces []Trace
	client := NewRestyClient(WithTrace(func(tr Trace) {
		mu.Lock()
		traces = append(traces, tr)
		mu.Unlock()
	}))
	defer client.Close()

	for _, mode := range allModes {
		if _, err := client.FetchBooks(context.Background(), mode, srv.URL); err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(traces) != len(allModes) {
		t.Fatalf("expected %d traces, got %d", len(allModes), len(traces))
	}
	// The first trace is a fresh connection to an IP literal, so no DNS phase.
	for i, tr := range traces {
		if tr.ServerTime <= 0 || tr.TotalTime < tr.ServerTime || tr.TotalTime > time.Minute {
			t.Fatalf("trace %d: implausible times %+v", i, tr)
		}
	}
}

func TestSinkNoneStillReleasesConnection(t *testing.T) {
	var newConns atomic.Int32
	srv := httptest.NewUnstartedServer(jsonHandler(t, makeBooks(5)))
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			newConns.Add(1)
		}
	}
	srv.Start()
	defer srv.Close()

	client := NewRestyClient()
	defer client.Close()

	for i := 0; i < 3; i++ {
		out, err := client.Consume(context.Background(), ModeHeadersFirst, SinkNone, srv.URL)
		if err != nil {
			t.Fatalf("Consume: %v", err)
		}
		if out != (Outcome{}) {
			t.Fatalf("expected empty outcome, got %+v", out)
		}
	}
	if got := newConns.Load(); got != 1 {
		t.Fatalf("expected connection reuse, got %d connections", got)
	}
}

func TestConsumeSinks(t *testing.T) {
	books := makeBooks(5)
	raw, _ := json.Marshal(books)
	srv := httptest.NewServer(rawHandler(http.StatusOK, string(raw)))
	defer srv.Close()

	client := NewRestyClient()
	defer client.Close()
	ctx := context.Background()

	for _, mode := range allModes {
		out, err := client.Consume(ctx, mode, SinkDecode, srv.URL)
		if err != nil || out.Books != 5 {
			t.Fatalf("%s decode: out=%+v err=%v", mode, out, err)
		}
		out, err = client.Consume(ctx, mode, SinkRead, srv.URL)
		if err != nil || out.Bytes != int64(len(raw)) {
			t.Fatalf("%s read: out=%+v err=%v", mode, out, err)
		}
	}

	if _, err := client.Consume(ctx, Mode("bogus"), SinkDecode, srv.URL); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if _, err := client.Consume(ctx, ModeBuffered, Sink("bogus"), srv.URL); err == nil {
		t.Fatalf("expected error for unknown sink")
	}
}

func TestOpenStreamRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(rawHandler(http.StatusServiceUnavailable, "down"))
	defer srv.Close()

	client := NewRestyClient()
	defer client.Close()

	stream, err := client.OpenStream(context.Background(), srv.URL)
	if stream != nil {
		t.Fatalf("expected no stream on error status")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 StatusError, got %v", err)
	}
}

func TestStreamResponseCloseIsIdempotent(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, makeBooks(1)))
	defer srv.Close()

	client := NewRestyClient()
	defer client.Close()

	resp, err := client.Open(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := resp.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := resp.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestParseSink(t *testing.T) {
	if s, err := ParseSink("read"); err != nil || s != SinkRead {
		t.Fatalf("ParseSink(read) = %q, %v", s, err)
	}
	if _, err := ParseSink("xml"); err == nil {
		t.Fatalf("expected error for unknown sink")
	}
}

func TestErrorMessages(t *testing.T) {
	if got := (&StatusError{Code: 404}).Error(); got != "http response status 404" {
		t.Fatalf("unexpected message %q", got)
	}
	inner := errors.New("boom")
	if !errors.Is(&DecodeError{Err: inner}, inner) {
		t.Fatalf("DecodeError must unwrap")
	}
	if !errors.Is(&TransportError{URL: "u", Err: inner}, inner) {
		t.Fatalf("TransportError must unwrap")
	}
}
