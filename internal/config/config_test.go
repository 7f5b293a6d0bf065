package config

import (
	"testing"
	"time"

	"github.com/samvad-hq/completion-bench/pkg/httpclient"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TargetURL != "http://localhost:58815/books" {
		t.Fatalf("unexpected target_url %q", cfg.TargetURL)
	}
	if cfg.BookCount != 100 {
		t.Fatalf("expected 100 books by default, got %d", cfg.BookCount)
	}
	if cfg.BenchSink != httpclient.SinkDecode {
		t.Fatalf("expected decode sink, got %q", cfg.BenchSink)
	}
	if cfg.RequestTimeout != 0 {
		t.Fatalf("expected no request timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.BenchTime != time.Second {
		t.Fatalf("expected 1s bench time, got %s", cfg.BenchTime)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("TARGET_URL", "http://127.0.0.1:9000/books")
	t.Setenv("BENCH_SINK", " READ ")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TargetURL != "http://127.0.0.1:9000/books" {
		t.Fatalf("unexpected target_url %q", cfg.TargetURL)
	}
	if cfg.BenchSink != httpclient.SinkRead {
		t.Fatalf("expected read sink, got %q", cfg.BenchSink)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %s", cfg.RequestTimeout)
	}
}

func TestLoadRejectsUnknownSink(t *testing.T) {
	t.Setenv("BENCH_SINK", "json")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown sink")
	}
}

func TestLoadRejectsNonPositiveBenchTime(t *testing.T) {
	t.Setenv("BENCH_TIME_MS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero bench_time_ms")
	}
}
