package logger

import (
	"testing"

	"github.com/samvad-hq/completion-bench/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for raw, want := range cases {
		if got := parseLevel(raw); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestInitSetsPackageLogger(t *testing.T) {
	S = nil
	sugar, err := Init(&config.Config{AppName: "test", LogLevel: "debug"})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if S == nil || S != sugar {
		t.Fatalf("expected package logger to be set")
	}
	Global{}.DebugObj("debug line", "k", map[string]any{"v": 1})
}
