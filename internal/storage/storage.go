package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/completion-bench/internal/domain"
)

// Package storage keeps benchmark results between runs.

// Store persists benchmark results.
type Store interface {
	Close() error
	SaveResult(res domain.RunResult) error
	Results() ([]domain.RunResult, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	defaultResultTTL       = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = defaultResultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                         { return nil }
func (noopStore) SaveResult(domain.RunResult) error    { return nil }
func (noopStore) Results() ([]domain.RunResult, error) { return nil, nil }
